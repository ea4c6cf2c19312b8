package notion

// RichText is one segment of a Notion rich-text property value.
type RichText struct {
	Type string          `json:"type"`
	Text RichTextContent `json:"text"`
}

type RichTextContent struct {
	Content string `json:"content"`
}

func NewRichText(content string) RichText {
	return RichText{Type: "text", Text: RichTextContent{Content: content}}
}

// SplitRichText splits text into in-order segments of at most maxLength
// characters each. Rejoining the segments reproduces the input exactly.
func SplitRichText(text string, maxLength int) []RichText {
	runes := []rune(text)
	chunks := make([]RichText, 0, (len(runes)+maxLength-1)/maxLength)

	for i := 0; i < len(runes); i += maxLength {
		end := i + maxLength
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, NewRichText(string(runes[i:end])))
	}

	return chunks
}

// TruncateText caps text at maxLength characters.
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}
	return string(runes[:maxLength])
}
