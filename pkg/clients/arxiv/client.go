package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clbanning/mxj/v2"

	"github.com/papersync/papersync/internal/domain"
)

const (
	DefaultBaseURL = "http://export.arxiv.org/api/query"
	DefaultTimeout = 10 * time.Second
)

// idPattern covers the abs and pdf URL shapes, with or without a
// version suffix: 2301.12345, 2301.12345v2, 2301.12345v2.pdf.
var idPattern = regexp.MustCompile(`arxiv\.org/(abs|pdf)/(\d{4}\.\d{4,5})`)

// ExtractID pulls the canonical ArXiv identifier out of a paper URL.
func ExtractID(paperURL string) (string, error) {
	match := idPattern.FindStringSubmatch(paperURL)
	if match == nil {
		return "", domain.NewValidationError("invalid ArXiv URL: %s", paperURL)
	}
	return match[2], nil
}

// ValidateURL reports whether the URL points at an ArXiv paper.
func ValidateURL(paperURL string) bool {
	return idPattern.MatchString(paperURL)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
}

type ClientOption func(*Client)

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

var _ domain.PaperFetcher = (*Client)(nil)

// FetchByURL fetches paper metadata for an ArXiv paper URL.
func (c *Client) FetchByURL(ctx context.Context, paperURL string) (domain.Paper, error) {
	arxivID, err := ExtractID(paperURL)
	if err != nil {
		return domain.Paper{}, err
	}

	return c.FetchByID(ctx, arxivID)
}

// FetchByID fetches paper metadata from the ArXiv query API. The call
// is bounded by the client timeout; timeouts and non-2xx responses both
// surface as ARXIV_API_ERROR.
func (c *Client) FetchByID(ctx context.Context, arxivID string) (domain.Paper, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := url.Values{}
	query.Set("id_list", arxivID)
	query.Set("max_results", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return domain.Paper{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.Paper{}, domain.NewArxivAPIError("ArXiv request timed out after %s", c.timeout)
		}
		return domain.Paper{}, domain.NewArxivAPIError("failed to fetch paper: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Paper{}, domain.NewArxivAPIError("failed to read ArXiv response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Paper{}, domain.NewArxivAPIError("ArXiv API returned %d", resp.StatusCode)
	}

	return parseFeed(body)
}

// parseFeed extracts one paper from the Atom feed the query API returns.
func parseFeed(data []byte) (domain.Paper, error) {
	mv, err := mxj.NewMapXml(data)
	if err != nil {
		return domain.Paper{}, domain.NewArxivAPIError("failed to parse ArXiv response: %v", err)
	}

	entries, err := mv.ValuesForPath("feed.entry")
	if err != nil || len(entries) == 0 {
		return domain.Paper{}, domain.NewArxivAPIError("no entry found in ArXiv response")
	}

	entry, ok := entries[0].(map[string]interface{})
	if !ok {
		return domain.Paper{}, domain.NewArxivAPIError("malformed entry in ArXiv response")
	}

	title := normalizeText(textValue(entry["title"]))
	if title == "" {
		return domain.Paper{}, domain.NewArxivAPIError("failed to parse title from ArXiv response")
	}

	authors := parseAuthors(entry["author"])
	if len(authors) == 0 {
		return domain.Paper{}, domain.NewArxivAPIError("failed to parse authors from ArXiv response")
	}

	summary := normalizeText(textValue(entry["summary"]))
	if summary == "" {
		return domain.Paper{}, domain.NewArxivAPIError("failed to parse summary from ArXiv response")
	}

	link := strings.TrimSpace(textValue(entry["id"]))
	if link == "" {
		return domain.Paper{}, domain.NewArxivAPIError("failed to parse link from ArXiv response")
	}

	published := strings.TrimSpace(textValue(entry["published"]))
	if len(published) < 4 {
		return domain.Paper{}, domain.NewArxivAPIError("failed to parse published date from ArXiv response")
	}

	publishedYear, err := strconv.Atoi(published[:4])
	if err != nil {
		return domain.Paper{}, domain.NewArxivAPIError("failed to parse published date from ArXiv response")
	}

	return domain.Paper{
		Title:         title,
		Authors:       authors,
		Summary:       summary,
		Link:          link,
		PublishedYear: publishedYear,
	}, nil
}

// parseAuthors handles both the single-author (map) and multi-author
// (slice) shapes mxj produces for repeated elements.
func parseAuthors(value interface{}) []string {
	var authors []string

	appendAuthor := func(author interface{}) {
		authorMap, ok := author.(map[string]interface{})
		if !ok {
			return
		}
		if name := normalizeText(textValue(authorMap["name"])); name != "" {
			authors = append(authors, name)
		}
	}

	switch v := value.(type) {
	case []interface{}:
		for _, author := range v {
			appendAuthor(author)
		}
	case map[string]interface{}:
		appendAuthor(v)
	}

	return authors
}

// textValue unwraps an mxj value that may be either a plain string or a
// map carrying attributes alongside "#text".
func textValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		if text, ok := v["#text"].(string); ok {
			return text
		}
	}
	return ""
}

// normalizeText collapses runs of whitespace left by Atom line wrapping.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
