package domain

import "time"

// AutomationPayload is the body Notion's "Send HTTP request" automation
// action posts when configured with the {{page}} template. This is the
// one canonical webhook shape the service accepts.
type AutomationPayload struct {
	Source *AutomationSource `json:"source"`
	Data   *AutomationPage   `json:"data"`
}

type AutomationSource struct {
	Type         string `json:"type"`
	AutomationID string `json:"automation_id"`
}

type AutomationPage struct {
	Object     string                  `json:"object"`
	ID         string                  `json:"id"`
	Parent     AutomationParent        `json:"parent"`
	Properties map[string]PageProperty `json:"properties"`
}

type AutomationParent struct {
	Type       string `json:"type"`
	DatabaseID string `json:"database_id"`
}

// PageProperty carries only what the pipeline reads: the url field of
// the Link property.
type PageProperty struct {
	URL string `json:"url"`
}

type WebhookResult struct {
	Success   bool      `json:"success"`
	PageID    string    `json:"page_id"`
	UpdatedAt time.Time `json:"updated_at"`
}
