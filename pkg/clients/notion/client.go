package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papersync/papersync/internal/domain"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	APIVersion     = "2022-06-28"

	// Notion rejects rich-text segments longer than this many characters.
	MaxRichTextLength = 2000

	databaseTitle = "ArXiv Papers"
)

type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	redirectURI  string
}

type ClientDependencies struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	HTTPClient   *http.Client
	BaseURL      string
}

func NewClient(deps ClientDependencies) *Client {
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	baseURL := deps.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     deps.ClientID,
		clientSecret: deps.ClientSecret,
		redirectURI:  deps.RedirectURI,
	}
}

var (
	_ domain.OAuthExchanger        = (*Client)(nil)
	_ domain.NotionWorkspaceClient = (*Client)(nil)
)

// AuthorizeURL builds the outbound authorization URL carrying the
// anti-replay state nonce.
func (c *Client) AuthorizeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("redirect_uri", c.redirectURI)
	params.Set("response_type", "code")
	params.Set("owner", "user")
	params.Set("state", state)

	return c.baseURL + "/oauth/authorize?" + params.Encode()
}

func (c *Client) doRequest(ctx context.Context, accessToken, method, endpoint string, body interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", APIVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, domain.NewNotionAPIError("failed to execute request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, domain.NewNotionAPIError("failed to read response body: %v", err)
	}

	return resp.StatusCode, respBody, nil
}

func (c *Client) makeRequest(ctx context.Context, accessToken, method, endpoint string, body interface{}) ([]byte, error) {
	status, respBody, err := c.doRequest(ctx, accessToken, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	if status < 200 || status >= 300 {
		return nil, domain.NewNotionAPIError("Notion API error (status %d): %s", status, string(respBody))
	}

	return respBody, nil
}

type databaseResponse struct {
	ID     string `json:"id"`
	Parent struct {
		Type   string `json:"type"`
		PageID string `json:"page_id"`
	} `json:"parent"`
}

// ProvisionDatabase returns the paper database for an installation,
// reusing existingDatabaseID when it still resolves and creating a
// fresh "ArXiv Papers" database at the workspace root otherwise.
func (c *Client) ProvisionDatabase(ctx context.Context, accessToken, existingDatabaseID string) (domain.ProvisionedDatabase, error) {
	if existingDatabaseID != "" {
		status, respBody, err := c.doRequest(ctx, accessToken, http.MethodGet, "/databases/"+existingDatabaseID, nil)
		if err != nil {
			return domain.ProvisionedDatabase{}, err
		}

		switch {
		case status >= 200 && status < 300:
			var database databaseResponse
			if err := json.Unmarshal(respBody, &database); err != nil {
				return domain.ProvisionedDatabase{}, domain.NewNotionAPIError("failed to parse database response: %v", err)
			}
			return provisionedFromResponse(database), nil
		case status == http.StatusNotFound:
			// The user deleted the database; fall through and recreate it.
		default:
			return domain.ProvisionedDatabase{}, domain.NewNotionAPIError("Notion API error (status %d): %s", status, string(respBody))
		}
	}

	createBody := map[string]interface{}{
		"parent": map[string]interface{}{
			"type":      "workspace",
			"workspace": true,
		},
		"title": []RichText{NewRichText(databaseTitle)},
		"properties": map[string]interface{}{
			"Title":            map[string]interface{}{"title": map[string]interface{}{}},
			"Authors":          map[string]interface{}{"rich_text": map[string]interface{}{}},
			"Summary":          map[string]interface{}{"rich_text": map[string]interface{}{}},
			"Link":             map[string]interface{}{"url": map[string]interface{}{}},
			"Publication Year": map[string]interface{}{"number": map[string]interface{}{}},
		},
	}

	respBody, err := c.makeRequest(ctx, accessToken, http.MethodPost, "/databases", createBody)
	if err != nil {
		return domain.ProvisionedDatabase{}, fmt.Errorf("failed to create database: %w", err)
	}

	var database databaseResponse
	if err := json.Unmarshal(respBody, &database); err != nil {
		return domain.ProvisionedDatabase{}, domain.NewNotionAPIError("failed to parse database response: %v", err)
	}

	return provisionedFromResponse(database), nil
}

func provisionedFromResponse(database databaseResponse) domain.ProvisionedDatabase {
	provisioned := domain.ProvisionedDatabase{DatabaseID: database.ID}
	if database.Parent.Type == "page_id" {
		provisioned.ParentPageID = database.Parent.PageID
	}
	return provisioned
}

// UpdatePaperPage overwrites the five paper properties on a database
// page. Authors and Summary are chunked to respect the rich-text
// segment limit; Title is truncated to a single segment.
func (c *Client) UpdatePaperPage(ctx context.Context, accessToken, pageID string, paper domain.Paper) error {
	updateBody := map[string]interface{}{
		"properties": map[string]interface{}{
			"Title": map[string]interface{}{
				"title": []RichText{NewRichText(TruncateText(paper.Title, MaxRichTextLength))},
			},
			"Authors": map[string]interface{}{
				"rich_text": SplitRichText(strings.Join(paper.Authors, ", "), MaxRichTextLength),
			},
			"Summary": map[string]interface{}{
				"rich_text": SplitRichText(paper.Summary, MaxRichTextLength),
			},
			"Link": map[string]interface{}{
				"url": paper.Link,
			},
			"Publication Year": map[string]interface{}{
				"number": paper.PublishedYear,
			},
		},
	}

	if _, err := c.makeRequest(ctx, accessToken, http.MethodPatch, "/pages/"+pageID, updateBody); err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}

	return nil
}
