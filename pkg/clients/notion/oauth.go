package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/papersync/papersync/internal/domain"
)

// ExchangeCode trades an authorization code for the initial token
// bundle.
func (c *Client) ExchangeCode(ctx context.Context, code string) (domain.TokenBundle, error) {
	return c.tokenRequest(ctx, map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": c.redirectURI,
	})
}

// RefreshToken trades a refresh token for a new token bundle. Notion
// invalidates the presented refresh token as a side effect, so a bundle
// returned here must be persisted before it is usable again.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (domain.TokenBundle, error) {
	return c.tokenRequest(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

// tokenRequest posts to the token endpoint with HTTP Basic credentials
// built from the integration's client id and secret.
func (c *Client) tokenRequest(ctx context.Context, body map[string]string) (domain.TokenBundle, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return domain.TokenBundle{}, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", bytes.NewReader(jsonBody))
	if err != nil {
		return domain.TokenBundle{}, fmt.Errorf("failed to create token request: %w", err)
	}

	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.TokenBundle{}, domain.NewNotionAPIError("failed to call token endpoint: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.TokenBundle{}, domain.NewNotionAPIError("failed to read token response: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.TokenBundle{}, domain.NewAuthenticationError("token endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	var bundle domain.TokenBundle
	if err := json.Unmarshal(respBody, &bundle); err != nil {
		return domain.TokenBundle{}, domain.NewNotionAPIError("failed to parse token response: %v", err)
	}

	return bundle, nil
}
