package domain

import (
	"context"
	"time"
)

// TokenBundle is what the Notion token endpoint returns for both the
// authorization-code exchange and a refresh. Notion rotates the refresh
// token on every refresh; the previous one is dead the moment a new
// bundle is issued.
type TokenBundle struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	BotID         string `json:"bot_id"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
	WorkspaceIcon string `json:"workspace_icon"`
}

// OAuthState is the single-use anti-replay record for one handshake.
type OAuthState struct {
	CreatedAt time.Time `json:"created_at"`
}

// OAuthStateStore issues and consumes handshake nonces. Consume deletes
// the record before returning, so a nonce succeeds exactly once even
// under a duplicated browser callback.
type OAuthStateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, nonce string) (OAuthState, error)
}

// OAuthAuthorizer builds the outbound authorization URL for a state
// nonce.
type OAuthAuthorizer interface {
	AuthorizeURL(state string) string
}

// OAuthExchanger performs the two token-bearing calls against the
// authorization server.
type OAuthExchanger interface {
	ExchangeCode(ctx context.Context, code string) (TokenBundle, error)
	RefreshToken(ctx context.Context, refreshToken string) (TokenBundle, error)
}

// Clock supplies the current time. Injected everywhere expiry math
// happens so tests can pin it.
type Clock func() time.Time

// NonceSource supplies cryptographically random nonces.
type NonceSource func() string
