package domain

import (
	"context"
	"time"
)

// Workspace is one external Notion tenant. A row is upserted on every
// successful authorization, so re-authorizing never duplicates it.
type Workspace struct {
	ID            string
	WorkspaceName string
	WorkspaceIcon string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Integration is one authorized installation, keyed by the bot identity
// which stays stable across token rotation and re-authorization.
type Integration struct {
	BotID          string
	WorkspaceID    string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time
	DatabaseID     string
	ParentPageID   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UpdateTokensParams replaces the full token triple in one write. The
// three fields always travel together; a partial update would leave the
// stored credential inconsistent.
type UpdateTokensParams struct {
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt time.Time
}

type WorkspaceRepository interface {
	UpsertWorkspace(ctx context.Context, workspace Workspace) error
}

type IntegrationRepository interface {
	UpsertIntegration(ctx context.Context, integration Integration) error
	GetIntegrationByBotID(ctx context.Context, botID string) (Integration, error)
	GetIntegrationByWorkspaceID(ctx context.Context, workspaceID string) (Integration, error)
	GetIntegrationByDatabaseID(ctx context.Context, databaseID string) (Integration, error)
	// GetExpiringIntegrations returns integrations whose token expiry is
	// unset or at/before the deadline, soonest-expiring first.
	GetExpiringIntegrations(ctx context.Context, deadline time.Time) ([]Integration, error)
	UpdateIntegrationTokens(ctx context.Context, botID string, params UpdateTokensParams) error
	DeleteIntegration(ctx context.Context, botID string) error
}
