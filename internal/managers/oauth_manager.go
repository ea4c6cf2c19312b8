package managers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/papersync/papersync/internal/domain"
)

// OAuthManager drives the authorization-code flow: issuing handshake
// state, exchanging the callback code, and provisioning the workspace's
// paper database.
type OAuthManager struct {
	states       domain.OAuthStateStore
	authorizer   domain.OAuthAuthorizer
	exchanger    domain.OAuthExchanger
	workspaces   domain.WorkspaceRepository
	integrations domain.IntegrationRepository
	notion       domain.NotionWorkspaceClient
	clock        domain.Clock
}

type OAuthManagerDependencies struct {
	StateStore            domain.OAuthStateStore
	Authorizer            domain.OAuthAuthorizer
	Exchanger             domain.OAuthExchanger
	WorkspaceRepository   domain.WorkspaceRepository
	IntegrationRepository domain.IntegrationRepository
	NotionClient          domain.NotionWorkspaceClient
	Clock                 domain.Clock
}

func NewOAuthManager(deps OAuthManagerDependencies) *OAuthManager {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &OAuthManager{
		states:       deps.StateStore,
		authorizer:   deps.Authorizer,
		exchanger:    deps.Exchanger,
		workspaces:   deps.WorkspaceRepository,
		integrations: deps.IntegrationRepository,
		notion:       deps.NotionClient,
		clock:        clock,
	}
}

// AuthURL issues a fresh state nonce and returns the authorization URL
// to redirect the user to.
func (m *OAuthManager) AuthURL(ctx context.Context) (string, error) {
	nonce, err := m.states.Issue(ctx)
	if err != nil {
		return "", err
	}

	return m.authorizer.AuthorizeURL(nonce), nil
}

// CallbackResult carries what the success page needs.
type CallbackResult struct {
	BotID        string
	WorkspaceID  string
	DatabaseID   string
	ParentPageID string
}

// HandleCallback verifies the handshake state, exchanges the code for
// tokens, upserts the workspace and integration, and provisions the
// paper database. Re-authorization of a known installation reuses its
// surviving database instead of creating a second one.
func (m *OAuthManager) HandleCallback(ctx context.Context, code, state string) (CallbackResult, error) {
	if code == "" || state == "" {
		return CallbackResult{}, domain.NewValidationError("missing code or state parameter")
	}

	if _, err := m.states.Consume(ctx, state); err != nil {
		return CallbackResult{}, err
	}

	bundle, err := m.exchanger.ExchangeCode(ctx, code)
	if err != nil {
		return CallbackResult{}, err
	}

	if err := m.workspaces.UpsertWorkspace(ctx, domain.Workspace{
		ID:            bundle.WorkspaceID,
		WorkspaceName: bundle.WorkspaceName,
		WorkspaceIcon: bundle.WorkspaceIcon,
	}); err != nil {
		return CallbackResult{}, err
	}

	existingDatabaseID := ""
	existing, err := m.integrations.GetIntegrationByBotID(ctx, bundle.BotID)
	switch {
	case err == nil:
		existingDatabaseID = existing.DatabaseID
	case !domain.IsKind(err, domain.ErrorKindNotFound):
		return CallbackResult{}, err
	}

	database, err := m.notion.ProvisionDatabase(ctx, bundle.AccessToken, existingDatabaseID)
	if err != nil {
		return CallbackResult{}, err
	}

	expiresAt := m.clock().Add(TokenValidityWindow)
	if err := m.integrations.UpsertIntegration(ctx, domain.Integration{
		BotID:          bundle.BotID,
		WorkspaceID:    bundle.WorkspaceID,
		AccessToken:    bundle.AccessToken,
		RefreshToken:   bundle.RefreshToken,
		TokenExpiresAt: &expiresAt,
		DatabaseID:     database.DatabaseID,
		ParentPageID:   database.ParentPageID,
	}); err != nil {
		return CallbackResult{}, err
	}

	log.Info().
		Str("bot_id", bundle.BotID).
		Str("workspace_id", bundle.WorkspaceID).
		Str("database_id", database.DatabaseID).
		Msg("Workspace connected")

	return CallbackResult{
		BotID:        bundle.BotID,
		WorkspaceID:  bundle.WorkspaceID,
		DatabaseID:   database.DatabaseID,
		ParentPageID: database.ParentPageID,
	}, nil
}
