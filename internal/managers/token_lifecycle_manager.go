package managers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/papersync/papersync/internal/domain"
)

// TokenValidityWindow is the estimated lifetime assigned to every newly
// issued or refreshed access token. Notion's token endpoint does not
// report an expires_in, so the service tracks its own estimate.
const TokenValidityWindow = 7 * 24 * time.Hour

// TokenLifecycleManager owns expiry policy and token refresh, both the
// proactive scheduled batch and the reactive single-credential path the
// webhook pipeline uses.
type TokenLifecycleManager struct {
	integrations domain.IntegrationRepository
	exchanger    domain.OAuthExchanger
	clock        domain.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type TokenLifecycleManagerDependencies struct {
	IntegrationRepository domain.IntegrationRepository
	OAuthExchanger        domain.OAuthExchanger
	Clock                 domain.Clock
}

func NewTokenLifecycleManager(deps TokenLifecycleManagerDependencies) *TokenLifecycleManager {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &TokenLifecycleManager{
		integrations: deps.IntegrationRepository,
		exchanger:    deps.OAuthExchanger,
		clock:        clock,
		locks:        make(map[string]*sync.Mutex),
	}
}

// IsExpired reports whether the stored access token should no longer be
// used. A missing expiry is conservatively treated as expired.
func (m *TokenLifecycleManager) IsExpired(integration domain.Integration) bool {
	if integration.TokenExpiresAt == nil {
		return true
	}
	return !integration.TokenExpiresAt.After(m.clock())
}

// IsExpiringSoon reports whether the token expires within the next
// hoursThreshold hours.
func (m *TokenLifecycleManager) IsExpiringSoon(integration domain.Integration, hoursThreshold int) bool {
	if integration.TokenExpiresAt == nil {
		return true
	}
	deadline := m.clock().Add(time.Duration(hoursThreshold) * time.Hour)
	return !integration.TokenExpiresAt.After(deadline)
}

// RefreshOne refreshes the credential for one bot and atomically stores
// the new access token, refresh token, and expiry estimate. The call is
// not retried; a failure, including the refresh token having been
// rotated by a concurrent caller, propagates unchanged. A per-bot lock
// keeps the scheduled batch and reactive webhook refreshes from racing
// each other inside this process.
func (m *TokenLifecycleManager) RefreshOne(ctx context.Context, botID string) error {
	lock := m.refreshLock(botID)
	lock.Lock()
	defer lock.Unlock()

	integration, err := m.integrations.GetIntegrationByBotID(ctx, botID)
	if err != nil {
		return err
	}

	bundle, err := m.exchanger.RefreshToken(ctx, integration.RefreshToken)
	if err != nil {
		return err
	}

	return m.integrations.UpdateIntegrationTokens(ctx, botID, domain.UpdateTokensParams{
		AccessToken:    bundle.AccessToken,
		RefreshToken:   bundle.RefreshToken,
		TokenExpiresAt: m.clock().Add(TokenValidityWindow),
	})
}

// RefreshByWorkspaceID resolves the workspace's integration and
// refreshes it. Backs the manual refresh endpoint.
func (m *TokenLifecycleManager) RefreshByWorkspaceID(ctx context.Context, workspaceID string) error {
	integration, err := m.integrations.GetIntegrationByWorkspaceID(ctx, workspaceID)
	if err != nil {
		return err
	}

	return m.RefreshOne(ctx, integration.BotID)
}

// RefreshExpiringBatch refreshes every credential that is expired or
// within hoursThreshold hours of expiring, soonest first. Failures are
// isolated per credential: a failed one is recorded in the result and
// the batch continues. A credential that fails stays stale in storage
// and is retried on the next scheduled run because it still satisfies
// the expiring predicate.
func (m *TokenLifecycleManager) RefreshExpiringBatch(ctx context.Context, hoursThreshold int) (domain.RefreshResult, error) {
	deadline := m.clock().Add(time.Duration(hoursThreshold) * time.Hour)

	integrations, err := m.integrations.GetExpiringIntegrations(ctx, deadline)
	if err != nil {
		return domain.RefreshResult{}, err
	}

	result := domain.RefreshResult{Total: len(integrations)}

	for _, integration := range integrations {
		if err := m.RefreshOne(ctx, integration.BotID); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, domain.RefreshFailure{
				BotID:       integration.BotID,
				WorkspaceID: integration.WorkspaceID,
				Error:       err.Error(),
				Timestamp:   m.clock().UTC(),
			})

			log.Warn().
				Err(err).
				Str("bot_id", integration.BotID).
				Str("workspace_id", integration.WorkspaceID).
				Msg("Failed to refresh integration token")

			continue
		}

		result.Success++
	}

	return result, nil
}

func (m *TokenLifecycleManager) refreshLock(botID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[botID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[botID] = lock
	}

	return lock
}
