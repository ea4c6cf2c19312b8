package managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papersync/papersync/internal/domain"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func newLifecycleManager(repo *fakeIntegrationRepository, exchanger *fakeExchanger) *TokenLifecycleManager {
	return NewTokenLifecycleManager(TokenLifecycleManagerDependencies{
		IntegrationRepository: repo,
		OAuthExchanger:        exchanger,
		Clock:                 fixedClock(testNow),
	})
}

func TestTokenLifecycleManager_IsExpired(t *testing.T) {
	manager := newLifecycleManager(newFakeIntegrationRepository(), &fakeExchanger{})

	tests := []struct {
		name      string
		expiresAt *time.Time
		expected  bool
	}{
		{
			name:      "nil expiry treated as expired",
			expiresAt: nil,
			expected:  true,
		},
		{
			name:      "past expiry",
			expiresAt: timePtr(testNow.Add(-time.Hour)),
			expected:  true,
		},
		{
			name:      "expiry exactly now",
			expiresAt: timePtr(testNow),
			expected:  true,
		},
		{
			name:      "future expiry",
			expiresAt: timePtr(testNow.Add(time.Minute)),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integration := domain.Integration{BotID: "bot", TokenExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, manager.IsExpired(integration))
		})
	}
}

func TestTokenLifecycleManager_IsExpiringSoon(t *testing.T) {
	manager := newLifecycleManager(newFakeIntegrationRepository(), &fakeExchanger{})

	tests := []struct {
		name      string
		expiresAt *time.Time
		hours     int
		expected  bool
	}{
		{
			name:      "nil expiry",
			expiresAt: nil,
			hours:     24,
			expected:  true,
		},
		{
			name:      "within threshold",
			expiresAt: timePtr(testNow.Add(12 * time.Hour)),
			hours:     24,
			expected:  true,
		},
		{
			name:      "exactly at threshold",
			expiresAt: timePtr(testNow.Add(24 * time.Hour)),
			hours:     24,
			expected:  true,
		},
		{
			name:      "beyond threshold",
			expiresAt: timePtr(testNow.Add(25 * time.Hour)),
			hours:     24,
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			integration := domain.Integration{BotID: "bot", TokenExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, manager.IsExpiringSoon(integration, tt.hours))
		})
	}
}

func TestTokenLifecycleManager_RefreshOne(t *testing.T) {
	repo := newFakeIntegrationRepository(domain.Integration{
		BotID:        "bot-1",
		WorkspaceID:  "ws-1",
		AccessToken:  "old-access",
		RefreshToken: "old-refresh",
		DatabaseID:   "db-1",
	})
	exchanger := &fakeExchanger{
		bundles: map[string]domain.TokenBundle{
			"old-refresh": {AccessToken: "new-access", RefreshToken: "new-refresh"},
		},
	}
	manager := newLifecycleManager(repo, exchanger)

	err := manager.RefreshOne(context.Background(), "bot-1")
	require.NoError(t, err)

	// All three token fields move together.
	require.Len(t, repo.updates, 1)
	assert.Equal(t, "bot-1", repo.updates[0].botID)
	assert.Equal(t, "new-access", repo.updates[0].params.AccessToken)
	assert.Equal(t, "new-refresh", repo.updates[0].params.RefreshToken)
	assert.Equal(t, testNow.Add(TokenValidityWindow), repo.updates[0].params.TokenExpiresAt)

	stored, err := repo.GetIntegrationByBotID(context.Background(), "bot-1")
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.AccessToken)
	assert.Equal(t, "new-refresh", stored.RefreshToken)
	require.NotNil(t, stored.TokenExpiresAt)
	assert.Equal(t, testNow.Add(TokenValidityWindow), *stored.TokenExpiresAt)

	// Database pointers are untouched by a refresh.
	assert.Equal(t, "db-1", stored.DatabaseID)
	assert.Equal(t, "ws-1", stored.WorkspaceID)
}

func TestTokenLifecycleManager_RefreshOne_UnknownBot(t *testing.T) {
	manager := newLifecycleManager(newFakeIntegrationRepository(), &fakeExchanger{})

	err := manager.RefreshOne(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrorKindNotFound))
}

func TestTokenLifecycleManager_RefreshOne_ExchangeFailure(t *testing.T) {
	repo := newFakeIntegrationRepository(domain.Integration{
		BotID:        "bot-1",
		AccessToken:  "old-access",
		RefreshToken: "rotated-away",
	})
	exchanger := &fakeExchanger{
		errs: map[string]error{
			"rotated-away": domain.NewAuthenticationError("refresh token already rotated"),
		},
	}
	manager := newLifecycleManager(repo, exchanger)

	err := manager.RefreshOne(context.Background(), "bot-1")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrorKindAuthentication))

	// The stored credential is untouched on failure.
	assert.Empty(t, repo.updates)
	stored, getErr := repo.GetIntegrationByBotID(context.Background(), "bot-1")
	require.NoError(t, getErr)
	assert.Equal(t, "old-access", stored.AccessToken)
}

func TestTokenLifecycleManager_RefreshByWorkspaceID(t *testing.T) {
	repo := newFakeIntegrationRepository(domain.Integration{
		BotID:        "bot-1",
		WorkspaceID:  "ws-1",
		RefreshToken: "refresh-1",
	})
	exchanger := &fakeExchanger{
		bundles: map[string]domain.TokenBundle{
			"refresh-1": {AccessToken: "new-access", RefreshToken: "new-refresh"},
		},
	}
	manager := newLifecycleManager(repo, exchanger)

	require.NoError(t, manager.RefreshByWorkspaceID(context.Background(), "ws-1"))
	require.Len(t, repo.updates, 1)

	err := manager.RefreshByWorkspaceID(context.Background(), "ws-unknown")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrorKindNotFound))
}

func TestTokenLifecycleManager_RefreshExpiringBatch_Isolation(t *testing.T) {
	repo := newFakeIntegrationRepository(
		domain.Integration{
			BotID:          "bot-a",
			WorkspaceID:    "ws-a",
			RefreshToken:   "refresh-a",
			TokenExpiresAt: timePtr(testNow.Add(2 * time.Hour)),
		},
		domain.Integration{
			BotID:          "bot-b",
			WorkspaceID:    "ws-b",
			RefreshToken:   "refresh-b",
			TokenExpiresAt: timePtr(testNow.Add(-time.Hour)),
		},
		domain.Integration{
			BotID:        "bot-c",
			WorkspaceID:  "ws-c",
			RefreshToken: "refresh-c",
		},
		domain.Integration{
			BotID:          "bot-fresh",
			WorkspaceID:    "ws-fresh",
			RefreshToken:   "refresh-fresh",
			TokenExpiresAt: timePtr(testNow.Add(72 * time.Hour)),
		},
	)
	exchanger := &fakeExchanger{
		bundles: map[string]domain.TokenBundle{
			"refresh-a": {AccessToken: "a2", RefreshToken: "a2r"},
			"refresh-c": {AccessToken: "c2", RefreshToken: "c2r"},
		},
		errs: map[string]error{
			"refresh-b": domain.NewAuthenticationError("upstream rejected refresh"),
		},
	}
	manager := newLifecycleManager(repo, exchanger)

	result, err := manager.RefreshExpiringBatch(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, result.Total, result.Success+result.Failed)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bot-b", result.Errors[0].BotID)
	assert.Equal(t, "ws-b", result.Errors[0].WorkspaceID)
	assert.Equal(t, "upstream rejected refresh", result.Errors[0].Error)
	assert.Equal(t, testNow, result.Errors[0].Timestamp)

	// Soonest-expiring first: nil expiry, then the already-expired one,
	// then the one expiring in two hours.
	assert.Equal(t, []string{"refresh-c", "refresh-b", "refresh-a"}, exchanger.refreshCalls)

	// The failed credential keeps its stale tokens and stays eligible
	// for the next scheduled run.
	stale, getErr := repo.GetIntegrationByBotID(context.Background(), "bot-b")
	require.NoError(t, getErr)
	assert.Equal(t, "refresh-b", stale.RefreshToken)
	assert.True(t, manager.IsExpired(stale))
}

func TestTokenLifecycleManager_RefreshExpiringBatch_Empty(t *testing.T) {
	manager := newLifecycleManager(newFakeIntegrationRepository(), &fakeExchanger{})

	result, err := manager.RefreshExpiringBatch(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, domain.RefreshResult{}, result)
}
