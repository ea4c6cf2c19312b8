package managers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/papersync/papersync/internal/domain"
)

func fixedClock(t time.Time) domain.Clock {
	return func() time.Time { return t }
}

type tokenUpdate struct {
	botID  string
	params domain.UpdateTokensParams
}

type fakeIntegrationRepository struct {
	byBot   map[string]domain.Integration
	updates []tokenUpdate
	upserts []domain.Integration
}

func newFakeIntegrationRepository(integrations ...domain.Integration) *fakeIntegrationRepository {
	repo := &fakeIntegrationRepository{byBot: make(map[string]domain.Integration)}
	for _, integration := range integrations {
		repo.byBot[integration.BotID] = integration
	}
	return repo
}

func (r *fakeIntegrationRepository) UpsertIntegration(_ context.Context, integration domain.Integration) error {
	r.byBot[integration.BotID] = integration
	r.upserts = append(r.upserts, integration)
	return nil
}

func (r *fakeIntegrationRepository) GetIntegrationByBotID(_ context.Context, botID string) (domain.Integration, error) {
	integration, ok := r.byBot[botID]
	if !ok {
		return domain.Integration{}, domain.NewNotFoundError("integration not found")
	}
	return integration, nil
}

func (r *fakeIntegrationRepository) GetIntegrationByWorkspaceID(_ context.Context, workspaceID string) (domain.Integration, error) {
	for _, integration := range r.byBot {
		if integration.WorkspaceID == workspaceID {
			return integration, nil
		}
	}
	return domain.Integration{}, domain.NewNotFoundError("integration not found")
}

func (r *fakeIntegrationRepository) GetIntegrationByDatabaseID(_ context.Context, databaseID string) (domain.Integration, error) {
	for _, integration := range r.byBot {
		if integration.DatabaseID == databaseID {
			return integration, nil
		}
	}
	return domain.Integration{}, domain.NewNotFoundError("integration not found")
}

func (r *fakeIntegrationRepository) GetExpiringIntegrations(_ context.Context, deadline time.Time) ([]domain.Integration, error) {
	var expiring []domain.Integration
	for _, integration := range r.byBot {
		if integration.TokenExpiresAt == nil || !integration.TokenExpiresAt.After(deadline) {
			expiring = append(expiring, integration)
		}
	}

	sort.Slice(expiring, func(i, j int) bool {
		a, b := expiring[i].TokenExpiresAt, expiring[j].TokenExpiresAt
		if a == nil {
			return true
		}
		if b == nil {
			return false
		}
		return a.Before(*b)
	})

	return expiring, nil
}

func (r *fakeIntegrationRepository) UpdateIntegrationTokens(_ context.Context, botID string, params domain.UpdateTokensParams) error {
	integration, ok := r.byBot[botID]
	if !ok {
		return domain.NewNotFoundError("integration not found: %s", botID)
	}

	expiresAt := params.TokenExpiresAt
	integration.AccessToken = params.AccessToken
	integration.RefreshToken = params.RefreshToken
	integration.TokenExpiresAt = &expiresAt
	r.byBot[botID] = integration

	r.updates = append(r.updates, tokenUpdate{botID: botID, params: params})
	return nil
}

func (r *fakeIntegrationRepository) DeleteIntegration(_ context.Context, botID string) error {
	if _, ok := r.byBot[botID]; !ok {
		return domain.NewNotFoundError("integration not found: %s", botID)
	}
	delete(r.byBot, botID)
	return nil
}

type fakeExchanger struct {
	bundles      map[string]domain.TokenBundle
	errs         map[string]error
	refreshCalls []string

	exchangeBundle domain.TokenBundle
	exchangeErr    error
	exchangeCalls  []string
}

func (e *fakeExchanger) ExchangeCode(_ context.Context, code string) (domain.TokenBundle, error) {
	e.exchangeCalls = append(e.exchangeCalls, code)
	if e.exchangeErr != nil {
		return domain.TokenBundle{}, e.exchangeErr
	}
	return e.exchangeBundle, nil
}

func (e *fakeExchanger) RefreshToken(_ context.Context, refreshToken string) (domain.TokenBundle, error) {
	e.refreshCalls = append(e.refreshCalls, refreshToken)
	if err, ok := e.errs[refreshToken]; ok {
		return domain.TokenBundle{}, err
	}
	if bundle, ok := e.bundles[refreshToken]; ok {
		return bundle, nil
	}
	return domain.TokenBundle{}, domain.NewAuthenticationError("unknown refresh token")
}

type fakeStateStore struct {
	states   map[string]domain.OAuthState
	issued   int
	issueErr error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: make(map[string]domain.OAuthState)}
}

func (s *fakeStateStore) Issue(_ context.Context) (string, error) {
	if s.issueErr != nil {
		return "", s.issueErr
	}
	s.issued++
	nonce := fmt.Sprintf("nonce-%d", s.issued)
	s.states[nonce] = domain.OAuthState{CreatedAt: time.Now()}
	return nonce, nil
}

func (s *fakeStateStore) Consume(_ context.Context, nonce string) (domain.OAuthState, error) {
	state, ok := s.states[nonce]
	if !ok {
		return domain.OAuthState{}, domain.NewAuthorizationError("invalid or expired state")
	}
	delete(s.states, nonce)
	return state, nil
}

type provisionCall struct {
	accessToken        string
	existingDatabaseID string
}

type pageUpdate struct {
	accessToken string
	pageID      string
	paper       domain.Paper
}

type fakeNotionClient struct {
	provisioned    domain.ProvisionedDatabase
	provisionErr   error
	provisionCalls []provisionCall

	updateErr   error
	pageUpdates []pageUpdate
}

func (c *fakeNotionClient) AuthorizeURL(state string) string {
	return "https://notion.example/authorize?state=" + state
}

func (c *fakeNotionClient) ProvisionDatabase(_ context.Context, accessToken, existingDatabaseID string) (domain.ProvisionedDatabase, error) {
	c.provisionCalls = append(c.provisionCalls, provisionCall{accessToken: accessToken, existingDatabaseID: existingDatabaseID})
	if c.provisionErr != nil {
		return domain.ProvisionedDatabase{}, c.provisionErr
	}
	if existingDatabaseID != "" {
		return domain.ProvisionedDatabase{DatabaseID: existingDatabaseID}, nil
	}
	return c.provisioned, nil
}

func (c *fakeNotionClient) UpdatePaperPage(_ context.Context, accessToken, pageID string, paper domain.Paper) error {
	c.pageUpdates = append(c.pageUpdates, pageUpdate{accessToken: accessToken, pageID: pageID, paper: paper})
	return c.updateErr
}

type fakePaperFetcher struct {
	paper domain.Paper
	err   error
	calls []string
}

func (f *fakePaperFetcher) FetchByURL(_ context.Context, paperURL string) (domain.Paper, error) {
	f.calls = append(f.calls, paperURL)
	if f.err != nil {
		return domain.Paper{}, f.err
	}
	return f.paper, nil
}

type fakeWorkspaceRepository struct {
	upserts []domain.Workspace
}

func (r *fakeWorkspaceRepository) UpsertWorkspace(_ context.Context, workspace domain.Workspace) error {
	r.upserts = append(r.upserts, workspace)
	return nil
}
