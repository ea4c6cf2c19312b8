package managers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/papersync/papersync/internal/domain"
	"github.com/papersync/papersync/pkg/clients/arxiv"
)

// WebhookPipeline processes one Notion automation event end to end:
// validate, resolve the credential, ensure token freshness, fetch the
// paper, and write it back. Steps run strictly in order and no step is
// retried; redelivery belongs to the automation platform.
type WebhookPipeline struct {
	integrations domain.IntegrationRepository
	lifecycle    *TokenLifecycleManager
	papers       domain.PaperFetcher
	notion       domain.NotionWorkspaceClient
	clock        domain.Clock
}

type WebhookPipelineDependencies struct {
	IntegrationRepository domain.IntegrationRepository
	TokenLifecycleManager *TokenLifecycleManager
	PaperFetcher          domain.PaperFetcher
	NotionClient          domain.NotionWorkspaceClient
	Clock                 domain.Clock
}

func NewWebhookPipeline(deps WebhookPipelineDependencies) *WebhookPipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	return &WebhookPipeline{
		integrations: deps.IntegrationRepository,
		lifecycle:    deps.TokenLifecycleManager,
		papers:       deps.PaperFetcher,
		notion:       deps.NotionClient,
		clock:        clock,
	}
}

func (p *WebhookPipeline) Process(ctx context.Context, payload domain.AutomationPayload) (domain.WebhookResult, error) {
	if payload.Source == nil || payload.Source.Type != "automation" ||
		payload.Data == nil || payload.Data.Object != "page" {
		return domain.WebhookResult{}, domain.NewValidationError("invalid Notion automation payload")
	}

	pageID := payload.Data.ID
	databaseID := payload.Data.Parent.DatabaseID
	if pageID == "" || databaseID == "" {
		return domain.WebhookResult{}, domain.NewValidationError("invalid Notion automation payload")
	}

	paperURL := payload.Data.Properties["Link"].URL
	if paperURL == "" {
		return domain.WebhookResult{}, domain.NewValidationError("Link property is empty")
	}

	if !arxiv.ValidateURL(paperURL) {
		return domain.WebhookResult{}, domain.NewValidationError("invalid ArXiv URL: %s", paperURL)
	}

	integration, err := p.integrations.GetIntegrationByDatabaseID(ctx, databaseID)
	if err != nil {
		if domain.IsKind(err, domain.ErrorKindNotFound) {
			return domain.WebhookResult{}, domain.NewNotFoundError("integration not found for this database")
		}
		return domain.WebhookResult{}, err
	}

	if p.lifecycle.IsExpired(integration) {
		log.Info().
			Str("bot_id", integration.BotID).
			Str("page_id", pageID).
			Msg("Access token expired, refreshing before processing")

		if err := p.lifecycle.RefreshOne(ctx, integration.BotID); err != nil {
			return domain.WebhookResult{}, err
		}

		// Reload rather than reuse the pre-refresh token held in memory.
		integration, err = p.integrations.GetIntegrationByBotID(ctx, integration.BotID)
		if err != nil {
			if domain.IsKind(err, domain.ErrorKindNotFound) {
				return domain.WebhookResult{}, domain.NewNotFoundError("integration not found after refresh")
			}
			return domain.WebhookResult{}, err
		}
	}

	paper, err := p.papers.FetchByURL(ctx, paperURL)
	if err != nil {
		return domain.WebhookResult{}, err
	}

	if err := p.notion.UpdatePaperPage(ctx, integration.AccessToken, pageID, paper); err != nil {
		return domain.WebhookResult{}, err
	}

	log.Info().
		Str("page_id", pageID).
		Str("database_id", databaseID).
		Str("paper_title", paper.Title).
		Msg("Paper metadata written to page")

	return domain.WebhookResult{
		Success:   true,
		PageID:    pageID,
		UpdatedAt: p.clock().UTC(),
	}, nil
}
