package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/papersync/papersync/internal/config"
	"github.com/papersync/papersync/internal/controllers"
	"github.com/papersync/papersync/internal/managers"
	"github.com/papersync/papersync/internal/scheduler"
	"github.com/papersync/papersync/internal/storage/postgres"
	"github.com/papersync/papersync/internal/storage/redisstate"
	"github.com/papersync/papersync/pkg/clients/arxiv"
	"github.com/papersync/papersync/pkg/clients/notion"
)

// AppDependencies is everything a command needs, wired once.
type AppDependencies struct {
	Config     *config.Config
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Lifecycle  *managers.TokenLifecycleManager
	OAuth      *managers.OAuthManager
	Pipeline   *managers.WebhookPipeline
	Controller *controllers.HTTPController
	Scheduler  *scheduler.Scheduler
}

func BuildAppDependencies(ctx context.Context, cfg *config.Config) (*AppDependencies, error) {
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	notionClient := notion.NewClient(notion.ClientDependencies{
		ClientID:     cfg.NotionClientID,
		ClientSecret: cfg.NotionClientSecret,
		RedirectURI:  cfg.RedirectURI(),
		HTTPClient:   &http.Client{Timeout: cfg.NotionTimeout},
	})

	arxivClient := arxiv.NewClient(arxiv.WithTimeout(cfg.ArxivTimeout))

	workspaceRepository := postgres.NewWorkspaceRepository(pool)
	integrationRepository := postgres.NewIntegrationRepository(pool)
	stateStore := redisstate.NewStateStore(redisstate.StateStoreDependencies{
		Client: redisClient,
	})

	lifecycle := managers.NewTokenLifecycleManager(managers.TokenLifecycleManagerDependencies{
		IntegrationRepository: integrationRepository,
		OAuthExchanger:        notionClient,
	})

	oauthManager := managers.NewOAuthManager(managers.OAuthManagerDependencies{
		StateStore:            stateStore,
		Authorizer:            notionClient,
		Exchanger:             notionClient,
		WorkspaceRepository:   workspaceRepository,
		IntegrationRepository: integrationRepository,
		NotionClient:          notionClient,
	})

	pipeline := managers.NewWebhookPipeline(managers.WebhookPipelineDependencies{
		IntegrationRepository: integrationRepository,
		TokenLifecycleManager: lifecycle,
		PaperFetcher:          arxivClient,
		NotionClient:          notionClient,
	})

	controller := controllers.NewHTTPController(controllers.HTTPControllerDependencies{
		OAuthManager:          oauthManager,
		WebhookPipeline:       pipeline,
		TokenLifecycleManager: lifecycle,
		BaseURL:               cfg.BaseURL,
	})

	refreshScheduler := scheduler.NewScheduler(scheduler.SchedulerDependencies{
		TokenLifecycleManager: lifecycle,
		ThresholdHours:        cfg.RefreshThresholdHours,
	})

	return &AppDependencies{
		Config:     cfg,
		Pool:       pool,
		Redis:      redisClient,
		Lifecycle:  lifecycle,
		OAuth:      oauthManager,
		Pipeline:   pipeline,
		Controller: controller,
		Scheduler:  refreshScheduler,
	}, nil
}

func (d *AppDependencies) Close() {
	d.Pool.Close()

	if err := d.Redis.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close redis client")
	}
}
