package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/papersync/papersync/internal/config"
	"github.com/papersync/papersync/internal/server"
	"github.com/papersync/papersync/internal/storage/postgres"
)

func NewStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the sync service",
		Long:  `Start the HTTP server and the scheduled token refresh job.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	}
}

func runStart() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	applyLogLevel(cfg.LogLevel)

	log.Info().Msg("Starting papersync service")

	deps, err := BuildAppDependencies(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build dependencies")
	}
	defer deps.Close()

	if err := postgres.Migrate(ctx, deps.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	if err := deps.Scheduler.Start(cfg.RefreshCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to start token refresh scheduler")
	}

	app := server.NewHTTPServer(ctx, server.HTTPServerDependencies{
		Controller: deps.Controller,
	})

	log.Info().Str("address", cfg.HTTPAddress).Msg("Starting HTTP server")

	if err := app.Listen(cfg.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	// Let an in-flight refresh run finish before exiting.
	<-deps.Scheduler.Stop().Done()

	log.Info().Msg("Service stopped")
	return nil
}

func applyLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown log level, using info")
		parsed = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(parsed)
}
