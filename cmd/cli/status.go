package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/papersync/papersync/internal/config"
	"github.com/papersync/papersync/internal/storage/postgres"
	"github.com/papersync/papersync/internal/version"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and store connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fmt.Printf("papersync %s\n\n", version.GetVersion())

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Configuration: INVALID (%v)\n", err)
		return nil
	}

	fmt.Println("Configuration: OK")
	fmt.Printf("  Base URL:     %s\n", cfg.BaseURL)
	fmt.Printf("  HTTP address: %s\n", cfg.HTTPAddress)
	fmt.Printf("  Refresh cron: %s (threshold %dh)\n", cfg.RefreshCron, cfg.RefreshThresholdHours)

	if pool, err := postgres.Connect(ctx, cfg.PostgresDSN); err != nil {
		fmt.Printf("Postgres:      UNREACHABLE (%v)\n", err)
	} else {
		fmt.Println("Postgres:      OK")
		pool.Close()
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("Redis:         UNREACHABLE (%v)\n", err)
	} else {
		fmt.Println("Redis:         OK")
	}

	return nil
}
