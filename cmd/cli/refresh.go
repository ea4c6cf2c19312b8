package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papersync/papersync/internal/config"
)

func NewRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh expiring tokens once and exit",
		Long: `Run one bulk token refresh over every integration that is expired or close
to expiring, then exit. Exits non-zero when any refresh fails so an external
scheduler can alert on it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh()
		},
	}
}

func runRefresh() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	applyLogLevel(cfg.LogLevel)

	deps, err := BuildAppDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	result, err := deps.Scheduler.RunTokenRefresh(ctx)
	if err != nil {
		return err
	}

	if result.Failed > 0 {
		return fmt.Errorf("token refresh completed with %d failure(s) out of %d", result.Failed, result.Total)
	}

	return nil
}
