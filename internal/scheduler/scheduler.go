package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/papersync/papersync/internal/domain"
	"github.com/papersync/papersync/internal/managers"
)

const jobName = "token-refresh"

// Scheduler runs the periodic bulk token refresh.
type Scheduler struct {
	cron           *cron.Cron
	lifecycle      *managers.TokenLifecycleManager
	thresholdHours int
}

type SchedulerDependencies struct {
	TokenLifecycleManager *managers.TokenLifecycleManager
	ThresholdHours        int
}

func NewScheduler(deps SchedulerDependencies) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		lifecycle:      deps.TokenLifecycleManager,
		thresholdHours: deps.ThresholdHours,
	}
}

// Start registers the refresh job under the given cron expression and
// starts the cron runner.
func (s *Scheduler) Start(cronSpec string) error {
	if _, err := s.cron.AddFunc(cronSpec, func() {
		s.RunTokenRefresh(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule token refresh: %w", err)
	}

	s.cron.Start()

	log.Info().
		Str("cron", cronSpec).
		Int("threshold_hours", s.thresholdHours).
		Msg("Token refresh scheduler started")

	return nil
}

// Stop halts the cron runner; the returned context is done once any
// in-flight job finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunTokenRefresh executes one bulk refresh and logs the structured job
// summary. Returns the result so the one-shot CLI command can report
// failure to its own scheduler.
func (s *Scheduler) RunTokenRefresh(ctx context.Context) (domain.RefreshResult, error) {
	startTime := time.Now()

	log.Info().
		Str("job_name", jobName).
		Time("start_time", startTime).
		Msg("Token refresh job started")

	result, err := s.lifecycle.RefreshExpiringBatch(ctx, s.thresholdHours)

	endTime := time.Now()
	duration := endTime.Sub(startTime)

	if err != nil {
		log.Error().
			Err(err).
			Str("job_name", jobName).
			Time("start_time", startTime).
			Time("end_time", endTime).
			Dur("duration", duration).
			Bool("success", false).
			Msg("Token refresh job failed")

		return domain.RefreshResult{}, err
	}

	log.Info().
		Str("job_name", jobName).
		Time("start_time", startTime).
		Time("end_time", endTime).
		Dur("duration", duration).
		Bool("success", result.Failed == 0).
		Str("message", fmt.Sprintf("Total: %d, Success: %d, Failed: %d", result.Total, result.Success, result.Failed)).
		Msg("Token refresh job completed")

	for _, failure := range result.Errors {
		log.Error().
			Str("job_name", jobName).
			Str("bot_id", failure.BotID).
			Str("workspace_id", failure.WorkspaceID).
			Str("error", failure.Error).
			Time("timestamp", failure.Timestamp).
			Msg("Token refresh error")
	}

	return result, nil
}
