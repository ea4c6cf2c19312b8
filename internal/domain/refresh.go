package domain

import "time"

// RefreshResult summarizes one bulk refresh run. Per-item failures are
// collected here instead of aborting the batch; a failed credential
// still satisfies the expiring predicate and is picked up again on the
// next scheduled run.
type RefreshResult struct {
	Total   int              `json:"total"`
	Success int              `json:"success"`
	Failed  int              `json:"failed"`
	Errors  []RefreshFailure `json:"errors,omitempty"`
}

type RefreshFailure struct {
	BotID       string    `json:"bot_id"`
	WorkspaceID string    `json:"workspace_id"`
	Error       string    `json:"error"`
	Timestamp   time.Time `json:"timestamp"`
}
