package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papersync/papersync/internal/domain"
)

type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

var _ domain.WorkspaceRepository = (*WorkspaceRepository)(nil)

// UpsertWorkspace inserts or updates the workspace row, so a user who
// re-authorizes the same workspace never produces a duplicate.
func (r *WorkspaceRepository) UpsertWorkspace(ctx context.Context, workspace domain.Workspace) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO workspaces (id, workspace_name, workspace_icon, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			workspace_name = EXCLUDED.workspace_name,
			workspace_icon = EXCLUDED.workspace_icon,
			updated_at = now()`,
		workspace.ID, workspace.WorkspaceName, workspace.WorkspaceIcon,
	)
	if err != nil {
		return domain.NewDatabaseError("failed to upsert workspace: %v", err)
	}

	return nil
}
