package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papersync/papersync/internal/domain"
)

type IntegrationRepository struct {
	pool *pgxpool.Pool
}

func NewIntegrationRepository(pool *pgxpool.Pool) *IntegrationRepository {
	return &IntegrationRepository{pool: pool}
}

var _ domain.IntegrationRepository = (*IntegrationRepository)(nil)

const integrationColumns = `bot_id, workspace_id, access_token, refresh_token, token_expires_at, database_id, parent_page_id, created_at, updated_at`

// UpsertIntegration inserts the integration or, when the bot identity
// is already known, replaces its tokens and database pointers in place.
func (r *IntegrationRepository) UpsertIntegration(ctx context.Context, integration domain.Integration) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO integrations (bot_id, workspace_id, access_token, refresh_token, token_expires_at, database_id, parent_page_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), now())
		ON CONFLICT (bot_id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			database_id = EXCLUDED.database_id,
			parent_page_id = EXCLUDED.parent_page_id,
			updated_at = now()`,
		integration.BotID, integration.WorkspaceID, integration.AccessToken, integration.RefreshToken,
		integration.TokenExpiresAt, integration.DatabaseID, integration.ParentPageID,
	)
	if err != nil {
		return domain.NewDatabaseError("failed to upsert integration: %v", err)
	}

	return nil
}

func (r *IntegrationRepository) GetIntegrationByBotID(ctx context.Context, botID string) (domain.Integration, error) {
	return r.getIntegration(ctx, `SELECT `+integrationColumns+` FROM integrations WHERE bot_id = $1`, botID)
}

func (r *IntegrationRepository) GetIntegrationByWorkspaceID(ctx context.Context, workspaceID string) (domain.Integration, error) {
	return r.getIntegration(ctx, `SELECT `+integrationColumns+` FROM integrations WHERE workspace_id = $1 ORDER BY created_at LIMIT 1`, workspaceID)
}

func (r *IntegrationRepository) GetIntegrationByDatabaseID(ctx context.Context, databaseID string) (domain.Integration, error) {
	return r.getIntegration(ctx, `SELECT `+integrationColumns+` FROM integrations WHERE database_id = $1`, databaseID)
}

// GetExpiringIntegrations lists integrations whose expiry is unset or
// at/before the deadline, soonest first. Rows without an expiry sort
// first since they are conservatively treated as already expired.
func (r *IntegrationRepository) GetExpiringIntegrations(ctx context.Context, deadline time.Time) ([]domain.Integration, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+integrationColumns+`
		FROM integrations
		WHERE token_expires_at IS NULL OR token_expires_at <= $1
		ORDER BY token_expires_at ASC NULLS FIRST`,
		deadline,
	)
	if err != nil {
		return nil, domain.NewDatabaseError("failed to query expiring integrations: %v", err)
	}
	defer rows.Close()

	var integrations []domain.Integration
	for rows.Next() {
		integration, err := scanIntegration(rows)
		if err != nil {
			return nil, domain.NewDatabaseError("failed to scan integration: %v", err)
		}
		integrations = append(integrations, integration)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewDatabaseError("failed to read expiring integrations: %v", err)
	}

	return integrations, nil
}

// UpdateIntegrationTokens replaces the token triple in a single UPDATE
// so no reader ever observes a new access token with a stale expiry.
func (r *IntegrationRepository) UpdateIntegrationTokens(ctx context.Context, botID string, params domain.UpdateTokensParams) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE integrations
		SET access_token = $2, refresh_token = $3, token_expires_at = $4, updated_at = now()
		WHERE bot_id = $1`,
		botID, params.AccessToken, params.RefreshToken, params.TokenExpiresAt,
	)
	if err != nil {
		return domain.NewDatabaseError("failed to update integration tokens: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("integration not found: %s", botID)
	}

	return nil
}

func (r *IntegrationRepository) DeleteIntegration(ctx context.Context, botID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM integrations WHERE bot_id = $1`, botID)
	if err != nil {
		return domain.NewDatabaseError("failed to delete integration: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewNotFoundError("integration not found: %s", botID)
	}

	return nil
}

func (r *IntegrationRepository) getIntegration(ctx context.Context, query string, arg any) (domain.Integration, error) {
	row := r.pool.QueryRow(ctx, query, arg)

	integration, err := scanIntegration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Integration{}, domain.NewNotFoundError("integration not found")
		}
		return domain.Integration{}, domain.NewDatabaseError("failed to get integration: %v", err)
	}

	return integration, nil
}

func scanIntegration(row pgx.Row) (domain.Integration, error) {
	var (
		integration  domain.Integration
		databaseID   *string
		parentPageID *string
	)

	err := row.Scan(
		&integration.BotID,
		&integration.WorkspaceID,
		&integration.AccessToken,
		&integration.RefreshToken,
		&integration.TokenExpiresAt,
		&databaseID,
		&parentPageID,
		&integration.CreatedAt,
		&integration.UpdatedAt,
	)
	if err != nil {
		return domain.Integration{}, err
	}

	if databaseID != nil {
		integration.DatabaseID = *databaseID
	}
	if parentPageID != nil {
		integration.ParentPageID = *parentPageID
	}

	return integration, nil
}
