package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/jackc/pgx/v5"
)

const workspaceColumns = `id, auth0_id, name, created_at, updated_at`

// WorkspaceRepository implements domain.WorkspaceRepository using PostgreSQL
type WorkspaceRepository struct {
	q querier
}

func (r *WorkspaceRepository) GetByID(ctx context.Context, id int32) (*domain.Workspace, error) {
	return scanWorkspace(r.q.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
}

func (r *WorkspaceRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	return scanWorkspace(r.q.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE auth0_id = $1`, auth0ID))
}

// CreateOrGetByAuth0ID returns the existing workspace for auth0ID or creates it. The
// no-op update makes RETURNING yield the row on conflict too.
func (r *WorkspaceRepository) CreateOrGetByAuth0ID(ctx context.Context, auth0ID, name string) (*domain.Workspace, error) {
	return scanWorkspace(r.q.QueryRow(ctx, `
		INSERT INTO workspaces (auth0_id, name) VALUES ($1, $2)
		ON CONFLICT (auth0_id) DO UPDATE SET auth0_id = EXCLUDED.auth0_id
		RETURNING `+workspaceColumns, auth0ID, name))
}

func scanWorkspace(row rowScanner) (*domain.Workspace, error) {
	var w domain.Workspace
	if err := row.Scan(&w.ID, &w.Auth0ID, &w.Name, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, mapError(err)
	}
	return &w, nil
}
