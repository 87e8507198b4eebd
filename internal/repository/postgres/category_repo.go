package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/jackc/pgx/v5"
)

const categoryColumns = `id, workspace_id, name, type, created_at, updated_at`

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	q querier
}

func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	row := r.q.QueryRow(ctx, `
		INSERT INTO categories (workspace_id, name, type) VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		c.WorkspaceID, c.Name, string(c.Type))
	return scanCategory(row)
}

func (r *CategoryRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Category, error) {
	row := r.q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanCategory(row)
}

func (r *CategoryRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Category, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE workspace_id = $1
		ORDER BY type, name`, workspaceID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, mapError(rows.Err())
}

func (r *CategoryRepository) Update(ctx context.Context, workspaceID int32, id int32, name string) (*domain.Category, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE categories SET name = $3, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+categoryColumns,
		workspaceID, id, name)
	return scanCategory(row)
}

// Delete removes a category; its budgets go with it
func (r *CategoryRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM categories WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

// HasTransactions reports whether any transaction or recurring definition uses the category
func (r *CategoryRepository) HasTransactions(ctx context.Context, workspaceID int32, id int32) (bool, error) {
	var used bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE workspace_id = $1 AND category_id = $2)
			OR EXISTS (SELECT 1 FROM recurring_definitions WHERE workspace_id = $1 AND category_id = $2)`,
		workspaceID, id).Scan(&used)
	return used, mapError(err)
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		c      domain.Category
		catTyp string
	)
	if err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &catTyp, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, mapError(err)
	}
	c.Type = domain.TransactionType(catTyp)
	return &c, nil
}
