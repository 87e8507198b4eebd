package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const budgetColumns = `id, workspace_id, category_id, amount, year, month, created_at, updated_at`

// BudgetRepository implements domain.BudgetRepository using PostgreSQL
type BudgetRepository struct {
	q querier
}

func (r *BudgetRepository) Upsert(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	amount, err := decimalToPgNumeric(b.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO budgets (workspace_id, category_id, amount, year, month)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workspace_id, category_id, year, month)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()
		RETURNING `+budgetColumns,
		b.WorkspaceID, b.CategoryID, amount, b.Year, b.Month)
	return scanBudget(row)
}

func (r *BudgetRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Budget, error) {
	row := r.q.QueryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanBudget(row)
}

func (r *BudgetRepository) ListByPeriod(ctx context.Context, workspaceID int32, year, month int) ([]*domain.Budget, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE workspace_id = $1 AND year = $2 AND month = $3
		ORDER BY category_id`, workspaceID, year, month)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	budgets := []*domain.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, mapError(rows.Err())
}

func (r *BudgetRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM budgets WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}

func scanBudget(row rowScanner) (*domain.Budget, error) {
	var (
		b           domain.Budget
		amount      pgtype.Numeric
		year, month int32
	)
	if err := row.Scan(&b.ID, &b.WorkspaceID, &b.CategoryID, &amount, &year, &month, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBudgetNotFound
		}
		return nil, mapError(err)
	}
	b.Amount = pgNumericToDecimal(amount)
	b.Year = int(year)
	b.Month = int(month)
	return &b, nil
}
