package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/util"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const recurringColumns = `id, workspace_id, account_id, category_id, amount, description, type, frequency, next_run_date, is_active, created_at, updated_at`

// RecurringRepository implements domain.RecurringRepository using PostgreSQL
type RecurringRepository struct {
	q querier
}

func (r *RecurringRepository) Create(ctx context.Context, d *domain.RecurringDefinition) (*domain.RecurringDefinition, error) {
	amount, err := decimalToPgNumeric(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO recurring_definitions
			(workspace_id, account_id, category_id, amount, description, type, frequency, next_run_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+recurringColumns,
		d.WorkspaceID, d.AccountID, d.CategoryID, amount, d.Description, string(d.Type), string(d.Frequency),
		timeToPgDate(d.NextRunDate), d.IsActive)
	return scanRecurring(row)
}

func (r *RecurringRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.RecurringDefinition, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+recurringColumns+` FROM recurring_definitions
		WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	return scanRecurring(row)
}

func (r *RecurringRepository) ListByWorkspace(ctx context.Context, workspaceID int32, activeOnly bool) ([]*domain.RecurringDefinition, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+recurringColumns+` FROM recurring_definitions
		WHERE workspace_id = $1 AND (NOT $2 OR is_active)
		ORDER BY next_run_date, id`, workspaceID, activeOnly)
	if err != nil {
		return nil, mapError(err)
	}
	return collectRecurring(rows)
}

func (r *RecurringRepository) Update(ctx context.Context, d *domain.RecurringDefinition) (*domain.RecurringDefinition, error) {
	amount, err := decimalToPgNumeric(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		UPDATE recurring_definitions
		SET account_id = $3, category_id = $4, amount = $5, description = $6, type = $7,
			frequency = $8, next_run_date = $9, is_active = $10, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+recurringColumns,
		d.WorkspaceID, d.ID, d.AccountID, d.CategoryID, amount, d.Description, string(d.Type),
		string(d.Frequency), timeToPgDate(d.NextRunDate), d.IsActive)
	return scanRecurring(row)
}

func (r *RecurringRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM recurring_definitions WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecurringNotFound
	}
	return nil
}

// ListDue reads due definitions of all workspaces without locking them
func (r *RecurringRepository) ListDue(ctx context.Context, now time.Time) ([]*domain.RecurringDefinition, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+recurringColumns+` FROM recurring_definitions
		WHERE is_active AND next_run_date <= $1
		ORDER BY next_run_date, id`, timeToPgDate(util.DateOf(now)))
	if err != nil {
		return nil, mapError(err)
	}
	return collectRecurring(rows)
}

// ClaimDue locks the definition row with FOR UPDATE. A concurrent claimer blocks
// until this transaction ends and then sees the advanced date.
func (r *RecurringRepository) ClaimDue(ctx context.Context, id int32, now time.Time) (*domain.RecurringDefinition, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+recurringColumns+` FROM recurring_definitions
		WHERE id = $1
		FOR UPDATE`, id)
	def, err := scanRecurring(row)
	if err != nil {
		return nil, err
	}
	if !def.IsDue(now) {
		return nil, domain.ErrNotDue
	}
	return def, nil
}

func (r *RecurringRepository) AdvanceNextRun(ctx context.Context, id int32, from, to time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE recurring_definitions SET next_run_date = $3, updated_at = NOW()
		WHERE id = $1 AND next_run_date = $2`,
		id, timeToPgDate(from), timeToPgDate(to))
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdateConflict
	}
	return nil
}

func collectRecurring(rows pgx.Rows) ([]*domain.RecurringDefinition, error) {
	defer rows.Close()

	result := []*domain.RecurringDefinition{}
	for rows.Next() {
		d, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, mapError(rows.Err())
}

func scanRecurring(row rowScanner) (*domain.RecurringDefinition, error) {
	var (
		d         domain.RecurringDefinition
		amount    pgtype.Numeric
		txType    string
		frequency string
		nextRun   pgtype.Date
	)
	err := row.Scan(&d.ID, &d.WorkspaceID, &d.AccountID, &d.CategoryID, &amount, &d.Description,
		&txType, &frequency, &nextRun, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecurringNotFound
		}
		return nil, mapError(err)
	}

	d.Amount = pgNumericToDecimal(amount)
	d.Type = domain.TransactionType(txType)
	d.Frequency = domain.Frequency(frequency)
	d.NextRunDate = pgDateToTime(nextRun)
	return &d, nil
}
