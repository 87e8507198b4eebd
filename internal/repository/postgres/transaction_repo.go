package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const transactionColumns = `id, workspace_id, account_id, category_id, amount, type, date, description, recurring_id, created_at, updated_at`

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	q querier
}

// Create inserts a transaction row. Balances are the ledger's concern.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO transactions (workspace_id, account_id, category_id, amount, type, date, description, recurring_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+transactionColumns,
		t.WorkspaceID, t.AccountID, t.CategoryID, amount, string(t.Type), timeToPgDate(t.Date), t.Description, t.RecurringID)
	return scanTransaction(row)
}

// GetByID retrieves a transaction within a workspace
func (r *TransactionRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Transaction, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id)
	return scanTransaction(row)
}

// GetByWorkspace returns one page of filtered transactions, newest first
func (r *TransactionRepository) GetByWorkspace(ctx context.Context, workspaceID int32, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	if filters == nil {
		filters = &domain.TransactionFilters{}
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	pageSize := filters.PageSize
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}
	if pageSize > domain.MaxPageSize {
		pageSize = domain.MaxPageSize
	}

	where, args := transactionFilterClause(workspaceID, filters)

	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, mapError(err)
	}

	args = append(args, pageSize, domain.PageOffset(page, pageSize))
	rows, err := r.q.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM transactions WHERE %s
		ORDER BY date DESC, id DESC
		LIMIT $%d OFFSET $%d`, transactionColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, mapError(err)
	}
	data, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}

	return &domain.PaginatedTransactions{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: int32((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

func transactionFilterClause(workspaceID int32, f *domain.TransactionFilters) (string, []any) {
	conds := []string{"workspace_id = $1"}
	args := []any{workspaceID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.AccountID != nil {
		add("account_id = $%d", *f.AccountID)
	}
	if f.CategoryID != nil {
		add("category_id = $%d", *f.CategoryID)
	}
	if f.Type != nil {
		add("type = $%d", string(*f.Type))
	}
	if f.StartDate != nil {
		add("date >= $%d", timeToPgDate(*f.StartDate))
	}
	if f.EndDate != nil {
		add("date <= $%d", timeToPgDate(*f.EndDate))
	}
	return strings.Join(conds, " AND "), args
}

// ListByDateRange returns every transaction dated within [startDate, endDate]
func (r *TransactionRepository) ListByDateRange(ctx context.Context, workspaceID int32, startDate, endDate time.Time) ([]*domain.Transaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE workspace_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC, id DESC`,
		workspaceID, timeToPgDate(startDate), timeToPgDate(endDate))
	if err != nil {
		return nil, mapError(err)
	}
	return collectTransactions(rows)
}

// Update overwrites the mutable fields. The recurring link is never changed.
func (r *TransactionRepository) Update(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(t.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		UPDATE transactions
		SET account_id = $3, category_id = $4, amount = $5, type = $6, date = $7, description = $8, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2
		RETURNING `+transactionColumns,
		t.WorkspaceID, t.ID, t.AccountID, t.CategoryID, amount, string(t.Type), timeToPgDate(t.Date), t.Description)
	return scanTransaction(row)
}

// Delete removes a transaction row
func (r *TransactionRepository) Delete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM transactions WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// SumByAccount totals income and expense over an account's transactions
func (r *TransactionRepository) SumByAccount(ctx context.Context, workspaceID int32, accountID int32) (*domain.AccountTotals, error) {
	var income, expense pgtype.Numeric
	err := r.q.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0)
		FROM transactions
		WHERE workspace_id = $1 AND account_id = $2`,
		workspaceID, accountID).Scan(&income, &expense)
	if err != nil {
		return nil, mapError(err)
	}
	return &domain.AccountTotals{
		AccountID:    accountID,
		TotalIncome:  pgNumericToDecimal(income),
		TotalExpense: pgNumericToDecimal(expense),
	}, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()

	result := []*domain.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, mapError(rows.Err())
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t       domain.Transaction
		amount  pgtype.Numeric
		txType  string
		date    pgtype.Date
		recurID pgtype.Int4
	)
	err := row.Scan(&t.ID, &t.WorkspaceID, &t.AccountID, &t.CategoryID, &amount, &txType, &date,
		&t.Description, &recurID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, mapError(err)
	}

	t.Amount = pgNumericToDecimal(amount)
	t.Type = domain.TransactionType(txType)
	t.Date = pgDateToTime(date)
	if recurID.Valid {
		id := recurID.Int32
		t.RecurringID = &id
	}
	return &t, nil
}
