package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, workspace_id, name, account_type, initial_balance, balance, created_at, updated_at, deleted_at`

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	q querier
}

// Create inserts a new account
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	initialBalance, err := decimalToPgNumeric(account.InitialBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid initial balance: %w", err)
	}
	balance, err := decimalToPgNumeric(account.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO accounts (workspace_id, name, account_type, initial_balance, balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		account.WorkspaceID, account.Name, string(account.AccountType), initialBalance, balance)
	return scanAccount(row)
}

// GetByID retrieves a live account by its ID within a workspace
func (r *AccountRepository) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	return scanAccount(row)
}

// GetByIDForUpdate retrieves a live account and locks its row. Outside WithTx the
// lock is released as soon as the statement completes.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, workspaceID int32, id int32) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		FOR UPDATE`,
		workspaceID, id)
	return scanAccount(row)
}

// GetAllByWorkspace retrieves the accounts of a workspace ordered by name
func (r *AccountRepository) GetAllByWorkspace(ctx context.Context, workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE workspace_id = $1 AND ($2 OR deleted_at IS NULL)
		ORDER BY name, id`,
		workspaceID, includeArchived)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	accounts := []*domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, mapError(rows.Err())
}

// Update renames a live account
func (r *AccountRepository) Update(ctx context.Context, workspaceID int32, id int32, name string) (*domain.Account, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE accounts SET name = $3, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+accountColumns,
		workspaceID, id, name)
	return scanAccount(row)
}

// SoftDelete marks an account as deleted
func (r *AccountRepository) SoftDelete(ctx context.Context, workspaceID int32, id int32) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE accounts SET deleted_at = NOW(), updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL`,
		workspaceID, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// AdjustBalance increments the balance in place. Concurrent adjustments of the same
// row serialize on its row lock, so none is lost.
func (r *AccountRepository) AdjustBalance(ctx context.Context, workspaceID int32, id int32, delta decimal.Decimal) (*domain.Account, error) {
	amount, err := decimalToPgNumeric(delta)
	if err != nil {
		return nil, fmt.Errorf("invalid delta: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $3, updated_at = NOW()
		WHERE workspace_id = $1 AND id = $2 AND deleted_at IS NULL
		RETURNING `+accountColumns,
		workspaceID, id, amount)
	return scanAccount(row)
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a              domain.Account
		accountType    string
		initialBalance pgtype.Numeric
		balance        pgtype.Numeric
		deletedAt      pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &a.WorkspaceID, &a.Name, &accountType, &initialBalance, &balance,
		&a.CreatedAt, &a.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, mapError(err)
	}

	a.AccountType = domain.AccountType(accountType)
	a.InitialBalance = pgNumericToDecimal(initialBalance)
	a.Balance = pgNumericToDecimal(balance)
	if deletedAt.Valid {
		a.DeletedAt = &deletedAt.Time
	}
	return &a, nil
}
