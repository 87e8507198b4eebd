// Package postgres implements domain.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements domain.Store. A Store handed to a WithTx callback routes every
// query through the same pgx.Tx.
type Store struct {
	pool *pgxpool.Pool
	q    querier
	tx   pgx.Tx
}

// Ensure Store implements domain.Store
var _ domain.Store = (*Store)(nil)

// NewStore creates a Store backed by pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, q: pool}
}

func (s *Store) Accounts() domain.AccountRepository {
	return &AccountRepository{q: s.q}
}

func (s *Store) Transactions() domain.TransactionRepository {
	return &TransactionRepository{q: s.q}
}

func (s *Store) Categories() domain.CategoryRepository {
	return &CategoryRepository{q: s.q}
}

func (s *Store) Recurring() domain.RecurringRepository {
	return &RecurringRepository{q: s.q}
}

func (s *Store) Budgets() domain.BudgetRepository {
	return &BudgetRepository{q: s.q}
}

func (s *Store) Workspaces() domain.WorkspaceRepository {
	return &WorkspaceRepository{q: s.q}
}

// WithTx runs fn in a READ COMMITTED transaction. Row locks taken by
// RecurringRepository.ClaimDue and the in-place balance increments make that level
// sufficient.
func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapError(err))
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{pool: s.pool, q: tx, tx: tx}); err != nil {
		return mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}
