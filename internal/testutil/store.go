package testutil

import (
	"context"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Hooks inject failures into a FaultyStore. A hook that returns a non-nil error
// short-circuits the wrapped call with that error.
type Hooks struct {
	AdjustBalanceFn     func(workspaceID int32, accountID int32, delta decimal.Decimal) error
	CreateTransactionFn func(transaction *domain.Transaction) error
	UpdateTransactionFn func(transaction *domain.Transaction) error
	DeleteTransactionFn func(workspaceID int32, id int32) error
	SumByAccountFn      func(workspaceID int32, accountID int32) error
	AdvanceNextRunFn    func(id int32, from, to time.Time) error
	ListDueFn           func(now time.Time) ([]*domain.RecurringDefinition, error)
}

// FaultyStore wraps a domain.Store and consults Hooks before delegating
type FaultyStore struct {
	domain.Store
	Hooks *Hooks
}

// NewFaultyStore wraps store with an empty set of hooks
func NewFaultyStore(store domain.Store) *FaultyStore {
	return &FaultyStore{Store: store, Hooks: &Hooks{}}
}

// WithTx keeps the hooks active for repositories obtained inside the transaction
func (f *FaultyStore) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return f.Store.WithTx(ctx, func(tx domain.Store) error {
		return fn(&FaultyStore{Store: tx, Hooks: f.Hooks})
	})
}

func (f *FaultyStore) Accounts() domain.AccountRepository {
	return &faultyAccounts{AccountRepository: f.Store.Accounts(), hooks: f.Hooks}
}

func (f *FaultyStore) Transactions() domain.TransactionRepository {
	return &faultyTransactions{TransactionRepository: f.Store.Transactions(), hooks: f.Hooks}
}

func (f *FaultyStore) Recurring() domain.RecurringRepository {
	return &faultyRecurring{RecurringRepository: f.Store.Recurring(), hooks: f.Hooks}
}

type faultyAccounts struct {
	domain.AccountRepository
	hooks *Hooks
}

func (r *faultyAccounts) AdjustBalance(ctx context.Context, workspaceID int32, id int32, delta decimal.Decimal) (*domain.Account, error) {
	if r.hooks.AdjustBalanceFn != nil {
		if err := r.hooks.AdjustBalanceFn(workspaceID, id, delta); err != nil {
			return nil, err
		}
	}
	return r.AccountRepository.AdjustBalance(ctx, workspaceID, id, delta)
}

type faultyTransactions struct {
	domain.TransactionRepository
	hooks *Hooks
}

func (r *faultyTransactions) Create(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	if r.hooks.CreateTransactionFn != nil {
		if err := r.hooks.CreateTransactionFn(transaction); err != nil {
			return nil, err
		}
	}
	return r.TransactionRepository.Create(ctx, transaction)
}

func (r *faultyTransactions) Update(ctx context.Context, transaction *domain.Transaction) (*domain.Transaction, error) {
	if r.hooks.UpdateTransactionFn != nil {
		if err := r.hooks.UpdateTransactionFn(transaction); err != nil {
			return nil, err
		}
	}
	return r.TransactionRepository.Update(ctx, transaction)
}

func (r *faultyTransactions) Delete(ctx context.Context, workspaceID int32, id int32) error {
	if r.hooks.DeleteTransactionFn != nil {
		if err := r.hooks.DeleteTransactionFn(workspaceID, id); err != nil {
			return err
		}
	}
	return r.TransactionRepository.Delete(ctx, workspaceID, id)
}

func (r *faultyTransactions) SumByAccount(ctx context.Context, workspaceID int32, accountID int32) (*domain.AccountTotals, error) {
	if r.hooks.SumByAccountFn != nil {
		if err := r.hooks.SumByAccountFn(workspaceID, accountID); err != nil {
			return nil, err
		}
	}
	return r.TransactionRepository.SumByAccount(ctx, workspaceID, accountID)
}

type faultyRecurring struct {
	domain.RecurringRepository
	hooks *Hooks
}

func (r *faultyRecurring) ListDue(ctx context.Context, now time.Time) ([]*domain.RecurringDefinition, error) {
	if r.hooks.ListDueFn != nil {
		return r.hooks.ListDueFn(now)
	}
	return r.RecurringRepository.ListDue(ctx, now)
}

func (r *faultyRecurring) AdvanceNextRun(ctx context.Context, id int32, from, to time.Time) error {
	if r.hooks.AdvanceNextRunFn != nil {
		if err := r.hooks.AdvanceNextRunFn(id, from, to); err != nil {
			return err
		}
	}
	return r.RecurringRepository.AdvanceNextRun(ctx, id, from, to)
}
