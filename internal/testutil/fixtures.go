package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Fixtures seeds a store with owned entities for tests
type Fixtures struct {
	t     *testing.T
	Store domain.Store
}

// NewFixtures creates a Fixtures helper for store
func NewFixtures(t *testing.T, store domain.Store) *Fixtures {
	return &Fixtures{t: t, Store: store}
}

// Account creates a checking account whose balance starts at initialBalance
func (f *Fixtures) Account(workspaceID int32, name string, initialBalance string) *domain.Account {
	f.t.Helper()
	balance := decimal.RequireFromString(initialBalance)
	account, err := f.Store.Accounts().Create(context.Background(), &domain.Account{
		WorkspaceID:    workspaceID,
		Name:           name,
		AccountType:    domain.AccountTypeChecking,
		InitialBalance: balance,
		Balance:        balance,
	})
	if err != nil {
		f.t.Fatalf("create account: %v", err)
	}
	return account
}

// Category creates a category of the given type
func (f *Fixtures) Category(workspaceID int32, name string, txType domain.TransactionType) *domain.Category {
	f.t.Helper()
	category, err := f.Store.Categories().Create(context.Background(), &domain.Category{
		WorkspaceID: workspaceID,
		Name:        name,
		Type:        txType,
	})
	if err != nil {
		f.t.Fatalf("create category: %v", err)
	}
	return category
}

// Recurring creates an active recurring definition
func (f *Fixtures) Recurring(workspaceID int32, account *domain.Account, category *domain.Category, amount string, frequency domain.Frequency, nextRun time.Time) *domain.RecurringDefinition {
	f.t.Helper()
	def, err := f.Store.Recurring().Create(context.Background(), &domain.RecurringDefinition{
		WorkspaceID: workspaceID,
		AccountID:   account.ID,
		CategoryID:  category.ID,
		Amount:      decimal.RequireFromString(amount),
		Description: "Recurring " + category.Name,
		Type:        category.Type,
		Frequency:   frequency,
		NextRunDate: nextRun,
		IsActive:    true,
	})
	if err != nil {
		f.t.Fatalf("create recurring definition: %v", err)
	}
	return def
}

// Balance reloads the cached balance of an account
func (f *Fixtures) Balance(account *domain.Account) decimal.Decimal {
	f.t.Helper()
	got, err := f.Store.Accounts().GetByID(context.Background(), account.WorkspaceID, account.ID)
	if err != nil {
		f.t.Fatalf("reload account: %v", err)
	}
	return got.Balance
}

// AssertBalanceInvariant fails the test unless the cached balance equals the initial
// balance plus the signed sum of the account's transactions
func (f *Fixtures) AssertBalanceInvariant(account *domain.Account) {
	f.t.Helper()
	ctx := context.Background()
	got, err := f.Store.Accounts().GetByID(ctx, account.WorkspaceID, account.ID)
	if err != nil {
		f.t.Fatalf("reload account: %v", err)
	}
	totals, err := f.Store.Transactions().SumByAccount(ctx, account.WorkspaceID, account.ID)
	if err != nil {
		f.t.Fatalf("sum transactions: %v", err)
	}
	expected := got.InitialBalance.Add(totals.TotalIncome).Sub(totals.TotalExpense)
	if !got.Balance.Equal(expected) {
		f.t.Errorf("balance invariant broken for account %d: cached %s, computed %s", account.ID, got.Balance, expected)
	}
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
