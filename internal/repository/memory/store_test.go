package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAccount(t *testing.T, s *Store, workspaceID int32, balance int64) *domain.Account {
	t.Helper()
	account, err := s.Accounts().Create(context.Background(), &domain.Account{
		WorkspaceID:    workspaceID,
		Name:           "Checking",
		AccountType:    domain.AccountTypeChecking,
		InitialBalance: decimal.NewFromInt(balance),
		Balance:        decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	return account
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := createAccount(t, s, 1, 100)

	err := s.WithTx(ctx, func(tx domain.Store) error {
		_, err := tx.Accounts().AdjustBalance(ctx, 1, account.ID, decimal.NewFromInt(50))
		return err
	})
	require.NoError(t, err)

	got, err := s.Accounts().GetByID(ctx, 1, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(150)))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := createAccount(t, s, 1, 100)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Accounts().AdjustBalance(ctx, 1, account.ID, decimal.NewFromInt(50)); err != nil {
			return err
		}
		if _, err := tx.Transactions().Create(ctx, &domain.Transaction{WorkspaceID: 1, AccountID: account.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Accounts().GetByID(ctx, 1, account.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)), "balance should be restored, got %s", got.Balance)

	page, err := s.Transactions().GetByWorkspace(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.TotalItems)
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := createAccount(t, s, 1, 0)

	err := s.WithTx(ctx, func(tx domain.Store) error {
		if err := tx.WithTx(ctx, func(inner domain.Store) error {
			_, err := inner.Accounts().AdjustBalance(ctx, 1, account.ID, decimal.NewFromInt(10))
			return err
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	require.Error(t, err)

	got, _ := s.Accounts().GetByID(ctx, 1, account.ID)
	assert.True(t, got.Balance.IsZero())
}

func TestAdjustBalance_Concurrent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := createAccount(t, s, 1, 0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Accounts().AdjustBalance(ctx, 1, account.ID, decimal.NewFromInt(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _ := s.Accounts().GetByID(ctx, 1, account.ID)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(100)))
}

func TestAdjustBalance_WrongWorkspace(t *testing.T) {
	s := NewStore()
	account := createAccount(t, s, 1, 0)

	_, err := s.Accounts().AdjustBalance(context.Background(), 2, account.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAdjustBalance_SoftDeletedAccount(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	account := createAccount(t, s, 1, 0)
	require.NoError(t, s.Accounts().SoftDelete(ctx, 1, account.ID))

	_, err := s.Accounts().AdjustBalance(ctx, 1, account.ID, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	all, err := s.Accounts().GetAllByWorkspace(ctx, 1, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	active, err := s.Accounts().GetAllByWorkspace(ctx, 1, false)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRecurring_ClaimAndAdvance(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	runDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	def, err := s.Recurring().Create(ctx, &domain.RecurringDefinition{
		WorkspaceID: 1,
		Frequency:   domain.FrequencyDaily,
		NextRunDate: runDate,
		IsActive:    true,
	})
	require.NoError(t, err)

	claimed, err := s.Recurring().ClaimDue(ctx, def.ID, now)
	require.NoError(t, err)
	assert.Equal(t, def.ID, claimed.ID)

	next := runDate.AddDate(0, 0, 1)
	require.NoError(t, s.Recurring().AdvanceNextRun(ctx, def.ID, runDate, next))

	// Stale compare-and-set loses
	err = s.Recurring().AdvanceNextRun(ctx, def.ID, runDate, next)
	assert.ErrorIs(t, err, domain.ErrConcurrentUpdateConflict)

	_, err = s.Recurring().ClaimDue(ctx, def.ID, runDate)
	assert.ErrorIs(t, err, domain.ErrNotDue)
}

func TestRecurring_ListDueAcrossWorkspaces(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mk := func(ws int32, day int, active bool) {
		_, err := s.Recurring().Create(ctx, &domain.RecurringDefinition{
			WorkspaceID: ws,
			Frequency:   domain.FrequencyMonthly,
			NextRunDate: time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC),
			IsActive:    active,
		})
		require.NoError(t, err)
	}
	mk(1, 9, true)
	mk(2, 5, true)
	mk(1, 10, true)
	mk(1, 11, true)  // future
	mk(2, 1, false) // paused

	due, err := s.Recurring().ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 3)
	assert.Equal(t, int32(2), due[0].WorkspaceID)
	assert.Equal(t, 5, due[0].NextRunDate.Day())
	assert.Equal(t, 9, due[1].NextRunDate.Day())
	assert.Equal(t, 10, due[2].NextRunDate.Day())
}

func TestTransactions_Pagination(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i := 1; i <= 25; i++ {
		_, err := s.Transactions().Create(ctx, &domain.Transaction{
			WorkspaceID: 1,
			AccountID:   1,
			Amount:      decimal.NewFromInt(int64(i)),
			Type:        domain.TransactionTypeExpense,
			Date:        time.Date(2026, 1, i, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	page, err := s.Transactions().GetByWorkspace(ctx, 1, &domain.TransactionFilters{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.TotalItems)
	assert.Equal(t, int32(3), page.TotalPages)
	require.Len(t, page.Data, 10)
	assert.Equal(t, 15, page.Data[0].Date.Day())

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	ranged, err := s.Transactions().ListByDateRange(ctx, 1, start, end)
	require.NoError(t, err)
	assert.Len(t, ranged, 3)
}

func TestTransactions_PageFarPastTheEnd(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, err := s.Transactions().Create(ctx, &domain.Transaction{
		WorkspaceID: 1,
		AccountID:   1,
		Amount:      decimal.NewFromInt(5),
		Type:        domain.TransactionTypeExpense,
		Date:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	page, err := s.Transactions().GetByWorkspace(ctx, 1, &domain.TransactionFilters{Page: math.MaxInt32, PageSize: domain.MaxPageSize})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(1), page.TotalItems)
	assert.Equal(t, int32(math.MaxInt32), page.Page)
}

func TestBudgets_UpsertReplacesAmount(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first, err := s.Budgets().Upsert(ctx, &domain.Budget{WorkspaceID: 1, CategoryID: 3, Year: 2026, Month: 3, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)
	second, err := s.Budgets().Upsert(ctx, &domain.Budget{WorkspaceID: 1, CategoryID: 3, Year: 2026, Month: 3, Amount: decimal.NewFromInt(300)})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	budgets, err := s.Budgets().ListByPeriod(ctx, 1, 2026, 3)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].Amount.Equal(decimal.NewFromInt(300)))
}
