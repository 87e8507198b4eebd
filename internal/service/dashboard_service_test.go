package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/repository/memory"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSummaryForMonth(t *testing.T) {
	store := memory.NewStore()
	fx := testutil.NewFixtures(t, store)
	ledger := newTestLedger(store)
	ctx := context.Background()

	checking := fx.Account(workspaceID, "Checking", "1000")
	card := fx.Account(workspaceID, "Card", "0")
	salary := fx.Category(workspaceID, "Salary", domain.TransactionTypeIncome)
	food := fx.Category(workspaceID, "Food", domain.TransactionTypeExpense)
	fun := fx.Category(workspaceID, "Fun", domain.TransactionTypeExpense)
	fx.Account(2, "Not mine", "5000")

	record := func(account *domain.Account, category *domain.Category, amount string, date time.Time) {
		_, err := ledger.CreateTransaction(ctx, workspaceID, CreateTransactionInput{
			AccountID: account.ID, CategoryID: category.ID, Amount: dec(amount), Type: category.Type, Date: &date,
		})
		require.NoError(t, err)
	}
	record(checking, salary, "2000", testutil.Date(2024, time.March, 1))
	record(checking, food, "120", testutil.Date(2024, time.March, 5))
	record(card, food, "80", testutil.Date(2024, time.March, 31))
	record(card, fun, "50", testutil.Date(2024, time.March, 20))
	record(checking, food, "999", testutil.Date(2024, time.April, 1))

	budgets := NewBudgetService(store)
	_, err := budgets.SetBudget(ctx, workspaceID, SetBudgetInput{CategoryID: food.ID, Amount: dec("150"), Year: 2024, Month: 3})
	require.NoError(t, err)
	_, err = budgets.SetBudget(ctx, workspaceID, SetBudgetInput{CategoryID: fun.ID, Amount: dec("100"), Year: 2024, Month: 3})
	require.NoError(t, err)

	summary, err := NewDashboardService(store).GetSummaryForMonth(ctx, workspaceID, 2024, 3)
	require.NoError(t, err)

	// 1000 + 2000 - 120 - 999 on checking, -130 on the card
	assert.True(t, dec("1751").Equal(summary.TotalBalance), "got %s", summary.TotalBalance)
	assert.Equal(t, 2, summary.AccountCount)
	assert.True(t, dec("2000").Equal(summary.MonthlyIncome))
	assert.True(t, dec("250").Equal(summary.MonthlyExpense))
	assert.True(t, dec("1750").Equal(summary.Net))

	require.Len(t, summary.ExpenseByCategory, 2)
	assert.Equal(t, food.ID, summary.ExpenseByCategory[0].CategoryID)
	assert.True(t, dec("200").Equal(summary.ExpenseByCategory[0].Amount))

	require.Len(t, summary.Budgets, 2)
	progress := map[int32]*domain.BudgetProgress{}
	for _, p := range summary.Budgets {
		progress[p.CategoryID] = p
	}
	assert.True(t, progress[food.ID].OverBudget)
	assert.True(t, dec("-50").Equal(progress[food.ID].Remaining))
	assert.False(t, progress[fun.ID].OverBudget)
	assert.Equal(t, "Fun", progress[fun.ID].CategoryName)
}

func TestGetSummaryForMonth_InvalidPeriod(t *testing.T) {
	_, err := NewDashboardService(memory.NewStore()).GetSummaryForMonth(context.Background(), workspaceID, 2024, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestGetSummary_EmptyWorkspace(t *testing.T) {
	service := NewDashboardService(memory.NewStore())
	service.now = func() time.Time { return time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC) }

	summary, err := service.GetSummary(context.Background(), workspaceID)
	require.NoError(t, err)
	assert.Equal(t, 2024, summary.Year)
	assert.Equal(t, 7, summary.Month)
	assert.True(t, summary.TotalBalance.IsZero())
	assert.Empty(t, summary.Budgets)
}
