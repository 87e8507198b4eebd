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

func TestCreateCategory(t *testing.T) {
	service := NewCategoryService(memory.NewStore())
	ctx := context.Background()

	category, err := service.CreateCategory(ctx, workspaceID, " Groceries ", domain.TransactionTypeExpense)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", category.Name)
	assert.Equal(t, domain.TransactionTypeExpense, category.Type)

	_, err = service.CreateCategory(ctx, workspaceID, "Groceries", domain.TransactionTypeExpense)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = service.CreateCategory(ctx, workspaceID, "Gifts", "transfer")
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionType)

	_, err = service.CreateCategory(ctx, workspaceID, "", domain.TransactionTypeIncome)
	assert.ErrorIs(t, err, domain.ErrNameRequired)
}

func TestDeleteCategory(t *testing.T) {
	store := memory.NewStore()
	fx := testutil.NewFixtures(t, store)
	service := NewCategoryService(store)
	ctx := context.Background()

	account := fx.Account(workspaceID, "Checking", "0")
	used := fx.Category(workspaceID, "Salary", domain.TransactionTypeIncome)
	scheduled := fx.Category(workspaceID, "Rent", domain.TransactionTypeExpense)
	unused := fx.Category(workspaceID, "Misc", domain.TransactionTypeExpense)

	_, err := newTestLedger(store).CreateTransaction(ctx, workspaceID, CreateTransactionInput{
		AccountID: account.ID, CategoryID: used.ID, Amount: dec("1"), Type: domain.TransactionTypeIncome,
	})
	require.NoError(t, err)
	fx.Recurring(workspaceID, account, scheduled, "900", domain.FrequencyMonthly, testutil.Date(2024, time.January, 1))

	assert.ErrorIs(t, service.DeleteCategory(ctx, workspaceID, used.ID), domain.ErrCategoryInUse)
	assert.ErrorIs(t, service.DeleteCategory(ctx, workspaceID, scheduled.ID), domain.ErrCategoryInUse)
	assert.NoError(t, service.DeleteCategory(ctx, workspaceID, unused.ID))
	assert.ErrorIs(t, service.DeleteCategory(ctx, workspaceID, unused.ID), domain.ErrCategoryNotFound)
}
