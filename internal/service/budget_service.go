package service

import (
	"context"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// BudgetService handles monthly category budgets
type BudgetService struct {
	store domain.Store
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(store domain.Store) *BudgetService {
	return &BudgetService{store: store}
}

// SetBudgetInput holds the input for setting a category budget for one month
type SetBudgetInput struct {
	CategoryID int32
	Amount     decimal.Decimal
	Year       int
	Month      int
}

// SetBudget creates or replaces the budget of an expense category for a month
func (s *BudgetService) SetBudget(ctx context.Context, workspaceID int32, input SetBudgetInput) (*domain.Budget, error) {
	if err := validatePeriod(input.Year, input.Month); err != nil {
		return nil, err
	}
	if !domain.IsValidAmount(input.Amount) {
		return nil, domain.ErrInvalidAmount
	}

	var budget *domain.Budget
	err := s.store.WithTx(ctx, func(tx domain.Store) error {
		category, err := tx.Categories().GetByID(ctx, workspaceID, input.CategoryID)
		if err != nil {
			return err
		}
		if category.Type != domain.TransactionTypeExpense {
			return domain.ErrCategoryTypeMismatch
		}

		budget, err = tx.Budgets().Upsert(ctx, &domain.Budget{
			WorkspaceID: workspaceID,
			CategoryID:  input.CategoryID,
			Amount:      input.Amount,
			Year:        input.Year,
			Month:       input.Month,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// GetBudgets lists the budgets of a month
func (s *BudgetService) GetBudgets(ctx context.Context, workspaceID int32, year, month int) ([]*domain.Budget, error) {
	if err := validatePeriod(year, month); err != nil {
		return nil, err
	}
	return s.store.Budgets().ListByPeriod(ctx, workspaceID, year, month)
}

// DeleteBudget removes a budget
func (s *BudgetService) DeleteBudget(ctx context.Context, workspaceID int32, id int32) error {
	return s.store.Budgets().Delete(ctx, workspaceID, id)
}

func validatePeriod(year, month int) error {
	if year < 1970 || year > 9999 || month < 1 || month > 12 {
		return domain.ErrInvalidPeriod
	}
	return nil
}
