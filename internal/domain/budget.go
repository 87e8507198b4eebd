package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Budget caps spending for one category in one calendar month
type Budget struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	CategoryID  int32           `json:"categoryId"`
	Amount      decimal.Decimal `json:"amount"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type BudgetRepository interface {
	// Upsert creates the budget or replaces the amount of the existing one for the
	// same category and period.
	Upsert(ctx context.Context, budget *Budget) (*Budget, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*Budget, error)
	ListByPeriod(ctx context.Context, workspaceID int32, year, month int) ([]*Budget, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
}
