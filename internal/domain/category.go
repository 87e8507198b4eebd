package domain

import (
	"context"
	"time"
)

// Category classifies transactions, recurring definitions and budgets. Its Type must
// match the type of anything that references it.
type Category struct {
	ID          int32           `json:"id"`
	WorkspaceID int32           `json:"workspaceId"`
	Name        string          `json:"name"`
	Type        TransactionType `json:"type"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	GetByID(ctx context.Context, workspaceID int32, id int32) (*Category, error)
	GetAllByWorkspace(ctx context.Context, workspaceID int32) ([]*Category, error)
	Update(ctx context.Context, workspaceID int32, id int32, name string) (*Category, error)
	Delete(ctx context.Context, workspaceID int32, id int32) error
	HasTransactions(ctx context.Context, workspaceID int32, id int32) (bool, error)
}
