package service

import (
	"context"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
)

// CategoryService handles category-related business logic
type CategoryService struct {
	store domain.Store
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(store domain.Store) *CategoryService {
	return &CategoryService{store: store}
}

// CreateCategory creates an income or expense category
func (s *CategoryService) CreateCategory(ctx context.Context, workspaceID int32, name string, categoryType domain.TransactionType) (*domain.Category, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if !categoryType.IsValid() {
		return nil, domain.ErrInvalidTransactionType
	}

	return s.store.Categories().Create(ctx, &domain.Category{
		WorkspaceID: workspaceID,
		Name:        name,
		Type:        categoryType,
	})
}

// GetCategories lists the categories of a workspace
func (s *CategoryService) GetCategories(ctx context.Context, workspaceID int32) ([]*domain.Category, error) {
	return s.store.Categories().GetAllByWorkspace(ctx, workspaceID)
}

// GetCategoryByID retrieves a category by ID within a workspace
func (s *CategoryService) GetCategoryByID(ctx context.Context, workspaceID int32, id int32) (*domain.Category, error) {
	return s.store.Categories().GetByID(ctx, workspaceID, id)
}

// UpdateCategory renames a category. The type is fixed once created.
func (s *CategoryService) UpdateCategory(ctx context.Context, workspaceID int32, id int32, name string) (*domain.Category, error) {
	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	return s.store.Categories().Update(ctx, workspaceID, id, name)
}

// DeleteCategory removes a category that no transaction or recurring definition uses
func (s *CategoryService) DeleteCategory(ctx context.Context, workspaceID int32, id int32) error {
	return s.store.WithTx(ctx, func(tx domain.Store) error {
		if _, err := tx.Categories().GetByID(ctx, workspaceID, id); err != nil {
			return err
		}
		inUse, err := tx.Categories().HasTransactions(ctx, workspaceID, id)
		if err != nil {
			return err
		}
		if inUse {
			return domain.ErrCategoryInUse
		}
		return tx.Categories().Delete(ctx, workspaceID, id)
	})
}
