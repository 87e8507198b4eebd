package memory

import (
	"context"
	"sort"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
)

type categoryRepo struct {
	s *Store
}

func (r *categoryRepo) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	defer r.s.lock()()

	for _, c := range r.s.db.categories {
		if c.WorkspaceID == category.WorkspaceID && c.Name == category.Name && c.Type == category.Type {
			return nil, domain.ErrAlreadyExists
		}
	}
	c := *category
	c.ID = r.s.db.nextID("categories")
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.db.categories[c.ID] = c
	return &c, nil
}

func (r *categoryRepo) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Category, error) {
	defer r.s.lock()()

	c, ok := r.s.db.categories[id]
	if !ok || c.WorkspaceID != workspaceID {
		return nil, domain.ErrCategoryNotFound
	}
	return &c, nil
}

func (r *categoryRepo) GetAllByWorkspace(ctx context.Context, workspaceID int32) ([]*domain.Category, error) {
	defer r.s.lock()()

	result := []*domain.Category{}
	for _, c := range r.s.db.categories {
		if c.WorkspaceID != workspaceID {
			continue
		}
		c := c
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *categoryRepo) Update(ctx context.Context, workspaceID int32, id int32, name string) (*domain.Category, error) {
	defer r.s.lock()()

	c, ok := r.s.db.categories[id]
	if !ok || c.WorkspaceID != workspaceID {
		return nil, domain.ErrCategoryNotFound
	}
	c.Name = name
	c.UpdatedAt = r.s.now()
	r.s.db.categories[id] = c
	return &c, nil
}

func (r *categoryRepo) Delete(ctx context.Context, workspaceID int32, id int32) error {
	defer r.s.lock()()

	c, ok := r.s.db.categories[id]
	if !ok || c.WorkspaceID != workspaceID {
		return domain.ErrCategoryNotFound
	}
	delete(r.s.db.categories, id)
	for budgetID, b := range r.s.db.budgets {
		if b.CategoryID == id {
			delete(r.s.db.budgets, budgetID)
		}
	}
	return nil
}

func (r *categoryRepo) HasTransactions(ctx context.Context, workspaceID int32, id int32) (bool, error) {
	defer r.s.lock()()

	for _, t := range r.s.db.transactions {
		if t.WorkspaceID == workspaceID && t.CategoryID == id {
			return true, nil
		}
	}
	for _, d := range r.s.db.recurring {
		if d.WorkspaceID == workspaceID && d.CategoryID == id {
			return true, nil
		}
	}
	return false, nil
}
