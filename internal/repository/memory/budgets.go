package memory

import (
	"context"
	"sort"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
)

type budgetRepo struct {
	s *Store
}

func (r *budgetRepo) Upsert(ctx context.Context, budget *domain.Budget) (*domain.Budget, error) {
	defer r.s.lock()()

	now := r.s.now()
	for id, b := range r.s.db.budgets {
		if b.WorkspaceID == budget.WorkspaceID && b.CategoryID == budget.CategoryID &&
			b.Year == budget.Year && b.Month == budget.Month {
			b.Amount = budget.Amount
			b.UpdatedAt = now
			r.s.db.budgets[id] = b
			return &b, nil
		}
	}

	b := *budget
	b.ID = r.s.db.nextID("budgets")
	b.CreatedAt = now
	b.UpdatedAt = now
	r.s.db.budgets[b.ID] = b
	return &b, nil
}

func (r *budgetRepo) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Budget, error) {
	defer r.s.lock()()

	b, ok := r.s.db.budgets[id]
	if !ok || b.WorkspaceID != workspaceID {
		return nil, domain.ErrBudgetNotFound
	}
	return &b, nil
}

func (r *budgetRepo) ListByPeriod(ctx context.Context, workspaceID int32, year, month int) ([]*domain.Budget, error) {
	defer r.s.lock()()

	result := []*domain.Budget{}
	for _, b := range r.s.db.budgets {
		if b.WorkspaceID != workspaceID || b.Year != year || b.Month != month {
			continue
		}
		b := b
		result = append(result, &b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CategoryID < result[j].CategoryID })
	return result, nil
}

func (r *budgetRepo) Delete(ctx context.Context, workspaceID int32, id int32) error {
	defer r.s.lock()()

	b, ok := r.s.db.budgets[id]
	if !ok || b.WorkspaceID != workspaceID {
		return domain.ErrBudgetNotFound
	}
	delete(r.s.db.budgets, id)
	return nil
}
