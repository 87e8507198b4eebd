package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
)

type recurringRepo struct {
	s *Store
}

func (r *recurringRepo) Create(ctx context.Context, def *domain.RecurringDefinition) (*domain.RecurringDefinition, error) {
	defer r.s.lock()()

	d := *def
	d.ID = r.s.db.nextID("recurring")
	d.CreatedAt = r.s.now()
	d.UpdatedAt = d.CreatedAt
	r.s.db.recurring[d.ID] = d
	return &d, nil
}

func (r *recurringRepo) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.RecurringDefinition, error) {
	defer r.s.lock()()

	d, ok := r.s.db.recurring[id]
	if !ok || d.WorkspaceID != workspaceID {
		return nil, domain.ErrRecurringNotFound
	}
	return &d, nil
}

func (r *recurringRepo) ListByWorkspace(ctx context.Context, workspaceID int32, activeOnly bool) ([]*domain.RecurringDefinition, error) {
	defer r.s.lock()()

	result := []*domain.RecurringDefinition{}
	for _, d := range r.s.db.recurring {
		if d.WorkspaceID != workspaceID || (activeOnly && !d.IsActive) {
			continue
		}
		d := d
		result = append(result, &d)
	}
	sortByNextRun(result)
	return result, nil
}

func (r *recurringRepo) Update(ctx context.Context, def *domain.RecurringDefinition) (*domain.RecurringDefinition, error) {
	defer r.s.lock()()

	existing, ok := r.s.db.recurring[def.ID]
	if !ok || existing.WorkspaceID != def.WorkspaceID {
		return nil, domain.ErrRecurringNotFound
	}
	d := *def
	d.CreatedAt = existing.CreatedAt
	d.UpdatedAt = r.s.now()
	r.s.db.recurring[d.ID] = d
	return &d, nil
}

func (r *recurringRepo) Delete(ctx context.Context, workspaceID int32, id int32) error {
	defer r.s.lock()()

	d, ok := r.s.db.recurring[id]
	if !ok || d.WorkspaceID != workspaceID {
		return domain.ErrRecurringNotFound
	}
	delete(r.s.db.recurring, id)
	return nil
}

func (r *recurringRepo) ListDue(ctx context.Context, now time.Time) ([]*domain.RecurringDefinition, error) {
	defer r.s.lock()()

	result := []*domain.RecurringDefinition{}
	for _, d := range r.s.db.recurring {
		if !d.IsDue(now) {
			continue
		}
		d := d
		result = append(result, &d)
	}
	sortByNextRun(result)
	return result, nil
}

func (r *recurringRepo) ClaimDue(ctx context.Context, id int32, now time.Time) (*domain.RecurringDefinition, error) {
	defer r.s.lock()()

	d, ok := r.s.db.recurring[id]
	if !ok {
		return nil, domain.ErrRecurringNotFound
	}
	if !d.IsDue(now) {
		return nil, domain.ErrNotDue
	}
	return &d, nil
}

func (r *recurringRepo) AdvanceNextRun(ctx context.Context, id int32, from, to time.Time) error {
	defer r.s.lock()()

	d, ok := r.s.db.recurring[id]
	if !ok {
		return domain.ErrRecurringNotFound
	}
	if !d.NextRunDate.Equal(from) {
		return domain.ErrConcurrentUpdateConflict
	}
	d.NextRunDate = to
	d.UpdatedAt = r.s.now()
	r.s.db.recurring[id] = d
	return nil
}

func sortByNextRun(defs []*domain.RecurringDefinition) {
	sort.Slice(defs, func(i, j int) bool {
		if !defs[i].NextRunDate.Equal(defs[j].NextRunDate) {
			return defs[i].NextRunDate.Before(defs[j].NextRunDate)
		}
		return defs[i].ID < defs[j].ID
	})
}
