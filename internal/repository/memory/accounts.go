package memory

import (
	"context"
	"sort"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

type accountRepo struct {
	s *Store
}

func (r *accountRepo) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	defer r.s.lock()()

	a := *account
	a.ID = r.s.db.nextID("accounts")
	a.CreatedAt = r.s.now()
	a.UpdatedAt = a.CreatedAt
	r.s.db.accounts[a.ID] = a
	return &a, nil
}

func (r *accountRepo) get(workspaceID int32, id int32) (domain.Account, bool) {
	a, ok := r.s.db.accounts[id]
	if !ok || a.WorkspaceID != workspaceID || a.DeletedAt != nil {
		return domain.Account{}, false
	}
	return a, true
}

func (r *accountRepo) GetByID(ctx context.Context, workspaceID int32, id int32) (*domain.Account, error) {
	defer r.s.lock()()

	a, ok := r.get(workspaceID, id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &a, nil
}

// GetByIDForUpdate needs no extra locking: store transactions already run one at a time
func (r *accountRepo) GetByIDForUpdate(ctx context.Context, workspaceID int32, id int32) (*domain.Account, error) {
	return r.GetByID(ctx, workspaceID, id)
}

func (r *accountRepo) GetAllByWorkspace(ctx context.Context, workspaceID int32, includeArchived bool) ([]*domain.Account, error) {
	defer r.s.lock()()

	result := []*domain.Account{}
	for _, a := range r.s.db.accounts {
		if a.WorkspaceID != workspaceID {
			continue
		}
		if a.DeletedAt != nil && !includeArchived {
			continue
		}
		a := a
		result = append(result, &a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *accountRepo) Update(ctx context.Context, workspaceID int32, id int32, name string) (*domain.Account, error) {
	defer r.s.lock()()

	a, ok := r.get(workspaceID, id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a.Name = name
	a.UpdatedAt = r.s.now()
	r.s.db.accounts[id] = a
	return &a, nil
}

func (r *accountRepo) SoftDelete(ctx context.Context, workspaceID int32, id int32) error {
	defer r.s.lock()()

	a, ok := r.get(workspaceID, id)
	if !ok {
		return domain.ErrAccountNotFound
	}
	now := r.s.now()
	a.DeletedAt = &now
	a.UpdatedAt = now
	r.s.db.accounts[id] = a
	return nil
}

func (r *accountRepo) AdjustBalance(ctx context.Context, workspaceID int32, id int32, delta decimal.Decimal) (*domain.Account, error) {
	defer r.s.lock()()

	a, ok := r.get(workspaceID, id)
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(delta)
	a.UpdatedAt = r.s.now()
	r.s.db.accounts[id] = a
	return &a, nil
}
