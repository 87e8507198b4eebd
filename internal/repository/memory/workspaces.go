package memory

import (
	"context"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
)

type workspaceRepo struct {
	s *Store
}

func (r *workspaceRepo) GetByID(ctx context.Context, id int32) (*domain.Workspace, error) {
	defer r.s.lock()()

	w, ok := r.s.db.workspaces[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	return &w, nil
}

func (r *workspaceRepo) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.Workspace, error) {
	defer r.s.lock()()

	for _, w := range r.s.db.workspaces {
		if w.Auth0ID == auth0ID {
			w := w
			return &w, nil
		}
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (r *workspaceRepo) CreateOrGetByAuth0ID(ctx context.Context, auth0ID, name string) (*domain.Workspace, error) {
	defer r.s.lock()()

	for _, w := range r.s.db.workspaces {
		if w.Auth0ID == auth0ID {
			w := w
			return &w, nil
		}
	}
	w := domain.Workspace{
		ID:      r.s.db.nextID("workspaces"),
		Auth0ID: auth0ID,
		Name:    name,
	}
	w.CreatedAt = r.s.now()
	w.UpdatedAt = w.CreatedAt
	r.s.db.workspaces[w.ID] = w
	return &w, nil
}
