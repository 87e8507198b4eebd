package service

import (
	"context"
	"strings"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
)

const defaultWorkspaceName = "Personal"

// WorkspaceService maps authenticated identities to their workspace
type WorkspaceService struct {
	store domain.Store
}

// NewWorkspaceService creates a new WorkspaceService
func NewWorkspaceService(store domain.Store) *WorkspaceService {
	return &WorkspaceService{store: store}
}

// GetWorkspaceByAuth0ID returns the workspace of the identity, creating it on first
// sight
func (s *WorkspaceService) GetWorkspaceByAuth0ID(ctx context.Context, auth0ID string, displayName string) (int32, error) {
	if strings.TrimSpace(auth0ID) == "" {
		return 0, domain.ErrUnauthorized
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = defaultWorkspaceName
	}

	workspace, err := s.store.Workspaces().CreateOrGetByAuth0ID(ctx, auth0ID, name)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}

// GetWorkspace returns a workspace by ID
func (s *WorkspaceService) GetWorkspace(ctx context.Context, id int32) (*domain.Workspace, error) {
	return s.store.Workspaces().GetByID(ctx, id)
}
