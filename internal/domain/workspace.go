package domain

import (
	"context"
	"time"
)

// Workspace is the ownership boundary: every account, transaction, category,
// recurring definition and budget belongs to exactly one workspace.
type Workspace struct {
	ID        int32     `json:"id"`
	Auth0ID   string    `json:"auth0Id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkspaceRepository defines the interface for workspace persistence operations
type WorkspaceRepository interface {
	GetByID(ctx context.Context, id int32) (*Workspace, error)
	GetByAuth0ID(ctx context.Context, auth0ID string) (*Workspace, error)
	CreateOrGetByAuth0ID(ctx context.Context, auth0ID, name string) (*Workspace, error)
}
