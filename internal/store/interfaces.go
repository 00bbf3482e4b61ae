package store

import (
	"context"
	"errors"

	"vdt.ai/dashboard/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Provider hands out the stores a procedure may touch. It is the storage
// handle carried by every request context.
type Provider interface {
	Projects() ProjectStore
	Organizations() OrganizationStore
	Users() UserStore
	Sessions() SessionStore
}

// ProjectStore defines the contract for project data access.
// Projects are create-then-list only.
type ProjectStore interface {
	List(ctx context.Context) ([]model.Project, error)
	Create(ctx context.Context, project *model.Project) error // assigns ID and timestamps
}

// OrganizationStore defines the contract for organization data access
type OrganizationStore interface {
	GetBySlug(ctx context.Context, slug string) (*model.Organization, error)
	Create(ctx context.Context, org *model.Organization) error
}

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	GetByID(ctx context.Context, id string) (*model.Session, error)
	GetValid(ctx context.Context, id string) (*model.Session, error) // checks expiry
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}
