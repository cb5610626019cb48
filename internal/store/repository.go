package store

import (
	"context"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	// Upsert inserts the user or refreshes the mutable fields of an
	// existing row with the same username, keeping the original ID.
	Upsert(ctx context.Context, u *User) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	SetActive(ctx context.Context, username string, active bool) error
	TouchLastLogin(ctx context.Context, username string, at time.Time) error
	GrantRole(ctx context.Context, username, role string) error
	RevokeRole(ctx context.Context, username, role string) error
	Roles(ctx context.Context, username string) ([]string, error)
	// ReplaceRoles swaps the full role set of a user in one transaction.
	ReplaceRoles(ctx context.Context, username string, roles []string) error
}

type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	GetByName(ctx context.Context, name string) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
	// ForPath returns the project whose storage path is the longest
	// prefix of the given root-relative path, or nil when no project
	// contains it.
	ForPath(ctx context.Context, relPath string) (*Project, error)
	SetMembership(ctx context.Context, m *Membership) error
	// GetMembership returns nil when the user holds no membership in the
	// project.
	GetMembership(ctx context.Context, projectID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, projectID string) ([]*Membership, error)
}
