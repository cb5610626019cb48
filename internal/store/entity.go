package store

import (
	"time"

	"github.com/aclgate/aclgate/internal/authz"
)

type UserSource string

const (
	SourceLocal UserSource = "local"
	SourceLDAP  UserSource = "ldap"
)

type User struct {
	ID             string
	Username       string
	Email          string
	FullName       string
	HashedPassword string
	Source         UserSource
	Active         bool
	LastLogin      *time.Time
	CreatedAt      time.Time
}

type Project struct {
	ID          string
	Name        string
	Description string
	StoragePath string
	PIUserID    string
	CreatedAt   time.Time
}

type Membership struct {
	ProjectID string
	UserID    string
	Level     authz.AccessLevel
	UpdatedAt time.Time
}
