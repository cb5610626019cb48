// Package auth issues sessions for local and directory-backed accounts.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aclgate/aclgate/internal/directory"
	"github.com/aclgate/aclgate/internal/store"
	"github.com/aclgate/aclgate/pkg/cerr"
)

// Authenticator routes logins: usernames of the form name@institution
// bind against the directory, plain usernames check the local store.
type Authenticator struct {
	users   store.UserRepository
	issuer  *TokenIssuer
	dir     *directory.Client
	roleMap *directory.RoleMap
}

// NewAuthenticator builds an authenticator. dir may be nil, which turns
// directory logins off.
func NewAuthenticator(users store.UserRepository, issuer *TokenIssuer, dir *directory.Client, roleMap *directory.RoleMap) *Authenticator {
	if roleMap == nil {
		roleMap = directory.NewRoleMap()
	}
	return &Authenticator{users: users, issuer: issuer, dir: dir, roleMap: roleMap}
}

type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *store.User
	Roles     []string
}

func (a *Authenticator) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, cerr.NewError(cerr.Unauthenticated, "invalid credentials", nil)
	}
	if strings.Contains(username, "@") {
		return a.loginDirectory(ctx, username, password)
	}
	return a.loginLocal(ctx, username, password)
}

// Verify validates a bearer token and returns the identity it names.
func (a *Authenticator) Verify(token string) (*Identity, error) {
	return a.issuer.Verify(token)
}

func (a *Authenticator) loginDirectory(ctx context.Context, username, password string) (*Session, error) {
	if a.dir == nil {
		return nil, cerr.NewError(cerr.Unavailable, "directory authentication is not configured", nil)
	}
	name, institution, _ := strings.Cut(username, "@")
	if name == "" || institution == "" {
		return nil, cerr.NewError(cerr.Unauthenticated, "username must be of the form name@institution", nil)
	}
	profile, err := a.dir.Authenticate(ctx, name, institution, password)
	if err != nil {
		return nil, err
	}
	roles := a.roleMap.RolesFor(profile.Affiliations)
	now := time.Now().UTC()
	user, err := a.users.Upsert(ctx, &store.User{
		ID:        ulid.Make().String(),
		Username:  username,
		Email:     profile.Email,
		FullName:  profile.FullName,
		Source:    store.SourceLDAP,
		Active:    true,
		LastLogin: &now,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, cerr.NewError(cerr.Unauthenticated, "user is inactive", nil)
	}
	// The directory is authoritative for directory-backed accounts, so
	// the stored role set follows the affiliations on every login.
	if err := a.users.ReplaceRoles(ctx, user.Username, roles); err != nil {
		return nil, err
	}
	return a.openSession(user, roles)
}

func (a *Authenticator) loginLocal(ctx context.Context, username, password string) (*Session, error) {
	user, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, cerr.NewError(cerr.Unauthenticated, "invalid credentials", nil)
		}
		return nil, err
	}
	if !user.Active {
		return nil, cerr.NewError(cerr.Unauthenticated, "user is inactive", nil)
	}
	if user.HashedPassword == "" || !VerifyPassword(user.HashedPassword, password) {
		return nil, cerr.NewError(cerr.Unauthenticated, "invalid credentials", nil)
	}
	roles, err := a.users.Roles(ctx, username)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := a.users.TouchLastLogin(ctx, username, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return a.openSession(user, roles)
}

func (a *Authenticator) openSession(user *store.User, roles []string) (*Session, error) {
	token, expiresAt, err := a.issuer.Issue(user.Username, roles)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user, Roles: roles}, nil
}
