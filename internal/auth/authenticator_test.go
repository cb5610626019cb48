package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aclgate/aclgate/internal/directory"
	"github.com/aclgate/aclgate/internal/store"
	"github.com/aclgate/aclgate/internal/store/repositoryimpl"
	"github.com/aclgate/aclgate/pkg/cerr"
)

func newTestAuthenticator(t *testing.T, dir *directory.Client) (*Authenticator, store.UserRepository) {
	t.Helper()
	db, err := repositoryimpl.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	users := repositoryimpl.NewSQLiteUserRepository(db)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	return NewAuthenticator(users, issuer, dir, nil), users
}

func createLocalUser(t *testing.T, users store.UserRepository, username, password string, roles ...string) {
	t.Helper()
	ctx := context.Background()
	hashed, err := HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, &store.User{
		ID:             "id-" + username,
		Username:       username,
		HashedPassword: hashed,
		Source:         store.SourceLocal,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}))
	for _, role := range roles {
		require.NoError(t, users.GrantRole(ctx, username, role))
	}
}

func TestLoginLocal(t *testing.T) {
	ctx := context.Background()
	authn, users := newTestAuthenticator(t, nil)
	createLocalUser(t, users, "alice", "s3cret", "pi")

	session, err := authn.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)
	assert.Equal(t, []string{"pi"}, session.Roles)
	assert.NotNil(t, session.User.LastLogin)

	// The issued token names the same identity.
	id, err := authn.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, []string{"pi"}, id.Roles)

	// The login timestamp is persisted.
	stored, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestLoginLocalRejections(t *testing.T) {
	ctx := context.Background()
	authn, users := newTestAuthenticator(t, nil)
	createLocalUser(t, users, "alice", "s3cret")

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "bob", "s3cret"},
		{"empty username", "", "s3cret"},
		{"empty password", "alice", ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := authn.Login(ctx, c.username, c.password)
			require.Error(t, err)
			assert.True(t, cerr.IsCode(err, cerr.Unauthenticated), "got %v", err)
		})
	}
}

func TestLoginLocalInactive(t *testing.T) {
	ctx := context.Background()
	authn, users := newTestAuthenticator(t, nil)
	createLocalUser(t, users, "alice", "s3cret")
	require.NoError(t, users.SetActive(ctx, "alice", false))

	_, err := authn.Login(ctx, "alice", "s3cret")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
	assert.Contains(t, err.Error(), "inactive")
}

func TestLoginLocalNoPasswordSet(t *testing.T) {
	ctx := context.Background()
	authn, users := newTestAuthenticator(t, nil)
	// A directory-sourced row has no local password; local login with an
	// empty stored hash must never succeed.
	require.NoError(t, users.Create(ctx, &store.User{
		ID: "id-sync", Username: "synced", Source: store.SourceLDAP, Active: true, CreatedAt: time.Now().UTC(),
	}))

	_, err := authn.Login(ctx, "synced", "anything")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
}

func TestLoginDirectoryNotConfigured(t *testing.T) {
	authn, _ := newTestAuthenticator(t, nil)

	_, err := authn.Login(context.Background(), "alice@univ", "s3cret")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unavailable))
}

func TestLoginDirectoryMalformedUsername(t *testing.T) {
	dir := directory.NewClient("ldap://127.0.0.1:1", "dc=example,dc=com", "uid={username},dc=example,dc=com", false)
	authn, _ := newTestAuthenticator(t, dir)

	// The form check runs before any connection is attempted.
	_, err := authn.Login(context.Background(), "@univ", "s3cret")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.Unauthenticated))
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatal("Expected no identity on a fresh context")
	}

	id := &Identity{Username: "alice", Roles: []string{"pi"}}
	ctx = ContextWithIdentity(ctx, id)
	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, got)
}
