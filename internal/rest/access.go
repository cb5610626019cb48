package rest

import (
	"context"

	"github.com/aclgate/aclgate/internal/auth"
	"github.com/aclgate/aclgate/internal/authz"
	"github.com/aclgate/aclgate/internal/store"
	"github.com/aclgate/aclgate/pkg/cerr"
)

// accessResolver turns a request identity into authorization decisions.
// The token only names the user; the store is consulted on every request
// so deactivation and role changes take effect immediately.
type accessResolver struct {
	users    store.UserRepository
	projects store.ProjectRepository
}

func (a *accessResolver) currentUser(ctx context.Context) (*store.User, []string, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, nil, cerr.NewError(cerr.Unauthenticated, "authentication required", nil)
	}
	user, err := a.users.GetByUsername(ctx, id.Username)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return nil, nil, cerr.NewError(cerr.Unauthenticated, "unknown user", err)
		}
		return nil, nil, err
	}
	if !user.Active {
		return nil, nil, cerr.NewError(cerr.Unauthenticated, "user is inactive", nil)
	}
	roles, err := a.users.Roles(ctx, user.Username)
	if err != nil {
		return nil, nil, err
	}
	return user, roles, nil
}

func (a *accessResolver) requireRole(ctx context.Context, anyOf ...string) (*store.User, error) {
	user, roles, err := a.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(roles, anyOf...); err != nil {
		return nil, err
	}
	return user, nil
}

// authorizePath gates access to relPath at the required level. Paths
// outside every registered project are reserved for pi.
func (a *accessResolver) authorizePath(ctx context.Context, relPath string, required authz.AccessLevel) (*store.User, error) {
	user, roles, err := a.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	project, err := a.projects.ForPath(ctx, relPath)
	if err != nil {
		return nil, err
	}
	if project == nil {
		if authz.RequireRole(roles, authz.RolePI) != nil {
			return nil, cerr.NewError(cerr.NotAMember, "path does not belong to any project", nil)
		}
		return user, nil
	}
	grant, err := a.grantFor(ctx, user, roles, project)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccess(grant, required); err != nil {
		return nil, err
	}
	return user, nil
}

// authorizeProject gates access to one known project.
func (a *accessResolver) authorizeProject(ctx context.Context, project *store.Project, required authz.AccessLevel) (*store.User, error) {
	user, roles, err := a.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	grant, err := a.grantFor(ctx, user, roles, project)
	if err != nil {
		return nil, err
	}
	if err := authz.CanAccess(grant, required); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *accessResolver) grantFor(ctx context.Context, user *store.User, roles []string, project *store.Project) (authz.Grant, error) {
	grant := authz.Grant{Roles: roles}
	membership, err := a.projects.GetMembership(ctx, project.ID, user.ID)
	if err != nil {
		return grant, err
	}
	if membership != nil {
		grant.Member = true
		grant.Level = membership.Level
	}
	return grant, nil
}
