// Package authz holds the project authorization model: role names, the
// ordered membership levels, and the pure decision functions the API
// layer calls before touching any path.
package authz

import (
	"fmt"
	"strings"

	"github.com/aclgate/aclgate/pkg/cerr"
)

// RolePI is the privileged role: holders pass every project check and
// may manage projects themselves.
const RolePI = "pi"

// AccessLevel orders project membership levels from none to admin.
type AccessLevel int

const (
	LevelNone AccessLevel = iota
	LevelRead
	LevelWrite
	LevelAdmin
)

func (l AccessLevel) String() string {
	switch l {
	case LevelNone:
		return "none"
	case LevelRead:
		return "read"
	case LevelWrite:
		return "write"
	case LevelAdmin:
		return "admin"
	default:
		return fmt.Sprintf("AccessLevel(%d)", int(l))
	}
}

func ParseAccessLevel(s string) (AccessLevel, error) {
	switch strings.ToLower(s) {
	case "none":
		return LevelNone, nil
	case "read":
		return LevelRead, nil
	case "write":
		return LevelWrite, nil
	case "admin":
		return LevelAdmin, nil
	}
	return LevelNone, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid access level: %q", s), nil)
}

// Grant is the resolved authorization state of one user against one
// project: the roles they hold globally plus their membership, if any.
type Grant struct {
	Roles  []string
	Member bool
	Level  AccessLevel
}

func (g Grant) HasRole(name string) bool {
	for _, r := range g.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// CanAccess decides whether the grant satisfies the required level. The
// pi role overrides membership entirely; everyone else must be a member
// at or above the required level.
func CanAccess(g Grant, required AccessLevel) error {
	if g.HasRole(RolePI) {
		return nil
	}
	if !g.Member {
		return cerr.NewError(cerr.NotAMember, "not a project member", nil)
	}
	if g.Level < required {
		return cerr.NewError(cerr.InsufficientAccess,
			fmt.Sprintf("requires %s access, membership grants %s", required, g.Level), nil)
	}
	return nil
}

// RequireRole passes when the user holds any of the wanted roles.
func RequireRole(roles []string, anyOf ...string) error {
	for _, want := range anyOf {
		for _, have := range roles {
			if have == want {
				return nil
			}
		}
	}
	return cerr.NewError(cerr.PermissionDenied,
		fmt.Sprintf("requires one of roles: %s", strings.Join(anyOf, ", ")), nil)
}
