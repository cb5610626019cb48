package authz

import (
	"testing"

	"github.com/aclgate/aclgate/pkg/cerr"
)

func TestParseAccessLevel(t *testing.T) {
	cases := []struct {
		in   string
		want AccessLevel
	}{
		{"none", LevelNone},
		{"read", LevelRead},
		{"write", LevelWrite},
		{"admin", LevelAdmin},
		{"ADMIN", LevelAdmin},
		{"Read", LevelRead},
	}
	for _, c := range cases {
		got, err := ParseAccessLevel(c.in)
		if err != nil {
			t.Errorf("ParseAccessLevel(%q) returned error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseAccessLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	if _, err := ParseAccessLevel("owner"); !cerr.IsCode(err, cerr.InvalidArgument) {
		t.Errorf("Expected InvalidArgument for unknown level, got %v", err)
	}
}

func TestAccessLevelOrdering(t *testing.T) {
	if !(LevelNone < LevelRead && LevelRead < LevelWrite && LevelWrite < LevelAdmin) {
		t.Error("Access levels are not ordered none < read < write < admin")
	}
}

func TestCanAccess(t *testing.T) {
	cases := []struct {
		name     string
		grant    Grant
		required AccessLevel
		code     cerr.Code
	}{
		{
			name:     "pi overrides missing membership",
			grant:    Grant{Roles: []string{"pi"}},
			required: LevelAdmin,
			code:     cerr.OK,
		},
		{
			name:     "member at the required level",
			grant:    Grant{Member: true, Level: LevelWrite},
			required: LevelWrite,
			code:     cerr.OK,
		},
		{
			name:     "member above the required level",
			grant:    Grant{Member: true, Level: LevelAdmin},
			required: LevelRead,
			code:     cerr.OK,
		},
		{
			name:     "not a member",
			grant:    Grant{Roles: []string{"researcher"}},
			required: LevelRead,
			code:     cerr.NotAMember,
		},
		{
			name:     "member below the required level",
			grant:    Grant{Member: true, Level: LevelRead},
			required: LevelWrite,
			code:     cerr.InsufficientAccess,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := CanAccess(c.grant, c.required)
			if c.code == cerr.OK {
				if err != nil {
					t.Errorf("Expected access, got %v", err)
				}
				return
			}
			if !cerr.IsCode(err, c.code) {
				t.Errorf("Expected code %s, got %v", c.code, err)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	roles := []string{"researcher", "pi"}
	if err := RequireRole(roles, "pi"); err != nil {
		t.Errorf("Expected pi to pass, got %v", err)
	}
	if err := RequireRole(roles, "admin", "researcher"); err != nil {
		t.Errorf("Expected any-of match to pass, got %v", err)
	}
	if err := RequireRole([]string{"student"}, "pi"); !cerr.IsCode(err, cerr.PermissionDenied) {
		t.Errorf("Expected PermissionDenied, got %v", err)
	}
	if err := RequireRole(nil, "pi"); err == nil {
		t.Error("Expected error for empty role set")
	}
}
