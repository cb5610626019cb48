package acl

import (
	"testing"

	"github.com/aclgate/aclgate/pkg/cerr"
)

func TestParsePermissions(t *testing.T) {
	valid := []string{"rwx", "rw-", "r-x", "r--", "-wx", "-w-", "--x", "---"}
	for _, s := range valid {
		p, err := ParsePermissions(s)
		if err != nil {
			t.Fatalf("ParsePermissions(%q) returned error: %v", s, err)
		}
		if p.String() != s {
			t.Errorf("ParsePermissions(%q).String() = %q, want %q", s, p.String(), s)
		}
	}

	invalid := []string{"", "rw", "rwxr", "xwr", "rw+", "RWX", "r w", "r-w"}
	for _, s := range invalid {
		_, err := ParsePermissions(s)
		if err == nil {
			t.Errorf("ParsePermissions(%q) succeeded, want error", s)
			continue
		}
		if !cerr.IsCode(err, cerr.InvalidPermissionFormat) {
			t.Errorf("ParsePermissions(%q) error code = %v, want InvalidPermissionFormat", s, err)
		}
	}
}

func TestPermissionsString(t *testing.T) {
	cases := []struct {
		perms Permissions
		want  string
	}{
		{Permissions{Read: true, Write: true, Execute: true}, "rwx"},
		{Permissions{Read: true}, "r--"},
		{Permissions{Write: true}, "-w-"},
		{Permissions{Execute: true}, "--x"},
		{Permissions{}, "---"},
	}
	for _, c := range cases {
		if got := c.perms.String(); got != c.want {
			t.Errorf("%+v.String() = %q, want %q", c.perms, got, c.want)
		}
	}
}

func TestPermissionsFromListing(t *testing.T) {
	if p := permissionsFromListing("rw-"); !p.Read || !p.Write || p.Execute {
		t.Errorf("permissionsFromListing(\"rw-\") = %+v", p)
	}
	// Malformed tool output canonicalizes to no permissions instead of failing.
	for _, s := range []string{"", "rw", "rwxx"} {
		if p := permissionsFromListing(s); p != (Permissions{}) {
			t.Errorf("permissionsFromListing(%q) = %+v, want zero", s, p)
		}
	}
}
