package acl

import (
	"fmt"

	"github.com/aclgate/aclgate/pkg/cerr"
)

// Permissions is the read/write/execute triple attached to one ACL entry.
type Permissions struct {
	Read    bool `json:"read" yaml:"read"`
	Write   bool `json:"write" yaml:"write"`
	Execute bool `json:"execute" yaml:"execute"`
}

// String renders the positional rwx form, always exactly three bytes.
func (p Permissions) String() string {
	b := []byte{'-', '-', '-'}
	if p.Read {
		b[0] = 'r'
	}
	if p.Write {
		b[1] = 'w'
	}
	if p.Execute {
		b[2] = 'x'
	}
	return string(b)
}

// ParsePermissions is the strict form used at the API boundary: the input
// must be exactly three bytes with r, w, x (or -) in their fixed positions.
func ParsePermissions(s string) (Permissions, error) {
	if len(s) != 3 {
		return Permissions{}, cerr.NewError(cerr.InvalidPermissionFormat,
			fmt.Sprintf("permissions must be a 3-character string like \"rwx\" or \"r--\", got %q", s), nil)
	}
	var p Permissions
	for i, want := range [3]byte{'r', 'w', 'x'} {
		switch s[i] {
		case want:
		case '-':
			continue
		default:
			return Permissions{}, cerr.NewError(cerr.InvalidPermissionFormat,
				fmt.Sprintf("invalid permission character %q at position %d in %q", s[i], i, s), nil)
		}
		switch i {
		case 0:
			p.Read = true
		case 1:
			p.Write = true
		case 2:
			p.Execute = true
		}
	}
	return p, nil
}

// permissionsFromListing is the total form used on trusted tool output:
// it never fails and canonicalizes anything malformed to all-false.
func permissionsFromListing(s string) Permissions {
	if len(s) != 3 {
		return Permissions{}
	}
	return Permissions{
		Read:    s[0] == 'r',
		Write:   s[1] == 'w',
		Execute: s[2] == 'x',
	}
}
