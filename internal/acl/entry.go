package acl

import (
	"fmt"

	"github.com/aclgate/aclgate/pkg/cerr"
)

// EntityType is the closed set of principals an ACL entry can refer to.
type EntityType string

const (
	EntityUser  EntityType = "user"
	EntityGroup EntityType = "group"
	EntityMask  EntityType = "mask"
	EntityOther EntityType = "other"
)

func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityUser, EntityGroup, EntityMask, EntityOther:
		return EntityType(s), nil
	}
	return "", cerr.NewError(cerr.InvalidEntity, fmt.Sprintf("invalid entity type: %q", s), nil)
}

// Entry is one parsed ACL entry. Name is empty for the owning user/group
// entry and for mask/other. Default marks entries from a directory's
// default (inheritable) ACL.
type Entry struct {
	Type        EntityType  `json:"type" yaml:"type"`
	Name        string      `json:"name" yaml:"name"`
	Permissions Permissions `json:"permissions" yaml:"permissions"`
	Default     bool        `json:"default" yaml:"default"`
}

// EntryKey identifies an entry semantically. Two listings are compared by
// key, not by position.
type EntryKey struct {
	Type    EntityType
	Name    string
	Default bool
}

func (e Entry) Key() EntryKey {
	return EntryKey{Type: e.Type, Name: e.Name, Default: e.Default}
}

// String renders the getfacl line form of the entry.
func (e Entry) String() string {
	if e.Default {
		return fmt.Sprintf("default:%s:%s:%s", e.Type, e.Name, e.Permissions)
	}
	return fmt.Sprintf("%s:%s:%s", e.Type, e.Name, e.Permissions)
}

// EntrySpec is the wire form of an entry in change requests: permissions
// travel as their rwx string and are validated strictly.
type EntrySpec struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Permissions string `json:"permissions"`
	Default     bool   `json:"default"`
}

// ToEntry validates the wire form and converts it. Unknown entity kinds
// and malformed permission strings are rejected; mask and other entries
// must not carry a qualifier.
func (s EntrySpec) ToEntry() (Entry, error) {
	typ, err := ParseEntityType(s.Type)
	if err != nil {
		return Entry{}, err
	}
	if (typ == EntityMask || typ == EntityOther) && s.Name != "" {
		return Entry{}, cerr.NewError(cerr.InvalidEntity,
			fmt.Sprintf("%s entries do not take a name, got %q", typ, s.Name), nil)
	}
	perms, err := ParsePermissions(s.Permissions)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Type:        typ,
		Name:        s.Name,
		Permissions: perms,
		Default:     s.Default,
	}, nil
}

// PathACL is the full ACL state of one path. DefaultEntries is non-nil
// only for directories; an empty non-nil slice means the directory has no
// default ACL.
type PathACL struct {
	Path           string  `json:"path"`
	Owner          string  `json:"owner"`
	Group          string  `json:"group"`
	Entries        []Entry `json:"entries"`
	DefaultEntries []Entry `json:"default_entries"`
	IsDirectory    bool    `json:"is_directory"`
}
