// Package pathguard confines request paths to the storage root. Every
// path taken from a request resolves through a Guard before it reaches
// stat, the ACL tools, or the file surface.
package pathguard

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/aclgate/aclgate/pkg/cerr"
)

type Guard struct {
	root string
}

// New builds a guard for root. The root itself is resolved through
// symlinks once so later containment checks compare canonical paths.
func New(root string) (*Guard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &Guard{root: abs}, nil
}

func (g *Guard) Root() string {
	return g.root
}

// Resolve maps a request path into the root and returns its absolute
// form. Dot-dot traversal, absolute escapes, and symlinks pointing
// outside the root are all PathEscape. The leaf does not have to exist;
// existence is the caller's concern.
func (g *Guard) Resolve(rel string) (string, error) {
	cleaned := filepath.Join(g.root, strings.TrimPrefix(rel, "/"))
	if !g.contains(cleaned) {
		return "", escapeErr(rel)
	}

	// The textual check above cannot see symlinks, so re-verify through
	// the longest existing ancestor.
	resolved, err := resolveExisting(cleaned)
	if err != nil {
		return "", cerr.NewError(cerr.Internal, "failed to resolve path", err)
	}
	if !g.contains(resolved) {
		return "", escapeErr(rel)
	}
	return resolved, nil
}

func (g *Guard) contains(abs string) bool {
	return abs == g.root || strings.HasPrefix(abs, g.root+string(filepath.Separator))
}

func escapeErr(rel string) error {
	return cerr.NewError(cerr.PathEscape, fmt.Sprintf("path escapes the storage root: %s", rel), nil)
}

// resolveExisting resolves symlinks along the longest existing prefix of
// path and reattaches the not-yet-existing remainder textually.
func resolveExisting(path string) (string, error) {
	suffix := ""
	p := path
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return path, nil
		}
		suffix = filepath.Join(filepath.Base(p), suffix)
		p = parent
	}
}
