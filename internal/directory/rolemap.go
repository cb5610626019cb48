package directory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/aclgate/aclgate/pkg/panicerr"
)

// reloadDebounce is the delay after an fsnotify event before re-reading
// the file, letting rapid events from an atomic replace settle.
const reloadDebounce = 100 * time.Millisecond

// RoleMap translates directory affiliations into role sets. The mapping
// comes from a YAML file of the form `faculty: [pi]` and reloads live
// while the server runs; a broken edit keeps the last good mapping.
type RoleMap struct {
	mu      sync.RWMutex
	mapping map[string][]string
	path    string
}

// DefaultMapping covers the common eduPersonAffiliation values.
func DefaultMapping() map[string][]string {
	return map[string][]string{
		"faculty":    {"pi"},
		"staff":      {"pi"},
		"researcher": {"researcher"},
		"student":    {"researcher"},
	}
}

// NewRoleMap returns a map backed by no file, using the defaults.
func NewRoleMap() *RoleMap {
	return &RoleMap{mapping: DefaultMapping()}
}

// LoadRoleMap reads the mapping file. A missing or malformed file is an
// error here; once loaded, later reloads fall back to the last good map.
func LoadRoleMap(path string) (*RoleMap, error) {
	m := &RoleMap{path: path}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RoleMap) reload() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("failed to read role map: %w", err)
	}
	mapping := map[string][]string{}
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return fmt.Errorf("failed to parse role map: %w", err)
	}
	m.mu.Lock()
	m.mapping = mapping
	m.mu.Unlock()
	return nil
}

// RolesFor returns the union of the roles mapped from the given
// affiliations, deduplicated and sorted.
func (m *RoleMap) RolesFor(affiliations []string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, aff := range affiliations {
		for _, role := range m.mapping[aff] {
			seen[role] = struct{}{}
		}
	}
	roles := make([]string, 0, len(seen))
	for role := range seen {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Watch reloads the mapping when its file changes. It watches the parent
// directory rather than the file itself: editors and config deploys do
// atomic replace (write temp file, rename), which changes the inode.
func (m *RoleMap) Watch(ctx context.Context) error {
	if m.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create role map watcher: %w", err)
	}
	watchDir := filepath.Dir(m.path)
	fileName := filepath.Base(m.path)
	if err := watcher.Add(watchDir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", watchDir, err)
	}
	panicerr.Go(ctx, "rolemap-watch", func(ctx context.Context) error {
		defer watcher.Close()
		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != fileName {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if err := m.reload(); err != nil {
						slog.WarnContext(ctx, "role map reload failed, keeping previous mapping", "path", m.path, "error", err)
						return
					}
					slog.InfoContext(ctx, "role map reloaded", "path", m.path)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				slog.WarnContext(ctx, "role map watcher error", "error", err)
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
