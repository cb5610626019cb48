// Package audit persists one record per ACL mutation attempt. Records are
// append-only YAML documents in a blob store, keyed by ULID so that key
// order is creation order.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/aclgate/aclgate/pkg/blob"
	"github.com/aclgate/aclgate/pkg/cerr"
)

const keyPrefix = "audit/"

// Record is one mutation attempt against one path, success or failure.
// Before and After hold the entry listings around the attempt; Diff is
// the unified diff between them for human review.
type Record struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	User      string    `json:"user" yaml:"user"`
	Path      string    `json:"path" yaml:"path"`
	Action    string    `json:"action" yaml:"action"`
	Before    string    `json:"before,omitempty" yaml:"before,omitempty"`
	After     string    `json:"after,omitempty" yaml:"after,omitempty"`
	Diff      string    `json:"diff,omitempty" yaml:"diff,omitempty"`
	Applied   int       `json:"applied" yaml:"applied"`
	Total     int       `json:"total" yaml:"total"`
	Success   bool      `json:"success" yaml:"success"`
	Error     string    `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

type Recorder struct {
	store blob.Store
}

func NewRecorder(store blob.Store) *Recorder {
	return &Recorder{store: store}
}

// Record persists one attempt. It must never fail the mutation it
// describes, so storage errors are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, rec Record) {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.Diff == "" {
		rec.Diff = unifiedDiff(rec.Before, rec.After)
	}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal audit record", "id", rec.ID, "error", err)
		return
	}
	if err := r.store.Write(ctx, r.key(rec.ID), data); err != nil {
		slog.ErrorContext(ctx, "failed to persist audit record", "id", rec.ID, "error", err)
	}
}

type Query struct {
	PathPrefix string
	Limit      int
}

// List returns records newest first. ULID keys sort chronologically, so
// reading in reverse key order is reading in reverse time order.
func (r *Recorder) List(ctx context.Context, q Query) ([]Record, error) {
	keys, err := r.store.List(ctx, strings.TrimSuffix(keyPrefix, "/"))
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to list audit records", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	records := make([]Record, 0, len(keys))
	for _, key := range keys {
		if q.Limit > 0 && len(records) >= q.Limit {
			break
		}
		data, err := r.store.Read(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "failed to read audit record", "key", key, "error", err)
			continue
		}
		var rec Record
		if err := yaml.Unmarshal(data, &rec); err != nil {
			slog.WarnContext(ctx, "skipping malformed audit record", "key", key, "error", err)
			continue
		}
		if q.PathPrefix != "" && !strings.HasPrefix(rec.Path, q.PathPrefix) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *Recorder) key(id string) string {
	return fmt.Sprintf("%s%s.yaml", keyPrefix, id)
}

func unifiedDiff(before, after string) string {
	if before == after {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "before",
		ToFile:   "after",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}
