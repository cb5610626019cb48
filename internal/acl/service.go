package acl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/aclgate/aclgate/internal/audit"
	"github.com/aclgate/aclgate/internal/execx"
	"github.com/aclgate/aclgate/internal/fsmeta"
	"github.com/aclgate/aclgate/internal/pathguard"
	"github.com/aclgate/aclgate/pkg/cerr"
)

// CommandRunner runs one tool invocation and reports what happened.
// Interpreting the exit code is the service's job, not the runner's.
type CommandRunner interface {
	Run(ctx context.Context, argv ...string) (execx.Result, error)
}

// Service reads and mutates POSIX ACLs inside the storage root.
type Service struct {
	guard    *pathguard.Guard
	runner   CommandRunner
	recorder *audit.Recorder
	locks    *pathLocks
}

func NewService(guard *pathguard.Guard, runner CommandRunner, recorder *audit.Recorder) *Service {
	return &Service{
		guard:    guard,
		runner:   runner,
		recorder: recorder,
		locks:    newPathLocks(),
	}
}

// ApplyResult reports how much of a change request ran.
type ApplyResult struct {
	Applied int `json:"applied"`
	Total   int `json:"total"`
}

// Get returns the full ACL state of relPath. Reads take no lock.
func (s *Service) Get(ctx context.Context, relPath string) (*PathACL, error) {
	abs, meta, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	res, err := s.runner.Run(ctx, ReadPlan(abs)...)
	if err != nil {
		return nil, err
	}
	if res.Code != 0 {
		return nil, toolFailed("getfacl", res)
	}

	access, def := SplitDefault(ParseListing(res.Stdout))
	if access == nil {
		access = []Entry{}
	}
	if meta.IsDirectory {
		// Directories always carry a default entry list, possibly empty.
		if def == nil {
			def = []Entry{}
		}
	} else {
		def = nil
	}
	return &PathACL{
		Path:           relPath,
		Owner:          meta.Owner,
		Group:          meta.Group,
		Entries:        access,
		DefaultEntries: def,
		IsDirectory:    meta.IsDirectory,
	}, nil
}

// Apply validates req, expands it into tool commands, and runs them in
// order under the path's mutation lock. The first failing command aborts
// the rest; the error then reports how many entries went through, since
// applied changes are not rolled back. Exactly one audit record is
// written per attempt, success or failure, before the lock is released.
func (s *Service) Apply(ctx context.Context, relPath, username string, req ChangeRequest) (*ApplyResult, error) {
	abs, meta, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	plan, err := PlanChange(req, abs, meta.IsDirectory)
	if err != nil {
		return nil, err
	}

	lock := s.locks.get(abs)
	lock.Lock()
	defer lock.Unlock()

	before := s.snapshot(ctx, abs)
	applied := 0
	var execErr error
	for _, cmd := range plan.Commands {
		res, err := s.runner.Run(ctx, cmd.Argv...)
		if err != nil {
			execErr = err
			break
		}
		if res.Code != 0 {
			execErr = toolFailed("setfacl", res)
			break
		}
		applied++
	}
	after := s.snapshot(ctx, abs)

	total := len(plan.Commands)
	rec := audit.Record{
		User:    username,
		Path:    relPath,
		Action:  string(plan.Action),
		Before:  before,
		After:   after,
		Applied: applied,
		Total:   total,
		Success: execErr == nil,
	}
	if execErr != nil {
		rec.Error = execErr.Error()
	}
	s.recorder.Record(ctx, rec)

	if execErr != nil {
		cErr := cerr.From(execErr)
		cErr.Msg = fmt.Sprintf("%s; %d of %d changes applied, the ACL may be partially modified", cErr.Msg, applied, total)
		return nil, cErr.WithMeta("applied", applied).WithMeta("total", total).WithMeta("partial", true)
	}
	return &ApplyResult{Applied: applied, Total: total}, nil
}

// Revoke removes entries; the DELETE surface maps here.
func (s *Service) Revoke(ctx context.Context, relPath, username string, entries []EntrySpec, recursive bool) (*ApplyResult, error) {
	return s.Apply(ctx, relPath, username, ChangeRequest{Remove: entries, Recursive: recursive})
}

func (s *Service) resolve(relPath string) (string, *fsmeta.Meta, error) {
	abs, err := s.guard.Resolve(relPath)
	if err != nil {
		return "", nil, err
	}
	meta, err := fsmeta.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, cerr.NewError(cerr.PathNotFound, fmt.Sprintf("path not found: %s", relPath), err)
		}
		return "", nil, cerr.NewError(cerr.Internal, "failed to stat path", err)
	}
	return abs, meta, nil
}

// snapshot reads the current listing for the audit trail, best effort.
func (s *Service) snapshot(ctx context.Context, abs string) string {
	res, err := s.runner.Run(ctx, ReadPlan(abs)...)
	if err != nil || res.Code != 0 {
		return ""
	}
	return FormatListing(ParseListing(res.Stdout))
}

// toolFailed keeps stderr out of the user-facing message; it travels in
// the wrapped error for the logs and the audit record.
func toolFailed(tool string, res execx.Result) error {
	var detail error
	if msg := strings.TrimSpace(res.Stderr); msg != "" {
		detail = errors.New(msg)
	}
	return cerr.NewError(cerr.ToolExecutionFailed,
		fmt.Sprintf("%s exited with code %d", tool, res.Code), detail)
}
