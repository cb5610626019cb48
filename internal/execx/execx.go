// Package execx runs the ACL tools as argv vectors. Commands never pass
// through a shell; callers hand over the exact vector and get back the
// exit code and captured output. Policy (what an exit code means) lives
// with the caller.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"

	"github.com/aclgate/aclgate/pkg/cerr"
)

const waitDelay = 5 * time.Second

// Result is the outcome of one completed invocation. Code is the process
// exit code; a non-zero code is data, not an error.
type Result struct {
	Code   int
	Stdout string
	Stderr string
}

// Runner executes argv vectors with a per-invocation deadline.
type Runner struct {
	timeout time.Duration
}

func NewRunner(timeout time.Duration) *Runner {
	return &Runner{timeout: timeout}
}

// Run executes argv and waits for completion. It never retries. A process
// that cannot be launched yields CommandUnavailable; one that outlives the
// deadline is killed and yields CommandTimeout. Exit codes of processes
// that ran to completion are reported in Result, not as errors.
func (r *Runner) Run(ctx context.Context, argv ...string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, cerr.NewError(cerr.Internal, "empty command", nil)
	}

	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Bound pipe draining after the context kills the process.
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	code := 0
	if cmd.ProcessState != nil {
		code = cmd.ProcessState.ExitCode()
	}
	slog.DebugContext(ctx, "command finished",
		"command", Render(argv),
		"duration", duration,
		"code", code,
	)

	if runErr != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return Result{}, cerr.NewError(cerr.CommandTimeout,
				fmt.Sprintf("%s did not finish within %s", argv[0], r.timeout), runErr)
		}
		if errors.Is(execCtx.Err(), context.Canceled) {
			return Result{}, cerr.NewError(cerr.Canceled, "command canceled", runErr)
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return Result{
				Code:   exitErr.ExitCode(),
				Stdout: stdout.String(),
				Stderr: stderr.String(),
			}, nil
		}
		return Result{}, cerr.NewError(cerr.CommandUnavailable,
			fmt.Sprintf("%s is not available", argv[0]), runErr)
	}

	return Result{
		Code:   0,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}, nil
}

// Render formats argv as a copy-pasteable shell line for logs and audit
// records. It quotes each argument; it is never fed back into a shell by
// this package.
func Render(argv []string) string {
	parts := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = strconv.Quote(arg)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}
