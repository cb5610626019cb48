package execx

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/aclgate/aclgate/pkg/cerr"
)

// ToolSpec describes how to verify that an external tool is usable:
// resolve Program on PATH, run it with CheckArgs, and expect CheckText
// somewhere in the combined output.
type ToolSpec struct {
	Program   string
	CheckArgs []string
	CheckText string
}

const toolCheckTimeout = 10 * time.Second

// LookTool verifies a single tool per its spec.
func LookTool(ctx context.Context, spec ToolSpec) error {
	path, err := exec.LookPath(spec.Program)
	if err != nil {
		return cerr.NewError(cerr.CommandUnavailable,
			fmt.Sprintf("%s is not available", spec.Program), err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, toolCheckTimeout)
	defer cancel()
	out, err := exec.CommandContext(checkCtx, path, spec.CheckArgs...).CombinedOutput()
	if err != nil {
		return cerr.NewError(cerr.CommandUnavailable,
			fmt.Sprintf("%s failed its version check", spec.Program), err)
	}
	if !strings.Contains(string(out), spec.CheckText) {
		return cerr.NewError(cerr.CommandUnavailable,
			fmt.Sprintf("%s version check output does not look like %q", spec.Program, spec.CheckText), nil)
	}
	return nil
}

// VerifyACLTools confirms at startup that the getfacl and setfacl
// binaries the service shells out to exist and respond.
func VerifyACLTools(ctx context.Context) error {
	specs := []ToolSpec{
		{Program: "getfacl", CheckArgs: []string{"--version"}, CheckText: "getfacl"},
		{Program: "setfacl", CheckArgs: []string{"--version"}, CheckText: "setfacl"},
	}
	for _, spec := range specs {
		if err := LookTool(ctx, spec); err != nil {
			return err
		}
	}
	return nil
}
