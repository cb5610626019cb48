package execx

import (
	"context"
	"testing"
	"time"

	"github.com/aclgate/aclgate/pkg/cerr"
)

func TestRun(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(10 * time.Second)

	res, err := r.Run(ctx, "echo", "hello")
	if err != nil {
		t.Fatalf("Failed to run echo: %v", err)
	}
	if res.Code != 0 {
		t.Errorf("Expected exit code 0, got %d", res.Code)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("Expected stdout %q, got %q", "hello\n", res.Stdout)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(10 * time.Second)

	// A non-zero exit is data, not an error.
	res, err := r.Run(ctx, "sh", "-c", "echo oops >&2; exit 3")
	if err != nil {
		t.Fatalf("Expected no error for a non-zero exit, got: %v", err)
	}
	if res.Code != 3 {
		t.Errorf("Expected exit code 3, got %d", res.Code)
	}
	if res.Stderr != "oops\n" {
		t.Errorf("Expected stderr %q, got %q", "oops\n", res.Stderr)
	}
}

func TestRunMissingBinary(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(10 * time.Second)

	_, err := r.Run(ctx, "definitely-not-a-real-binary")
	if err == nil {
		t.Fatal("Expected error for a missing binary")
	}
	if !cerr.IsCode(err, cerr.CommandUnavailable) {
		t.Errorf("Expected CommandUnavailable, got %v", err)
	}
}

func TestRunTimeout(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(100 * time.Millisecond)

	start := time.Now()
	_, err := r.Run(ctx, "sleep", "10")
	if err == nil {
		t.Fatal("Expected timeout error")
	}
	if !cerr.IsCode(err, cerr.CommandTimeout) {
		t.Errorf("Expected CommandTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Timeout took too long: %s", elapsed)
	}
}

func TestRunEmptyArgv(t *testing.T) {
	r := NewRunner(time.Second)
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("Expected error for empty argv")
	}
}

func TestRender(t *testing.T) {
	cases := []struct {
		argv []string
		want string
	}{
		{[]string{"getfacl", "-c", "/data/project1"}, "getfacl -c /data/project1"},
		{[]string{"setfacl", "-m", "user:alice:rw-", "/data/my files"}, "setfacl -m user:alice:rw- '/data/my files'"},
		{[]string{"echo", "a$b"}, "echo 'a$b'"},
	}
	for _, c := range cases {
		if got := Render(c.argv); got != c.want {
			t.Errorf("Render(%v) = %q, want %q", c.argv, got, c.want)
		}
	}
}

func TestLookTool(t *testing.T) {
	ctx := context.Background()

	err := LookTool(ctx, ToolSpec{Program: "echo", CheckArgs: []string{"hello"}, CheckText: "hello"})
	if err != nil {
		t.Errorf("Expected echo check to pass: %v", err)
	}

	err = LookTool(ctx, ToolSpec{Program: "definitely-not-a-real-binary"})
	if err == nil {
		t.Error("Expected error for a missing tool")
	}
	if !cerr.IsCode(err, cerr.CommandUnavailable) {
		t.Errorf("Expected CommandUnavailable, got %v", err)
	}

	err = LookTool(ctx, ToolSpec{Program: "echo", CheckArgs: []string{"hello"}, CheckText: "goodbye"})
	if err == nil {
		t.Error("Expected error for mismatched check text")
	}
}
