package acl

import (
	"reflect"
	"testing"

	"github.com/aclgate/aclgate/pkg/cerr"
)

func TestPlanChangeAdd(t *testing.T) {
	req := ChangeRequest{
		Add: []EntrySpec{
			{Type: "user", Name: "alice", Permissions: "rw-"},
			{Type: "group", Name: "lab", Permissions: "r-x", Default: true},
		},
	}
	plan, err := PlanChange(req, "/data/project1", true)
	if err != nil {
		t.Fatalf("PlanChange returned error: %v", err)
	}
	if plan.Action != ActionAdd {
		t.Errorf("Expected action add, got %s", plan.Action)
	}
	if len(plan.Commands) != 2 {
		t.Fatalf("Expected 2 commands, got %d", len(plan.Commands))
	}

	want := []string{"setfacl", "-m", "user:alice:rw-", "/data/project1"}
	if !reflect.DeepEqual(plan.Commands[0].Argv, want) {
		t.Errorf("Unexpected argv: %v, want %v", plan.Commands[0].Argv, want)
	}
	want = []string{"setfacl", "-d", "-m", "group:lab:r-x", "/data/project1"}
	if !reflect.DeepEqual(plan.Commands[1].Argv, want) {
		t.Errorf("Unexpected default argv: %v, want %v", plan.Commands[1].Argv, want)
	}
}

func TestPlanChangeRemove(t *testing.T) {
	// Removal specs carry no permissions on the wire.
	req := ChangeRequest{
		Remove:    []EntrySpec{{Type: "user", Name: "alice"}},
		Recursive: true,
	}
	plan, err := PlanChange(req, "/data/project1", true)
	if err != nil {
		t.Fatalf("PlanChange returned error: %v", err)
	}
	if plan.Action != ActionRemove {
		t.Errorf("Expected action remove, got %s", plan.Action)
	}
	want := []string{"setfacl", "-R", "-x", "user:alice", "/data/project1"}
	if !reflect.DeepEqual(plan.Commands[0].Argv, want) {
		t.Errorf("Unexpected argv: %v, want %v", plan.Commands[0].Argv, want)
	}
}

func TestPlanChangeMixed(t *testing.T) {
	req := ChangeRequest{
		Add:    []EntrySpec{{Type: "user", Name: "alice", Permissions: "rw-"}},
		Remove: []EntrySpec{{Type: "group", Name: "lab", Permissions: "---"}},
	}
	plan, err := PlanChange(req, "/data/p", false)
	if err != nil {
		t.Fatalf("PlanChange returned error: %v", err)
	}
	if plan.Action != ActionModify {
		t.Errorf("Expected action modify, got %s", plan.Action)
	}
	// Adds run before removes.
	if plan.Commands[0].Op != OpSet || plan.Commands[1].Op != OpDelete {
		t.Errorf("Unexpected command order: %+v", plan.Commands)
	}
}

func TestPlanChangeDuplicateAddsCollapse(t *testing.T) {
	req := ChangeRequest{
		Add: []EntrySpec{
			{Type: "user", Name: "alice", Permissions: "r--"},
			{Type: "user", Name: "alice", Permissions: "rwx"},
		},
	}
	plan, err := PlanChange(req, "/data/p", false)
	if err != nil {
		t.Fatalf("PlanChange returned error: %v", err)
	}
	if len(plan.Commands) != 1 {
		t.Fatalf("Expected duplicate keys to collapse, got %d commands", len(plan.Commands))
	}
	if plan.Commands[0].Entry.Permissions.String() != "rwx" {
		t.Errorf("Expected last occurrence to win, got %s", plan.Commands[0].Entry.Permissions)
	}
}

func TestPlanChangeValidation(t *testing.T) {
	cases := []struct {
		name  string
		req   ChangeRequest
		isDir bool
		code  cerr.Code
	}{
		{
			name: "empty request",
			req:  ChangeRequest{},
			code: cerr.InvalidOperation,
		},
		{
			name: "entry on both sides",
			req: ChangeRequest{
				Add:    []EntrySpec{{Type: "user", Name: "alice", Permissions: "rw-"}},
				Remove: []EntrySpec{{Type: "user", Name: "alice", Permissions: "---"}},
			},
			code: cerr.InvalidOperation,
		},
		{
			name: "remove base user entry",
			req:  ChangeRequest{Remove: []EntrySpec{{Type: "user", Permissions: "---"}}},
			code: cerr.InvalidEntity,
		},
		{
			name: "remove base group entry",
			req:  ChangeRequest{Remove: []EntrySpec{{Type: "group", Permissions: "---"}}},
			code: cerr.InvalidEntity,
		},
		{
			name: "recursive default removal on a file",
			req: ChangeRequest{
				Remove:    []EntrySpec{{Type: "user", Name: "alice", Permissions: "---", Default: true}},
				Recursive: true,
			},
			isDir: false,
			code:  cerr.InvalidOperation,
		},
		{
			name: "unknown entity type",
			req:  ChangeRequest{Add: []EntrySpec{{Type: "role", Name: "alice", Permissions: "rw-"}}},
			code: cerr.InvalidEntity,
		},
		{
			name: "mask with a name",
			req:  ChangeRequest{Add: []EntrySpec{{Type: "mask", Name: "alice", Permissions: "rw-"}}},
			code: cerr.InvalidEntity,
		},
		{
			name: "malformed permissions",
			req:  ChangeRequest{Add: []EntrySpec{{Type: "user", Name: "alice", Permissions: "rwxs"}}},
			code: cerr.InvalidPermissionFormat,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := PlanChange(c.req, "/data/p", c.isDir)
			if err == nil {
				t.Fatal("Expected error, got none")
			}
			if !cerr.IsCode(err, c.code) {
				t.Errorf("Expected code %s, got %v", c.code, err)
			}
		})
	}
}

func TestPlanChangeDefaultRemovalOnDirectory(t *testing.T) {
	req := ChangeRequest{
		Remove:    []EntrySpec{{Type: "user", Name: "alice", Permissions: "---", Default: true}},
		Recursive: true,
	}
	plan, err := PlanChange(req, "/data/p", true)
	if err != nil {
		t.Fatalf("Expected recursive default removal on a directory to pass: %v", err)
	}
	want := []string{"setfacl", "-R", "-d", "-x", "user:alice", "/data/p"}
	if !reflect.DeepEqual(plan.Commands[0].Argv, want) {
		t.Errorf("Unexpected argv: %v, want %v", plan.Commands[0].Argv, want)
	}
}
