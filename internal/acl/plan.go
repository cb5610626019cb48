package acl

import (
	"fmt"

	"github.com/aclgate/aclgate/pkg/cerr"
)

// ChangeRequest asks for a set of entries to be added or updated and a
// set to be removed, optionally recursing into a directory tree.
type ChangeRequest struct {
	Add       []EntrySpec `json:"entries_to_add"`
	Remove    []EntrySpec `json:"entries_to_remove"`
	Recursive bool        `json:"recursive"`
}

// ChangeOp distinguishes the two mutation spec kinds.
type ChangeOp string

const (
	OpSet    ChangeOp = "set"
	OpDelete ChangeOp = "delete"
)

// Action summarizes a change request for the audit trail.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionModify Action = "modify"
)

// PlannedCommand is one tool invocation realizing one mutation spec.
type PlannedCommand struct {
	Op    ChangeOp
	Entry Entry
	Argv  []string
}

// Plan is a validated change request expanded into the commands that
// realize it, adds before removes, in request order.
type Plan struct {
	Commands []PlannedCommand
	Action   Action
}

// ReadPlan returns the argv that lists the ACL of abs, comment header
// suppressed.
func ReadPlan(abs string) []string {
	return []string{"getfacl", "-c", abs}
}

// PlanChange validates req against the target and expands it. All
// validation happens here, before anything executes: entity kinds and
// permission strings must be well formed, an entry key must not appear on
// both sides of the request, removals of user/group entries must name
// their principal (base entries cannot be removed), and recursive
// default-ACL removal is rejected unless the target is a directory.
func PlanChange(req ChangeRequest, abs string, isDir bool) (*Plan, error) {
	adds, err := toEntries(req.Add, OpSet)
	if err != nil {
		return nil, err
	}
	removes, err := toEntries(req.Remove, OpDelete)
	if err != nil {
		return nil, err
	}
	if len(adds) == 0 && len(removes) == 0 {
		return nil, cerr.NewError(cerr.InvalidOperation, "change request contains no entries", nil)
	}

	addKeys := make(map[EntryKey]struct{}, len(adds))
	for _, e := range adds {
		addKeys[e.Key()] = struct{}{}
	}
	for _, e := range removes {
		if _, ok := addKeys[e.Key()]; ok {
			return nil, cerr.NewError(cerr.InvalidOperation,
				fmt.Sprintf("entry %s appears in both add and remove", e.String()), nil)
		}
	}

	var commands []PlannedCommand
	for _, e := range adds {
		commands = append(commands, PlannedCommand{
			Op:    OpSet,
			Entry: e,
			Argv:  mutateArgv(OpSet, e, req.Recursive, abs),
		})
	}
	for _, e := range removes {
		if (e.Type == EntityUser || e.Type == EntityGroup) && e.Name == "" {
			return nil, cerr.NewError(cerr.InvalidEntity,
				fmt.Sprintf("cannot remove the base %s entry; a named %s is required", e.Type, e.Type), nil)
		}
		if e.Default && req.Recursive && !isDir {
			return nil, cerr.NewError(cerr.InvalidOperation,
				"recursive removal of default entries requires a directory", nil)
		}
		commands = append(commands, PlannedCommand{
			Op:    OpDelete,
			Entry: e,
			Argv:  mutateArgv(OpDelete, e, req.Recursive, abs),
		})
	}

	action := ActionModify
	switch {
	case len(removes) == 0:
		action = ActionAdd
	case len(adds) == 0:
		action = ActionRemove
	}
	return &Plan{Commands: commands, Action: action}, nil
}

// toEntries strict-validates specs. Duplicate keys collapse to the last
// occurrence so a request cannot fight itself. Removal specs carry no
// meaningful permissions and may omit them.
func toEntries(specs []EntrySpec, op ChangeOp) ([]Entry, error) {
	var entries []Entry
	index := make(map[EntryKey]int)
	for _, spec := range specs {
		if op == OpDelete && spec.Permissions == "" {
			spec.Permissions = "---"
		}
		e, err := spec.ToEntry()
		if err != nil {
			return nil, err
		}
		if i, ok := index[e.Key()]; ok {
			entries[i] = e
			continue
		}
		index[e.Key()] = len(entries)
		entries = append(entries, e)
	}
	return entries, nil
}

func mutateArgv(op ChangeOp, e Entry, recursive bool, abs string) []string {
	argv := []string{"setfacl"}
	if recursive {
		argv = append(argv, "-R")
	}
	if e.Default {
		argv = append(argv, "-d")
	}
	if op == OpDelete {
		argv = append(argv, "-x", fmt.Sprintf("%s:%s", e.Type, e.Name))
	} else {
		argv = append(argv, "-m", fmt.Sprintf("%s:%s:%s", e.Type, e.Name, e.Permissions))
	}
	return append(argv, abs)
}
