package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/oklog/ulid/v2"

	"github.com/aclgate/aclgate/internal/audit"
	"github.com/aclgate/aclgate/internal/auth"
	"github.com/aclgate/aclgate/internal/authz"
	"github.com/aclgate/aclgate/internal/store"
	"github.com/aclgate/aclgate/internal/store/repositoryimpl"
	"github.com/aclgate/aclgate/pkg/blob"
)

var (
	app    = kingpin.New("aclgate", "Operator tool for the aclgate storage ACL service")
	dbPath = app.Flag("db", "Path to the identity database").Envar("ACLGATE_DATABASE_PATH").Default("aclgate.db").String()

	// User commands
	userCmd = app.Command("user", "User management commands")

	userAddCmd      = userCmd.Command("add", "Add a local user")
	userAddName     = userAddCmd.Arg("username", "Username").Required().String()
	userAddPassword = userAddCmd.Flag("password", "Password for the account").Required().String()
	userAddEmail    = userAddCmd.Flag("email", "Email address").String()
	userAddFullName = userAddCmd.Flag("full-name", "Display name").String()
	userAddRoles    = userAddCmd.Flag("role", "Role to grant, repeatable").Strings()

	userListCmd = userCmd.Command("list", "List users")

	userDeactivateCmd  = userCmd.Command("deactivate", "Deactivate a user")
	userDeactivateName = userDeactivateCmd.Arg("username", "Username").Required().String()

	userActivateCmd  = userCmd.Command("activate", "Reactivate a user")
	userActivateName = userActivateCmd.Arg("username", "Username").Required().String()

	// Role commands
	roleCmd = app.Command("role", "Role management commands")

	roleGrantCmd  = roleCmd.Command("grant", "Grant a role to a user")
	roleGrantUser = roleGrantCmd.Arg("username", "Username").Required().String()
	roleGrantRole = roleGrantCmd.Arg("role", "Role name").Required().String()

	roleRevokeCmd  = roleCmd.Command("revoke", "Revoke a role from a user")
	roleRevokeUser = roleRevokeCmd.Arg("username", "Username").Required().String()
	roleRevokeRole = roleRevokeCmd.Arg("role", "Role name").Required().String()

	// Project commands
	projectCmd = app.Command("project", "Project management commands")

	projectCreateCmd  = projectCmd.Command("create", "Register a project")
	projectCreateName = projectCreateCmd.Arg("name", "Project name").Required().String()
	projectCreatePath = projectCreateCmd.Arg("storage-path", "Project directory relative to the storage root").Required().String()
	projectCreatePI   = projectCreateCmd.Flag("pi", "Username of the principal investigator").Required().String()
	projectCreateDesc = projectCreateCmd.Flag("description", "Project description").String()

	projectListCmd = projectCmd.Command("list", "List projects")

	// Membership commands
	memberCmd = app.Command("member", "Project membership commands")

	memberSetCmd     = memberCmd.Command("set", "Set a member's access level")
	memberSetProject = memberSetCmd.Arg("project", "Project name").Required().String()
	memberSetUser    = memberSetCmd.Arg("username", "Username").Required().String()
	memberSetLevel   = memberSetCmd.Arg("level", "Access level: none, read, write or admin").Required().String()

	// Audit commands
	auditCmd = app.Command("audit", "Audit log commands")

	auditTailCmd    = auditCmd.Command("tail", "Show recent audit records")
	auditTailPath   = auditTailCmd.Flag("path", "Filter by path prefix").String()
	auditTailLimit  = auditTailCmd.Flag("limit", "Maximum records to show").Default("20").Int()
	auditTailDiff   = auditTailCmd.Flag("diff", "Print the before/after diff of each record").Bool()
	auditTailDir    = auditTailCmd.Flag("audit-dir", "Local audit directory").Envar("ACLGATE_AUDIT_DIR").Default(".aclgate/audit").String()
	auditTailBucket = auditTailCmd.Flag("s3-bucket", "Read audit records from this S3 bucket instead of the local directory").Envar("ACLGATE_AUDIT_S3_BUCKET").String()
	auditTailPrefix = auditTailCmd.Flag("s3-prefix", "Key prefix inside the audit bucket").Envar("ACLGATE_AUDIT_S3_PREFIX").Default("aclgate/").String()
	auditTailRegion = auditTailCmd.Flag("s3-region", "Region of the audit bucket").Envar("ACLGATE_AUDIT_S3_REGION").Default("ap-northeast-1").String()
)

func main() {
	ctx := context.Background()
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var err error
	switch command {
	case userAddCmd.FullCommand():
		err = handleUserAdd(ctx)
	case userListCmd.FullCommand():
		err = handleUserList(ctx)
	case userDeactivateCmd.FullCommand():
		err = handleUserSetActive(ctx, *userDeactivateName, false)
	case userActivateCmd.FullCommand():
		err = handleUserSetActive(ctx, *userActivateName, true)
	case roleGrantCmd.FullCommand():
		err = handleRoleGrant(ctx)
	case roleRevokeCmd.FullCommand():
		err = handleRoleRevoke(ctx)
	case projectCreateCmd.FullCommand():
		err = handleProjectCreate(ctx)
	case projectListCmd.FullCommand():
		err = handleProjectList(ctx)
	case memberSetCmd.FullCommand():
		err = handleMemberSet(ctx)
	case auditTailCmd.FullCommand():
		err = handleAuditTail(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore() (*sql.DB, error) {
	return repositoryimpl.OpenDB(*dbPath)
}

func handleUserAdd(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)

	hashed, err := auth.HashPassword(*userAddPassword)
	if err != nil {
		return err
	}
	u := &store.User{
		ID:             ulid.Make().String(),
		Username:       *userAddName,
		Email:          *userAddEmail,
		FullName:       *userAddFullName,
		HashedPassword: hashed,
		Source:         store.SourceLocal,
		Active:         true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := users.Create(ctx, u); err != nil {
		return err
	}
	for _, role := range *userAddRoles {
		if err := users.GrantRole(ctx, u.Username, role); err != nil {
			return err
		}
	}
	fmt.Printf("Created user %s\n", color.GreenString(u.Username))
	return nil
}

func handleUserList(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)

	list, err := users.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("USERNAME\tSOURCE\tROLES\tACTIVE\tLAST LOGIN"))
	for _, u := range list {
		roles, err := users.Roles(ctx, u.Username)
		if err != nil {
			return err
		}
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format(time.RFC3339)
		}
		active := color.GreenString("yes")
		if !u.Active {
			active = color.RedString("no")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Username, u.Source, strings.Join(roles, ","), active, lastLogin)
	}
	return w.Flush()
}

func handleUserSetActive(ctx context.Context, username string, active bool) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)

	if err := users.SetActive(ctx, username, active); err != nil {
		return err
	}
	state := "Deactivated"
	if active {
		state = "Activated"
	}
	fmt.Printf("%s user %s\n", state, username)
	return nil
}

func handleRoleGrant(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)

	if _, err := users.GetByUsername(ctx, *roleGrantUser); err != nil {
		return err
	}
	if err := users.GrantRole(ctx, *roleGrantUser, *roleGrantRole); err != nil {
		return err
	}
	fmt.Printf("Granted role %s to %s\n", color.CyanString(*roleGrantRole), *roleGrantUser)
	return nil
}

func handleRoleRevoke(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)

	if err := users.RevokeRole(ctx, *roleRevokeUser, *roleRevokeRole); err != nil {
		return err
	}
	fmt.Printf("Revoked role %s from %s\n", color.CyanString(*roleRevokeRole), *roleRevokeUser)
	return nil
}

func handleProjectCreate(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)
	projects := repositoryimpl.NewSQLiteProjectRepository(db)

	pi, err := users.GetByUsername(ctx, *projectCreatePI)
	if err != nil {
		return err
	}
	p := &store.Project{
		ID:          ulid.Make().String(),
		Name:        *projectCreateName,
		Description: *projectCreateDesc,
		StoragePath: *projectCreatePath,
		PIUserID:    pi.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := projects.Create(ctx, p); err != nil {
		return err
	}
	fmt.Printf("Created project %s (%s)\n", color.GreenString(p.Name), p.StoragePath)
	return nil
}

func handleProjectList(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)
	projects := repositoryimpl.NewSQLiteProjectRepository(db)

	list, err := projects.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("NAME\tSTORAGE PATH\tPI\tDESCRIPTION"))
	for _, p := range list {
		piName := p.PIUserID
		if pi, err := users.GetByID(ctx, p.PIUserID); err == nil {
			piName = pi.Username
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.StoragePath, piName, p.Description)
	}
	return w.Flush()
}

func handleMemberSet(ctx context.Context) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)
	projects := repositoryimpl.NewSQLiteProjectRepository(db)

	level, err := authz.ParseAccessLevel(*memberSetLevel)
	if err != nil {
		return err
	}
	p, err := projects.GetByName(ctx, *memberSetProject)
	if err != nil {
		return err
	}
	u, err := users.GetByUsername(ctx, *memberSetUser)
	if err != nil {
		return err
	}
	m := &store.Membership{
		ProjectID: p.ID,
		UserID:    u.ID,
		Level:     level,
		UpdatedAt: time.Now().UTC(),
	}
	if err := projects.SetMembership(ctx, m); err != nil {
		return err
	}
	fmt.Printf("Set %s on %s to %s\n", u.Username, p.Name, color.CyanString(level.String()))
	return nil
}

func handleAuditTail(ctx context.Context) error {
	var (
		bs  blob.Store
		err error
	)
	if *auditTailBucket != "" {
		bs, err = blob.NewS3Store(ctx, *auditTailBucket, *auditTailPrefix, *auditTailRegion)
	} else {
		bs, err = blob.NewLocalStore(*auditTailDir)
	}
	if err != nil {
		return err
	}
	recorder := audit.NewRecorder(bs)

	records, err := recorder.List(ctx, audit.Query{PathPrefix: *auditTailPath, Limit: *auditTailLimit})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, color.New(color.Bold).Sprint("TIME\tUSER\tACTION\tPATH\tRESULT"))
	for _, rec := range records {
		result := color.GreenString("ok (%d/%d)", rec.Applied, rec.Total)
		if !rec.Success {
			result = color.RedString("failed: %s", rec.Error)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.Timestamp.Format(time.RFC3339), rec.User, rec.Action, rec.Path, result)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if *auditTailDiff {
		for _, rec := range records {
			if rec.Diff == "" {
				continue
			}
			fmt.Printf("\n%s %s\n%s", color.New(color.Bold).Sprint(rec.ID), rec.Path, rec.Diff)
		}
	}
	return nil
}
