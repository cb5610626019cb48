package repositoryimpl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aclgate/aclgate/internal/authz"
	"github.com/aclgate/aclgate/internal/store"
	"github.com/aclgate/aclgate/pkg/cerr"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              TEXT PRIMARY KEY,
	username        TEXT NOT NULL UNIQUE,
	email           TEXT NOT NULL DEFAULT '',
	full_name       TEXT NOT NULL DEFAULT '',
	hashed_password TEXT NOT NULL DEFAULT '',
	source          TEXT NOT NULL DEFAULT 'local',
	active          INTEGER NOT NULL DEFAULT 1,
	last_login      INTEGER,
	created_at      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_roles (
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role    TEXT NOT NULL,
	PRIMARY KEY (user_id, role)
);
CREATE TABLE IF NOT EXISTS projects (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	description  TEXT NOT NULL DEFAULT '',
	storage_path TEXT NOT NULL UNIQUE,
	pi_user_id   TEXT NOT NULL REFERENCES users(id),
	created_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS memberships (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	level      TEXT NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (project_id, user_id)
);
CREATE INDEX IF NOT EXISTS idx_memberships_user ON memberships(user_id);
`

// OpenDB opens (creating if needed) the SQLite file and migrates the
// schema. The returned handle is shared by the repositories.
func OpenDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps the driver from
	// returning SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}

type SQLiteUserRepository struct {
	db *sql.DB
}

func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func (r *SQLiteUserRepository) Create(ctx context.Context, u *store.User) error {
	_, err := r.GetByUsername(ctx, u.Username)
	if err == nil {
		return cerr.NewError(cerr.AlreadyExists, "user already exists", nil)
	}
	if !cerr.IsCode(err, cerr.NotFound) {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, full_name, hashed_password, source, active, last_login, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FullName, u.HashedPassword, string(u.Source), u.Active, nullUnix(u.LastLogin), u.CreatedAt.Unix())
	if err != nil {
		return cerr.WrapDBWriteError("user", err)
	}
	return nil
}

func (r *SQLiteUserRepository) Upsert(ctx context.Context, u *store.User) (*store.User, error) {
	existing, err := r.GetByUsername(ctx, u.Username)
	if err != nil {
		if !cerr.IsCode(err, cerr.NotFound) {
			return nil, err
		}
		if err := r.Create(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	existing.Email = u.Email
	existing.FullName = u.FullName
	existing.Source = u.Source
	if u.LastLogin != nil {
		existing.LastLogin = u.LastLogin
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET email = ?, full_name = ?, source = ?, last_login = ? WHERE id = ?`,
		existing.Email, existing.FullName, string(existing.Source), nullUnix(existing.LastLogin), existing.ID)
	if err != nil {
		return nil, cerr.WrapDBWriteError("user", err)
	}
	return existing, nil
}

func (r *SQLiteUserRepository) GetByUsername(ctx context.Context, username string) (*store.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, hashed_password, source, active, last_login, created_at
		FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, cerr.WrapDBReadError("user", err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*store.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, full_name, hashed_password, source, active, last_login, created_at
		FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, cerr.WrapDBReadError("user", err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) List(ctx context.Context) ([]*store.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, email, full_name, hashed_password, source, active, last_login, created_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, cerr.WrapDBReadError("users", err)
	}
	defer rows.Close()
	var users []*store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, cerr.WrapDBReadError("users", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapDBReadError("users", err)
	}
	return users, nil
}

func (r *SQLiteUserRepository) SetActive(ctx context.Context, username string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET active = ? WHERE username = ?`, active, username)
	if err != nil {
		return cerr.WrapDBWriteError("user", err)
	}
	return requireHit(res, "user")
}

func (r *SQLiteUserRepository) TouchLastLogin(ctx context.Context, username string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE username = ?`, at.Unix(), username)
	if err != nil {
		return cerr.WrapDBWriteError("user", err)
	}
	return requireHit(res, "user")
}

func (r *SQLiteUserRepository) GrantRole(ctx context.Context, username, role string) error {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, u.ID, role)
	if err != nil {
		return cerr.WrapDBWriteError("role", err)
	}
	return nil
}

func (r *SQLiteUserRepository) RevokeRole(ctx context.Context, username, role string) error {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ? AND role = ?`, u.ID, role)
	if err != nil {
		return cerr.WrapDBWriteError("role", err)
	}
	return nil
}

func (r *SQLiteUserRepository) Roles(ctx context.Context, username string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ur.role FROM user_roles ur
		JOIN users u ON u.id = ur.user_id
		WHERE u.username = ? ORDER BY ur.role`, username)
	if err != nil {
		return nil, cerr.WrapDBReadError("roles", err)
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, cerr.WrapDBReadError("roles", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapDBReadError("roles", err)
	}
	return roles, nil
}

func (r *SQLiteUserRepository) ReplaceRoles(ctx context.Context, username string, roles []string) error {
	u, err := r.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return cerr.WrapDBWriteError("roles", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, u.ID); err != nil {
		return cerr.WrapDBWriteError("roles", err)
	}
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, u.ID, role); err != nil {
			return cerr.WrapDBWriteError("roles", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return cerr.WrapDBWriteError("roles", err)
	}
	return nil
}

type SQLiteProjectRepository struct {
	db *sql.DB
}

func NewSQLiteProjectRepository(db *sql.DB) *SQLiteProjectRepository {
	return &SQLiteProjectRepository{db: db}
}

func (r *SQLiteProjectRepository) Create(ctx context.Context, p *store.Project) error {
	p.StoragePath = normalizeRel(p.StoragePath)
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM projects WHERE name = ? OR storage_path = ?`, p.Name, p.StoragePath).Scan(&id)
	if err == nil {
		return cerr.NewError(cerr.AlreadyExists, "project already exists", nil)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return cerr.WrapDBReadError("project", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, storage_path, pi_user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.StoragePath, p.PIUserID, p.CreatedAt.Unix())
	if err != nil {
		return cerr.WrapDBWriteError("project", err)
	}
	return nil
}

func (r *SQLiteProjectRepository) Get(ctx context.Context, id string) (*store.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, storage_path, pi_user_id, created_at
		FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, cerr.WrapDBReadError("project", err)
	}
	return p, nil
}

func (r *SQLiteProjectRepository) GetByName(ctx context.Context, name string) (*store.Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, storage_path, pi_user_id, created_at
		FROM projects WHERE name = ?`, name)
	p, err := scanProject(row)
	if err != nil {
		return nil, cerr.WrapDBReadError("project", err)
	}
	return p, nil
}

func (r *SQLiteProjectRepository) List(ctx context.Context) ([]*store.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, storage_path, pi_user_id, created_at
		FROM projects ORDER BY name`)
	if err != nil {
		return nil, cerr.WrapDBReadError("projects", err)
	}
	defer rows.Close()
	var projects []*store.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, cerr.WrapDBReadError("projects", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapDBReadError("projects", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepository) ForPath(ctx context.Context, relPath string) (*store.Project, error) {
	projects, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	rel := normalizeRel(relPath)
	var best *store.Project
	for _, p := range projects {
		if rel != p.StoragePath && !strings.HasPrefix(rel, p.StoragePath+"/") {
			continue
		}
		if best == nil || len(p.StoragePath) > len(best.StoragePath) {
			best = p
		}
	}
	return best, nil
}

func (r *SQLiteProjectRepository) SetMembership(ctx context.Context, m *store.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (project_id, user_id, level, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, user_id) DO UPDATE SET level = excluded.level, updated_at = excluded.updated_at`,
		m.ProjectID, m.UserID, m.Level.String(), m.UpdatedAt.Unix())
	if err != nil {
		return cerr.WrapDBWriteError("membership", err)
	}
	return nil
}

func (r *SQLiteProjectRepository) GetMembership(ctx context.Context, projectID, userID string) (*store.Membership, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT project_id, user_id, level, updated_at
		FROM memberships WHERE project_id = ? AND user_id = ?`, projectID, userID)
	m, err := scanMembership(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, cerr.WrapDBReadError("membership", err)
	}
	return m, nil
}

func (r *SQLiteProjectRepository) ListMembers(ctx context.Context, projectID string) ([]*store.Membership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT project_id, user_id, level, updated_at
		FROM memberships WHERE project_id = ? ORDER BY user_id`, projectID)
	if err != nil {
		return nil, cerr.WrapDBReadError("memberships", err)
	}
	defer rows.Close()
	var members []*store.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, cerr.WrapDBReadError("memberships", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.WrapDBReadError("memberships", err)
	}
	return members, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*store.User, error) {
	var (
		u         store.User
		source    string
		lastLogin sql.NullInt64
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.HashedPassword, &source, &u.Active, &lastLogin, &createdAt); err != nil {
		return nil, err
	}
	u.Source = store.UserSource(source)
	if lastLogin.Valid {
		t := time.Unix(lastLogin.Int64, 0).UTC()
		u.LastLogin = &t
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

func scanProject(row scanner) (*store.Project, error) {
	var (
		p         store.Project
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.StoragePath, &p.PIUserID, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &p, nil
}

func scanMembership(row scanner) (*store.Membership, error) {
	var (
		m         store.Membership
		level     string
		updatedAt int64
	)
	if err := row.Scan(&m.ProjectID, &m.UserID, &level, &updatedAt); err != nil {
		return nil, err
	}
	lvl, err := authz.ParseAccessLevel(level)
	if err != nil {
		return nil, err
	}
	m.Level = lvl
	m.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &m, nil
}

func requireHit(res sql.Result, target string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return cerr.WrapDBWriteError(target, err)
	}
	if n == 0 {
		return cerr.NewError(cerr.NotFound, fmt.Sprintf("%s not found", target), nil)
	}
	return nil
}

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func normalizeRel(p string) string {
	return strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(p)), "/")
}
