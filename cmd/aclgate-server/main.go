package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aclgate/aclgate/internal/acl"
	"github.com/aclgate/aclgate/internal/audit"
	"github.com/aclgate/aclgate/internal/auth"
	"github.com/aclgate/aclgate/internal/config"
	"github.com/aclgate/aclgate/internal/directory"
	"github.com/aclgate/aclgate/internal/execx"
	"github.com/aclgate/aclgate/internal/files"
	"github.com/aclgate/aclgate/internal/pathguard"
	"github.com/aclgate/aclgate/internal/rest"
	"github.com/aclgate/aclgate/internal/store/repositoryimpl"
	"github.com/aclgate/aclgate/pkg/blob"
	"github.com/aclgate/aclgate/pkg/clog"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Refuse to start without the ACL tooling the whole service rests on.
	if err := execx.VerifyACLTools(ctx); err != nil {
		slog.Error("ACL tools unavailable", "error", err)
		os.Exit(1)
	}

	// Setup audit storage
	var auditStore blob.Store
	switch env.AuditEnv.Type {
	case "s3":
		auditStore, err = blob.NewS3Store(ctx, env.AuditEnv.S3Bucket, env.AuditEnv.S3Prefix, env.AuditEnv.S3Region)
		if err != nil {
			slog.Error("failed to create S3 audit store", "error", err)
			os.Exit(1)
		}
	default:
		auditStore, err = blob.NewLocalStore(env.AuditEnv.BaseDir)
		if err != nil {
			slog.Error("failed to create local audit store", "error", err)
			os.Exit(1)
		}
	}
	recorder := audit.NewRecorder(auditStore)

	// Setup identity and project store
	db, err := repositoryimpl.OpenDB(env.StoreEnv.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	users := repositoryimpl.NewSQLiteUserRepository(db)
	projects := repositoryimpl.NewSQLiteProjectRepository(db)

	// Setup ACL services
	guard, err := pathguard.New(env.ACLEnv.StorageRoot)
	if err != nil {
		slog.Error("failed to resolve storage root", "error", err, "root", env.ACLEnv.StorageRoot)
		os.Exit(1)
	}
	runner := execx.NewRunner(env.ACLEnv.CommandTimeout)
	aclService := acl.NewService(guard, runner, recorder)
	fileService := files.NewService(guard, &env.FilesEnv)

	// Setup directory login
	var dir *directory.Client
	if env.LDAPEnv.Addr != "" {
		dir = directory.NewClient(env.LDAPEnv.Addr, env.LDAPEnv.BaseDN, env.LDAPEnv.UserDNTemplate, env.LDAPEnv.StartTLS)
	}
	roleMap := directory.NewRoleMap()
	if env.LDAPEnv.RoleMapPath != "" {
		roleMap, err = directory.LoadRoleMap(env.LDAPEnv.RoleMapPath)
		if err != nil {
			slog.Error("failed to load role map", "error", err, "path", env.LDAPEnv.RoleMapPath)
			os.Exit(1)
		}
		if err := roleMap.Watch(ctx); err != nil {
			slog.Warn("role map hot reload disabled", "error", err)
		}
	}

	issuer := auth.NewTokenIssuer(env.SecretKey, env.TokenExpiry)
	authn := auth.NewAuthenticator(users, issuer, dir, roleMap)

	srv := rest.NewServer(env, authn, users, projects, aclService, fileService, recorder)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	// Give active connections time to finish after request contexts are cancelled.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
