// Package rest serves the HTTP API.
package rest

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/aclgate/aclgate/internal/acl"
	"github.com/aclgate/aclgate/internal/audit"
	"github.com/aclgate/aclgate/internal/auth"
	"github.com/aclgate/aclgate/internal/config"
	"github.com/aclgate/aclgate/internal/files"
	"github.com/aclgate/aclgate/internal/store"
	"github.com/aclgate/aclgate/pkg/cerr"
	"github.com/aclgate/aclgate/pkg/clog"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

type Server struct {
	server      *http.Server
	env         *config.Env
	authn       *auth.Authenticator
	access      *accessResolver
	users       store.UserRepository
	projects    store.ProjectRepository
	aclService  *acl.Service
	fileService *files.Service
	recorder    *audit.Recorder
}

func NewServer(
	env *config.Env,
	authn *auth.Authenticator,
	users store.UserRepository,
	projects store.ProjectRepository,
	aclService *acl.Service,
	fileService *files.Service,
	recorder *audit.Recorder,
) *Server {
	return &Server{
		env:         env,
		authn:       authn,
		access:      &accessResolver{users: users, projects: projects},
		users:       users,
		projects:    projects,
		aclService:  aclService,
		fileService: fileService,
		recorder:    recorder,
	}
}

// handler assembles the routing and middleware chain.
func (s *Server) handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			requestIDMiddleware,
			recoverMiddleware,
		)
		if s.env.RateLimitRPS > 0 {
			r.Use(rateLimitMiddleware(s.env.RateLimitRPS))
		}
		r.Post("/auth/login", s.handleLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.bearerAuthMiddleware)
			r.Get("/auth/me", s.handleMe)

			r.Get("/projects", s.handleProjectList)
			r.Post("/projects", s.handleProjectCreate)
			r.Get("/projects/{id}", s.handleProjectGet)
			r.Put("/projects/{id}/members", s.handleProjectSetMember)

			r.Get("/acl/*", s.handleACLGet)
			r.Post("/acl/*", s.handleACLApply)
			r.Delete("/acl/*", s.handleACLRevoke)

			r.Get("/files/browse/*", s.handleFileBrowse)
			r.Get("/files/info/*", s.handleFileInfo)
			r.Get("/files/preview/*", s.handleFilePreview)
			r.Post("/files/directory/*", s.handleCreateDirectory)

			r.Get("/audit", s.handleAuditList)
		})
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.WriteError(r.Context(), w, cerr.NewError(cerr.NotFound, "not found", nil))
		})
	})

	mux := http.NewServeMux()
	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/api/", r)

	return h2c.NewHandler(cors.New(cors.Options{
		AllowedOrigins:   s.env.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(mux), &http2.Server{})
}

// ListenAndServe starts the HTTP server. The provided context is the base
// context for all incoming requests via http.Server.BaseContext, so
// cancelling it (shutdown signal) also cancels in-flight request contexts.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.handler(),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cerr.WriteJSON(r.Context(), w, map[string]string{
		"status":  "ok",
		"version": Version,
	})
}
