package rest

import (
	"net/http"
	"strconv"

	"github.com/aclgate/aclgate/internal/audit"
	"github.com/aclgate/aclgate/internal/authz"
	"github.com/aclgate/aclgate/pkg/cerr"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

func (s *Server) handleAuditList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, err := s.access.requireRole(ctx, authz.RolePI); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			cerr.WriteError(ctx, w, cerr.NewError(cerr.InvalidArgument, "limit must be a positive integer", err))
			return
		}
		limit = min(n, maxAuditLimit)
	}
	records, err := s.recorder.List(ctx, audit.Query{
		PathPrefix: r.URL.Query().Get("path"),
		Limit:      limit,
	})
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSON(ctx, w, records)
}
