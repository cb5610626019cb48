package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aclgate/aclgate/internal/acl"
	"github.com/aclgate/aclgate/internal/authz"
	"github.com/aclgate/aclgate/pkg/cerr"
)

func (s *Server) handleACLGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rel := chi.URLParam(r, "*")
	if _, err := s.access.authorizePath(ctx, rel, authz.LevelRead); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	result, err := s.aclService.Get(ctx, rel)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSON(ctx, w, result)
}

func (s *Server) handleACLApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rel := chi.URLParam(r, "*")
	user, err := s.access.authorizePath(ctx, rel, authz.LevelAdmin)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	var req aclChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	result, err := s.aclService.Apply(ctx, rel, user.Username, acl.ChangeRequest{
		Add:       req.Entries,
		Recursive: req.Recursive,
	})
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSON(ctx, w, result)
}

func (s *Server) handleACLRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rel := chi.URLParam(r, "*")
	user, err := s.access.authorizePath(ctx, rel, authz.LevelAdmin)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	var req aclChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	result, err := s.aclService.Revoke(ctx, rel, user.Username, req.Entries, req.Recursive)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSON(ctx, w, result)
}
