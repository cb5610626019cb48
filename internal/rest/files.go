package rest

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aclgate/aclgate/internal/authz"
	"github.com/aclgate/aclgate/pkg/cerr"
	"github.com/aclgate/aclgate/pkg/clog"
)

func (s *Server) handleFileBrowse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rel := chi.URLParam(r, "*")
	if _, err := s.access.authorizePath(ctx, rel, authz.LevelRead); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	entries, err := s.fileService.Browse(ctx, rel)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSON(ctx, w, entries)
}

func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rel := chi.URLParam(r, "*")
	if _, err := s.access.authorizePath(ctx, rel, authz.LevelRead); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	entry, err := s.fileService.Info(ctx, rel)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSON(ctx, w, entry)
}

func (s *Server) handleFilePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rel := chi.URLParam(r, "*")
	if _, err := s.access.authorizePath(ctx, rel, authz.LevelRead); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	preview, err := s.fileService.PreviewFile(ctx, rel)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	defer preview.Content.Close()
	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(preview.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", preview.Name))
	if _, err := io.Copy(w, preview.Content); err != nil {
		clog.AddError(ctx, err)
	}
}

func (s *Server) handleCreateDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rel := chi.URLParam(r, "*")
	if _, err := s.access.authorizePath(ctx, rel, authz.LevelWrite); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	entry, err := s.fileService.CreateDirectory(ctx, rel)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSONStatus(ctx, w, http.StatusCreated, entry)
}
