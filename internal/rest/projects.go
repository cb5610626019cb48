package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/aclgate/aclgate/internal/authz"
	"github.com/aclgate/aclgate/internal/store"
	"github.com/aclgate/aclgate/pkg/cerr"
)

func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, roles, err := s.access.currentUser(ctx)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	projects, err := s.projects.List(ctx)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	isPI := authz.RequireRole(roles, authz.RolePI) == nil
	dtos := make([]projectDTO, 0, len(projects))
	for _, p := range projects {
		if !isPI {
			membership, err := s.projects.GetMembership(ctx, p.ID, user.ID)
			if err != nil {
				cerr.WriteError(ctx, w, err)
				return
			}
			if membership == nil {
				continue
			}
		}
		dtos = append(dtos, s.toProjectDTO(ctx, p))
	}
	cerr.WriteJSON(ctx, w, dtos)
}

func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := s.access.requireRole(ctx, authz.RolePI)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	if req.Name == "" || req.StoragePath == "" {
		cerr.WriteError(ctx, w, cerr.NewError(cerr.InvalidArgument, "name and storage_path are required", nil))
		return
	}
	p := &store.Project{
		ID:          ulid.Make().String(),
		Name:        req.Name,
		Description: req.Description,
		StoragePath: req.StoragePath,
		PIUserID:    user.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.projects.Create(ctx, p); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSONStatus(ctx, w, http.StatusCreated, s.toProjectDTO(ctx, p))
}

func (s *Server) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := s.projects.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	if _, err := s.access.authorizeProject(ctx, project, authz.LevelRead); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	memberships, err := s.projects.ListMembers(ctx, project.ID)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	members := make([]memberDTO, 0, len(memberships))
	for _, m := range memberships {
		member, err := s.users.GetByID(ctx, m.UserID)
		if err != nil {
			cerr.WriteError(ctx, w, err)
			return
		}
		members = append(members, memberDTO{
			Username:  member.Username,
			Level:     m.Level.String(),
			UpdatedAt: m.UpdatedAt,
		})
	}
	cerr.WriteJSON(ctx, w, projectDetailDTO{
		projectDTO: s.toProjectDTO(ctx, project),
		Members:    members,
	})
}

func (s *Server) handleProjectSetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project, err := s.projects.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	if _, err := s.access.authorizeProject(ctx, project, authz.LevelAdmin); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	var req setMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	level, err := authz.ParseAccessLevel(req.Level)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	target, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	m := &store.Membership{
		ProjectID: project.ID,
		UserID:    target.ID,
		Level:     level,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.projects.SetMembership(ctx, m); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSON(ctx, w, memberDTO{
		Username:  target.Username,
		Level:     m.Level.String(),
		UpdatedAt: m.UpdatedAt,
	})
}

func (s *Server) toProjectDTO(ctx context.Context, p *store.Project) projectDTO {
	pi := p.PIUserID
	if u, err := s.users.GetByID(ctx, p.PIUserID); err == nil {
		pi = u.Username
	}
	return projectDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		StoragePath: p.StoragePath,
		PI:          pi,
		CreatedAt:   p.CreatedAt,
	}
}
