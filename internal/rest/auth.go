package rest

import (
	"net/http"

	"github.com/aclgate/aclgate/pkg/cerr"
	"github.com/aclgate/aclgate/pkg/clog"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	session, err := s.authn.Login(ctx, req.Username, req.Password)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	clog.AddUser(ctx, session.User.Username)
	cerr.WriteJSON(ctx, w, loginResponse{
		AccessToken: session.Token,
		TokenType:   "bearer",
		User:        toUserDTO(session.User, session.Roles),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, roles, err := s.access.currentUser(ctx)
	if err != nil {
		cerr.WriteError(ctx, w, err)
		return
	}
	cerr.WriteJSON(ctx, w, toUserDTO(user, roles))
}
