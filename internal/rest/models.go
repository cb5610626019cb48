package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aclgate/aclgate/internal/acl"
	"github.com/aclgate/aclgate/internal/store"
	"github.com/aclgate/aclgate/pkg/cerr"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	User        userDTO `json:"user"`
}

type userDTO struct {
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Roles     []string   `json:"roles"`
	Active    bool       `json:"active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type projectDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StoragePath string    `json:"storage_path"`
	PI          string    `json:"pi"`
	CreatedAt   time.Time `json:"created_at"`
}

type projectDetailDTO struct {
	projectDTO
	Members []memberDTO `json:"members"`
}

type memberDTO struct {
	Username  string    `json:"username"`
	Level     string    `json:"access_level"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StoragePath string `json:"storage_path"`
}

type setMemberRequest struct {
	Username string `json:"username"`
	Level    string `json:"access_level"`
}

type aclChangeRequest struct {
	Entries   []acl.EntrySpec `json:"entries"`
	Recursive bool            `json:"recursive"`
}

func toUserDTO(u *store.User, roles []string) userDTO {
	if roles == nil {
		roles = []string{}
	}
	return userDTO{
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Roles:     roles,
		Active:    u.Active,
		LastLogin: u.LastLogin,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return cerr.NewError(cerr.InvalidArgument, "invalid request body", err)
	}
	return nil
}
