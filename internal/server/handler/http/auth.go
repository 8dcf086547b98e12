// Package http provides the HTTP handlers and routing of the reference
// tracker backend.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/service"
)

// AuthService defines the authentication operations required by the
// AuthHandler.
type AuthService interface {
	// Login checks the credentials and issues a token.
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
}

// AuthHandler handles HTTP requests for login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token string   `json:"token"`
	ID    *int     `json:"id"`
	Type  string   `json:"type"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// Login handles POST /api/auth/login. It expects a JSON body with a
// non-empty e-mail and password and answers with a bearer token and the
// user's roles.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: res.Token,
		ID:    res.User.ID,
		Type:  "Bearer",
		Email: res.User.Username,
		Roles: []string{roleAuthority(res.User.Role)},
	})
}

func roleAuthority(r models.Role) string {
	return "ROLE_" + string(r)
}
