package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/go-chi/chi/v5"
)

// UserService defines the account operations required by the UserHandler.
type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	RegisterUser(ctx context.Context, email, password string, role models.Role) (models.User, error)
	FindUser(ctx context.Context, email string) (models.User, error)
}

// UserHandler handles account listing, lookup and creation.
type UserHandler struct {
	UserService UserService
}

// CreateUserRequest represents the JSON payload for account creation.
type CreateUserRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// ListUsers handles GET /api/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /api/users. Only administrators reach it.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	user, err := h.UserService.RegisterUser(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// UserByEmail handles GET /api/users/email/{email}: the account, or 404.
func (h *UserHandler) UserByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.FindUser(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
