package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bugboard/bugboard/internal/apperror"
	"github.com/bugboard/bugboard/internal/models"
)

// ErrMalformedLogin is returned when the login response lacks a token or a role.
var ErrMalformedLogin = errors.New("login response missing token or role")

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	ID    *int   `json:"id"`
	Type  string `json:"type"`
	Email string `json:"email"`
	// Roles holds the granted authorities. The backend sends them under
	// "roles"; "role" is accepted as well, either as a string or a list.
	Roles []string `json:"-"`
}

// UnmarshalJSON accepts both "roles" and "role" as string or list.
func (r *LoginResponse) UnmarshalJSON(b []byte) error {
	type plain LoginResponse
	aux := struct {
		*plain
		RolesRaw json.RawMessage `json:"roles"`
		RoleRaw  json.RawMessage `json:"role"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	for _, raw := range []json.RawMessage{aux.RolesRaw, aux.RoleRaw} {
		roles, err := stringOrList(raw)
		if err != nil {
			return err
		}
		r.Roles = append(r.Roles, roles...)
	}
	return nil
}

// Role maps the granted authorities to a client role: any authority
// containing "ADMIN", in any case, yields RoleAdmin.
func (r LoginResponse) Role() models.Role {
	for _, role := range r.Roles {
		if strings.Contains(strings.ToUpper(role), string(models.RoleAdmin)) {
			return models.RoleAdmin
		}
	}
	return models.RoleUser
}

// AuthService performs the login exchange.
type AuthService struct {
	t Transport
}

// NewAuthService returns an AuthService over t.
func NewAuthService(t Transport) *AuthService {
	return &AuthService{t: t}
}

// Login posts the credentials and returns the parsed response. A body that
// is empty, unparseable, or missing a token or role is an error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := s.t.Post(ctx, pathLogin, LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperror.NewUnexpectedError("login", ErrMalformedLogin)
	}
	var resp LoginResponse
	if err := decode("login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || len(resp.Roles) == 0 {
		return nil, apperror.NewUnexpectedError("login", ErrMalformedLogin)
	}
	return &resp, nil
}

func stringOrList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
