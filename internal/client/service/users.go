package service

import (
	"bytes"
	"context"
	"net/url"

	"github.com/bugboard/bugboard/internal/models"
)

// UserCreateRequest is the body of POST /users.
type UserCreateRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// UserService manages user accounts.
type UserService struct {
	t Transport
}

// NewUserService returns a UserService over t.
func NewUserService(t Transport) *UserService {
	return &UserService{t: t}
}

// FetchAll returns every account visible to the current session.
func (s *UserService) FetchAll(ctx context.Context) ([]models.User, error) {
	body, err := s.t.Get(ctx, pathUsers)
	if err != nil {
		return nil, err
	}
	return decodeList[models.User]("users", body)
}

// Create registers a new account and returns it as stored by the server.
func (s *UserService) Create(ctx context.Context, req UserCreateRequest) (models.User, error) {
	body, err := s.t.Post(ctx, pathUsers, req)
	if err != nil {
		return models.User{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return models.User{}, ErrEmptyResponse
	}
	var created models.User
	if err := decode("user", body, &created); err != nil {
		return models.User{}, err
	}
	created.PasswordSecret = ""
	return created, nil
}

// Exists looks the e-mail up on the server. A 2xx answer with a body means
// the account exists, an empty or null 2xx body means it does not. Every failure,
// including 404, is returned as is for the caller's policy to interpret.
func (s *UserService) Exists(ctx context.Context, email string) (bool, error) {
	body, err := s.t.Get(ctx, pathUserByEmail+url.PathEscape(email))
	if err != nil {
		return false, err
	}
	body = bytes.TrimSpace(body)
	return len(body) > 0 && !bytes.Equal(body, []byte("null")), nil
}
