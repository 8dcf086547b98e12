// Package service provides the business logic of the reference backend,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidInput marks a request the service refuses to process.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned by Login for an unknown e-mail or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned by ParseToken for a bad or expired token.
	ErrInvalidToken = errors.New("invalid token")
)

// UserRepository defines the persistence operations required by the
// authentication service.
type UserRepository interface {
	// CreateUser stores a new account; a taken e-mail yields
	// models.ErrConflict.
	CreateUser(ctx context.Context, acc models.Account) (models.User, error)
	// UserExists returns true if an account with the given e-mail exists.
	UserExists(ctx context.Context, email string) (bool, error)
	// AccountByEmail returns the account with its password hash, or
	// models.ErrNotFound.
	AccountByEmail(ctx context.Context, email string) (models.Account, error)
	// ListUsers returns every account.
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Claims are the JWT claims of an access token.
type Claims struct {
	UserID int         `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult is a successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// Service implements accounts and authentication by delegating storage to
// a UserRepository and signing HS256 tokens.
type Service struct {
	repo   UserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService constructs a Service signing tokens with secret that stay
// valid for ttl.
func NewAuthService(repo UserRepository, secret string, ttl time.Duration) *Service {
	return &Service{repo: repo, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Login checks the password of the account with email and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	acc, err := s.repo.AccountByEmail(ctx, models.NormalizeUsername(email))
	if errors.Is(err, models.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, exp, err := s.IssueToken(acc.User)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp, User: acc.User}, nil
}

// IssueToken signs a token for u.
func (s *Service) IssueToken(u models.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	id, _ := u.Key()
	claims := Claims{
		UserID: id,
		Email:  u.Username,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

// ParseToken verifies token and returns the user it was issued for.
func (s *Service) ParseToken(token string) (models.User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return models.User{ID: models.IntPtr(claims.UserID), Username: claims.Email, Role: claims.Role}, nil
}

// RegisterUser creates an account. The e-mail is normalized and the
// password stored as a bcrypt hash.
func (s *Service) RegisterUser(ctx context.Context, email, password string, role models.Role) (models.User, error) {
	email = models.NormalizeUsername(email)
	switch {
	case email == "" || !strings.Contains(email, "@"):
		return models.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case password == "":
		return models.User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	case !role.Valid():
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, models.Account{
		User:         models.User{Username: email, Role: role},
		PasswordHash: string(hash),
	})
}

// EnsureAdmin creates the administrator account unless one with email
// already exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	exists, err := s.UserExists(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = s.RegisterUser(ctx, email, password, models.RoleAdmin)
	if errors.Is(err, models.ErrConflict) {
		return nil
	}
	return err
}

// UserExists checks whether an account with the specified e-mail exists.
func (s *Service) UserExists(ctx context.Context, email string) (bool, error) {
	return s.repo.UserExists(ctx, models.NormalizeUsername(email))
}

// FindUser returns the account with email, or models.ErrNotFound.
func (s *Service) FindUser(ctx context.Context, email string) (models.User, error) {
	acc, err := s.repo.AccountByEmail(ctx, models.NormalizeUsername(email))
	if err != nil {
		return models.User{}, err
	}
	return acc.User, nil
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}
