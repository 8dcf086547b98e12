// Package session holds the authenticated principal of a tracker client.
//
// A Session is created empty, filled by Login and cleared by Logout. The
// token and the user are swapped together as one immutable snapshot, so a
// reader on any goroutine sees either both or neither.
package session

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/bugboard/bugboard/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptyToken is returned by Login when no bearer token is supplied.
var ErrEmptyToken = errors.New("session: empty token")

type snapshot struct {
	token     string
	user      models.User
	expiresAt time.Time
}

// Session is the single authoritative authentication state of a client.
// The zero value is an empty session ready for use.
type Session struct {
	state atomic.Pointer[snapshot]
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

// Login replaces the current token and user in one step.
func (s *Session) Login(user models.User, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	s.state.Store(&snapshot{token: token, user: user, expiresAt: tokenExpiry(token)})
	return nil
}

// Logout clears the session. Calling it on an empty session is a no-op.
func (s *Session) Logout() {
	s.state.Store(nil)
}

// IsLoggedIn reports whether a token is present.
func (s *Session) IsLoggedIn() bool {
	return s.state.Load() != nil
}

// IsAdmin reports whether the current user has the ADMIN role.
func (s *Session) IsAdmin() bool {
	snap := s.state.Load()
	return snap != nil && snap.user.IsAdmin()
}

// User returns the current principal.
func (s *Session) User() (models.User, bool) {
	snap := s.state.Load()
	if snap == nil {
		return models.User{}, false
	}
	return snap.user, true
}

// Token returns the bearer token, or "" when logged out.
func (s *Session) Token() string {
	snap := s.state.Load()
	if snap == nil {
		return ""
	}
	return snap.token
}

// ExpiresAt returns the expiry encoded in a JWT bearer token. ok is false
// when logged out or when the token carries no readable expiry.
func (s *Session) ExpiresAt() (t time.Time, ok bool) {
	snap := s.state.Load()
	if snap == nil || snap.expiresAt.IsZero() {
		return time.Time{}, false
	}
	return snap.expiresAt, true
}

// Expired reports whether the token expiry, when known, is before now.
func (s *Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && now.After(exp)
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
