package controller

import (
	"context"
	"strings"

	"github.com/bugboard/bugboard/internal/client/dispatch"
	"github.com/bugboard/bugboard/internal/client/service"
	"github.com/bugboard/bugboard/internal/models"
	"go.uber.org/zap"
)

// AuthAPI performs the login exchange.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*service.LoginResponse, error)
}

// Refresher starts a background reload.
type Refresher interface {
	Refresh()
}

// AuthController signs the user in and out.
type AuthController struct {
	deps   *Deps
	api    AuthAPI
	issues Refresher
}

// NewAuthController returns a controller that triggers issues.Refresh after
// every successful login. issues may be nil.
func NewAuthController(deps *Deps, api AuthAPI, issues Refresher) *AuthController {
	return &AuthController{deps: deps, api: api, issues: issues}
}

type credentials struct {
	user  models.User
	token string
}

// Login authenticates and, on success, fills the session and starts an
// issue refresh without waiting for it. It blocks on the network, so call it
// off the UI loop or use LoginAsync. Empty input fails without a request.
func (c *AuthController) Login(ctx context.Context, email, password string) bool {
	creds, err := c.authenticate(ctx, email, password)
	if err != nil {
		c.deps.logger().Warn("login failed", zap.Error(err))
		return false
	}
	return c.establish(creds)
}

// LoginAsync runs the login request in the background; the session update,
// the refresh trigger and done run on the loop.
func (c *AuthController) LoginAsync(email, password string, done func(ok bool)) {
	dispatch.Submit(c.deps.Loop, func(ctx context.Context) (credentials, error) {
		return c.authenticate(ctx, email, password)
	}, func(creds credentials, err error) {
		ok := false
		if err != nil {
			c.deps.fail("login", err, nil)
		} else {
			ok = c.establish(creds)
		}
		if done != nil {
			done(ok)
		}
	})
}

// Logout clears the session. It is idempotent and does not cancel work
// already started.
func (c *AuthController) Logout() {
	user, ok := c.deps.Session.User()
	c.deps.Session.Logout()
	if ok {
		c.deps.logger().Info("logged out", zap.String("user", user.Username))
	}
}

func (c *AuthController) authenticate(ctx context.Context, email, password string) (credentials, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return credentials{}, ErrEmptyEmail
	}
	if password == "" {
		return credentials{}, ErrEmptyPassword
	}
	if !ValidEmail(email) {
		return credentials{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return credentials{}, ErrPasswordTooShort
	}

	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		return credentials{}, err
	}
	username := strings.TrimSpace(resp.Email)
	if username == "" {
		username = email
	}
	return credentials{
		user:  models.User{ID: resp.ID, Username: username, Role: resp.Role()},
		token: resp.Token,
	}, nil
}

func (c *AuthController) establish(creds credentials) bool {
	if err := c.deps.Session.Login(creds.user, creds.token); err != nil {
		c.deps.logger().Warn("login rejected", zap.Error(err))
		return false
	}
	c.deps.logger().Info("logged in",
		zap.String("user", creds.user.Username),
		zap.String("role", string(creds.user.Role)),
	)
	if c.issues != nil {
		c.issues.Refresh()
	}
	return true
}
