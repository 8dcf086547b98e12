package controller

import (
	"context"
	"strings"

	"github.com/bugboard/bugboard/internal/client/dispatch"
	"github.com/bugboard/bugboard/internal/client/service"
	"github.com/bugboard/bugboard/internal/models"
	"go.uber.org/zap"
)

// UserAPI is the user endpoint set used by UserController.
type UserAPI interface {
	UserProber
	FetchAll(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, req service.UserCreateRequest) (models.User, error)
}

// UserInput is what an administrator fills in to create an account.
type UserInput struct {
	Email    string
	Password string
	Role     models.Role
}

// UserController keeps Store.Users in sync with the server and creates
// accounts.
type UserController struct {
	deps   *Deps
	api    UserAPI
	exists *ExistenceCheck
	gen    dispatch.Generation
}

// NewUserController returns a controller whose existence probe uses policy
// (nil means FailSafeExists).
func NewUserController(deps *Deps, api UserAPI, policy ExistencePolicy) *UserController {
	return &UserController{
		deps:   deps,
		api:    api,
		exists: NewExistenceCheck(api, policy, deps.Log),
	}
}

// Refresh reloads every account in the background and replaces Store.Users
// on the loop. Superseded results are dropped; failures are reported.
func (c *UserController) Refresh() {
	if !c.deps.Session.IsLoggedIn() {
		c.deps.failLater("refresh users", ErrNotLoggedIn)
		return
	}

	tok := c.gen.Next()
	dispatch.Submit(c.deps.Loop, c.api.FetchAll, func(list []models.User, err error) {
		if !c.gen.Current(tok) {
			c.deps.logger().Debug("dropping superseded user refresh")
			return
		}
		if err != nil {
			c.deps.fail("refresh users", err, nil)
			return
		}
		c.deps.Store.Users.ReplaceAll(list)
		c.deps.logger().Debug("users refreshed", zap.Int("count", len(list)))
	})
}

// Create validates in and creates the account in the background. Only an
// administrator may create accounts. The e-mail is trimmed and lower-cased;
// an e-mail already in Store.Users is rejected at once, and the server is
// probed with ExistsUser before the account is posted.
func (c *UserController) Create(in UserInput, cb Callbacks[models.User]) error {
	if !c.deps.Session.IsAdmin() {
		return ErrNotAdmin
	}
	email := models.NormalizeUsername(in.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	if strings.TrimSpace(in.Password) == "" {
		return ErrEmptyPassword
	}
	if len(in.Password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if !in.Role.Valid() {
		return ErrMissingRole
	}
	if c.deps.Store.HasUsername(email) {
		return ErrUserExists
	}

	req := service.UserCreateRequest{Email: email, Password: in.Password, Role: in.Role}
	dispatch.Submit(c.deps.Loop, func(ctx context.Context) (models.User, error) {
		exists, err := c.exists.ExistsUser(ctx, email)
		if err != nil {
			return models.User{}, err
		}
		if exists {
			return models.User{}, ErrUserExists
		}
		return c.api.Create(ctx, req)
	}, func(created models.User, err error) {
		if err != nil {
			c.deps.fail("create user", err, cb.OnFailure)
			return
		}
		c.deps.Store.Users.Append(created)
		cb.success(created)
	})
	return nil
}

// ExistsUser probes the server for email under the controller's policy. It
// blocks and must not run on the UI loop.
func (c *UserController) ExistsUser(ctx context.Context, email string) (bool, error) {
	return c.exists.ExistsUser(ctx, email)
}
