// Package controller implements the client's use cases on top of the
// session, the store and the background dispatcher.
//
// Every asynchronous operation follows the same contract: input is validated
// synchronously and rejected with a validation error before any network
// call; the network call runs on a background goroutine; the outcome is
// applied to the store and reported to callbacks on the UI loop. A failed
// operation leaves the store untouched.
package controller

import (
	"errors"
	"regexp"

	"github.com/bugboard/bugboard/internal/apperror"
	"github.com/bugboard/bugboard/internal/client/dispatch"
	"github.com/bugboard/bugboard/internal/client/session"
	"github.com/bugboard/bugboard/internal/client/store"
	"github.com/bugboard/bugboard/internal/logger"
	"go.uber.org/zap"
)

// Validation failures returned synchronously by the controllers.
var (
	ErrNotLoggedIn         = apperror.NewValidationError("User must be logged in")
	ErrIssueNotLoggedIn    = apperror.NewValidationError("User must be logged in to create issues")
	ErrEmptyTitle          = apperror.NewValidationError("Issue title cannot be empty")
	ErrEmptyDescription    = apperror.NewValidationError("Issue description cannot be empty")
	ErrMissingIssueFields  = apperror.NewValidationError("Issue type, state and priority cannot be null")
	ErrNotAdmin            = apperror.NewValidationError("Only administrators can create users")
	ErrEmptyEmail          = apperror.NewValidationError("Email cannot be empty")
	ErrEmptyPassword       = apperror.NewValidationError("Password cannot be empty")
	ErrInvalidEmail        = apperror.NewValidationError("Invalid email format")
	ErrPasswordTooShort    = apperror.NewValidationError("Password must be at least 3 characters long")
	ErrMissingRole         = apperror.NewValidationError("User type cannot be null")
	ErrUserExists          = apperror.NewValidationError("User with this email already exists")
	ErrCommentNotLoggedIn  = apperror.NewValidationError("User must be logged in to add comments")
	ErrMissingIssue        = apperror.NewValidationError("Issue cannot be null")
	ErrEmptyComment        = apperror.NewValidationError("Comment content cannot be empty")
	ErrEmptyImageReference = apperror.NewValidationError("Image reference cannot be empty")
)

const (
	// MinPasswordLength is the shortest password accepted for login and
	// account creation.
	MinPasswordLength = 3
	// MaxEmailLength bounds the e-mail accepted for login.
	MaxEmailLength = 254
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,7}$`)

// ValidEmail reports whether email is a well-formed address of at most
// MaxEmailLength bytes.
func ValidEmail(email string) bool {
	return len(email) <= MaxEmailLength && emailPattern.MatchString(email)
}

// ErrImageUpload marks the secondary failure of an issue whose creation
// succeeded but whose image could not be uploaded.
var ErrImageUpload = errors.New("image upload failed")

// Callbacks receive the outcome of an asynchronous operation on the UI
// loop. Either field may be nil. On failure only OnFailure runs.
type Callbacks[T any] struct {
	OnSuccess func(T)
	OnFailure func(error)
}

func (cb Callbacks[T]) success(v T) {
	if cb.OnSuccess != nil {
		cb.OnSuccess(v)
	}
}

// Deps are the collaborators shared by all controllers.
type Deps struct {
	Session *session.Session
	Store   *store.Store
	Loop    *dispatch.Loop
	Log     *zap.Logger
	// OnError, when set, observes every asynchronous failure on the loop.
	OnError func(op string, err error)
}

func (d *Deps) logger() *zap.Logger { return logger.OrNop(d.Log) }

// fail logs err and hands it to the global and the per-call handlers. It
// runs on the loop.
func (d *Deps) fail(op string, err error, onFailure func(error)) {
	d.logger().Warn(op+" failed",
		zap.Error(err),
		zap.Stringer("kind", apperror.KindOf(err)),
	)
	if d.OnError != nil {
		d.OnError(op, err)
	}
	if onFailure != nil {
		onFailure(err)
	}
}

// failLater reports err from the loop; for operations that must not
// report synchronously.
func (d *Deps) failLater(op string, err error) {
	if !d.Loop.Complete(func() { d.fail(op, err, nil) }) {
		d.logger().Warn(op+" failed", zap.Error(err))
	}
}
