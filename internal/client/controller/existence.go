package controller

import (
	"context"
	"fmt"

	"github.com/bugboard/bugboard/internal/apperror"
	"github.com/bugboard/bugboard/internal/logger"
	"github.com/bugboard/bugboard/internal/models"
	"go.uber.org/zap"
)

// UserProber asks the server whether an account exists.
type UserProber interface {
	Exists(ctx context.Context, email string) (bool, error)
}

// ExistencePolicy turns a failed probe into an answer. It receives every
// probe error, including 404.
type ExistencePolicy func(err error) (bool, error)

// FailSafeExists answers "does not exist" for 404, returns any other HTTP
// status as an error, and answers "exists" for any other failure.
func FailSafeExists(err error) (bool, error) {
	switch {
	case apperror.IsNotFound(err):
		return false, nil
	case apperror.IsApplication(err):
		return false, err
	default:
		return true, nil
	}
}

// ExistenceCheck probes the server for an account, applying a policy to
// failures.
type ExistenceCheck struct {
	probe  UserProber
	policy ExistencePolicy
	log    *zap.Logger
}

// NewExistenceCheck returns a check over probe. A nil policy means
// FailSafeExists.
func NewExistenceCheck(probe UserProber, policy ExistencePolicy, log *zap.Logger) *ExistenceCheck {
	if policy == nil {
		policy = FailSafeExists
	}
	return &ExistenceCheck{probe: probe, policy: policy, log: logger.OrNop(log)}
}

// ExistsUser reports whether an account with email exists. It blocks on the
// network and must not run on the UI loop.
func (e *ExistenceCheck) ExistsUser(ctx context.Context, email string) (exists bool, err error) {
	email = models.NormalizeUsername(email)
	if email == "" {
		return false, ErrEmptyEmail
	}

	defer func() {
		if r := recover(); r != nil {
			exists, err = e.decide(apperror.NewUnexpectedError("existence probe panicked", fmt.Errorf("%v", r)))
		}
	}()

	found, probeErr := e.probe.Exists(ctx, email)
	if probeErr == nil {
		return found, nil
	}
	return e.decide(probeErr)
}

func (e *ExistenceCheck) decide(probeErr error) (bool, error) {
	exists, err := e.policy(probeErr)
	if err == nil && !apperror.IsNotFound(probeErr) {
		e.log.Warn("existence probe failed, applying policy",
			zap.Bool("answer", exists),
			zap.Error(probeErr),
		)
	}
	return exists, err
}
