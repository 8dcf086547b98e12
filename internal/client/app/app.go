// Package app assembles a tracker client: one session, one store, one UI
// loop and the controllers that share them.
package app

import (
	"context"
	"fmt"

	"github.com/bugboard/bugboard/internal/client/api"
	"github.com/bugboard/bugboard/internal/client/controller"
	"github.com/bugboard/bugboard/internal/client/dispatch"
	"github.com/bugboard/bugboard/internal/client/service"
	"github.com/bugboard/bugboard/internal/client/session"
	"github.com/bugboard/bugboard/internal/client/store"
	"github.com/bugboard/bugboard/internal/config"
	"github.com/bugboard/bugboard/internal/logger"
	"go.uber.org/zap"
)

// App is a wired client. Run must be running for asynchronous operations
// to complete.
type App struct {
	Session *session.Session
	Store   *store.Store
	Loop    *dispatch.Loop
	API     *api.Client

	Auth     *controller.AuthController
	Issues   *controller.IssueController
	Comments *controller.CommentController
	Users    *controller.UserController

	log *zap.Logger
}

// New builds a client from cfg. onError, when set, observes every
// asynchronous failure on the UI loop.
func New(cfg config.Client, log *zap.Logger, onError func(op string, err error)) (*App, error) {
	log = logger.OrNop(log)

	httpClient, err := api.NewHTTPClient(cfg.ConnectTimeout, cfg.RequestTimeout, cfg.CAFile)
	if err != nil {
		return nil, fmt.Errorf("http client: %w", err)
	}

	sess := session.New()
	transport := api.New(cfg.BaseURL, httpClient, sess, log.Named("api"))
	deps := &controller.Deps{
		Session: sess,
		Store:   store.New(),
		Loop:    dispatch.NewLoop(log.Named("loop")),
		Log:     log.Named("controller"),
		OnError: onError,
	}

	issues := controller.NewIssueController(deps, service.NewIssueService(transport), cfg.ImageCacheTTL)
	return &App{
		Session:  sess,
		Store:    deps.Store,
		Loop:     deps.Loop,
		API:      transport,
		Auth:     controller.NewAuthController(deps, service.NewAuthService(transport), issues),
		Issues:   issues,
		Comments: controller.NewCommentController(deps, service.NewCommentService(transport)),
		Users:    controller.NewUserController(deps, service.NewUserService(transport), controller.FailSafeExists),
		log:      log,
	}, nil
}

// Run drives the UI loop until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.log.Debug("ui loop started", zap.String("backend", a.API.BaseURL()))
	err := a.Loop.Run(ctx)
	a.log.Debug("ui loop stopped")
	return err
}
