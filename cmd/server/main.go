// Package main initializes and starts the BugBoard reference server,
// setting up configuration, logging, storage, services, handlers and the
// HTTP listener.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/bugboard/bugboard/internal/config"
	"github.com/bugboard/bugboard/internal/db"
	"github.com/bugboard/bugboard/internal/logger"
	"github.com/bugboard/bugboard/internal/middleware"
	"github.com/bugboard/bugboard/internal/repository"
	"github.com/bugboard/bugboard/internal/server/handler/http"
	"github.com/bugboard/bugboard/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

// repositories bundles the storage backends used by the services.
type repositories struct {
	users  service.UserRepository
	issues service.IssueRepository
	close  func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run starts the server and blocks until ctx is done or the listener fails.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	// Parse command-line and environment configuration.
	options, err := config.Parse(args)
	if err != nil {
		return err
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Fprintf(stdout, "Build version: %s\n", orDefault(version, "N/A"))
	fmt.Fprintf(stdout, "Build date: %s\n", orDefault(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	repos, err := openRepositories(ctx, options.DatabaseDSN, zapLogger)
	if err != nil {
		return err
	}
	defer func() { _ = repos.close() }()

	images, err := service.NewDirImageStore(options.ImageDir)
	if err != nil {
		return err
	}

	// Initialize business-logic services.
	authService := service.NewAuthService(repos.users, options.JWTSecret, options.TokenTTL)
	issueService := service.NewIssueService(repos.issues, images)
	if err := authService.EnsureAdmin(ctx, options.AdminEmail, options.AdminPassword); err != nil {
		return fmt.Errorf("seed administrator: %w", err)
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(http.Handlers{
		Auth:   &http.AuthHandler{AuthService: authService},
		Issues: &http.IssueHandler{IssueService: issueService},
		Users:  &http.UserHandler{UserService: authService},
	}, authService, middleware.NewMetrics(), zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		zapLogger.Info("shutting down HTTP server")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openRepositories selects Postgres when dsn is set and the in-memory store
// otherwise.
func openRepositories(ctx context.Context, dsn string, log *zap.Logger) (repositories, error) {
	if dsn == "" {
		log.Warn("no database configured, using in-memory storage")
		mem := repository.NewMemoryRepository()
		return repositories{users: mem, issues: mem, close: func() error { return nil }}, nil
	}

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(dsn)
	if err != nil {
		return repositories{}, fmt.Errorf("cannot init database: %w", err)
	}
	if err := db.Migrate(ctx, postgresDB); err != nil {
		_ = postgresDB.Close()
		return repositories{}, err
	}
	return repositories{
		users:  repository.NewPostgresUserRepository(postgresDB),
		issues: repository.NewPostgresIssueRepository(postgresDB),
		close:  postgresDB.Close,
	}, nil
}

// orDefault returns the first of its arguments that is not the empty string,
// matching cmp.Or (Go 1.22+) for the Go 1.21 toolchain.
func orDefault(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
