package http

import (
	"net/http"

	"github.com/bugboard/bugboard/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoginPath is the only route reachable without a token.
const LoginPath = "/api/auth/login"

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth   *AuthHandler
	Issues *IssueHandler
	Users  *UserHandler
}

// NewRouter constructs the HTTP handler of the tracker API.
//
// Routes:
//
//	POST /api/auth/login             → Auth.Login (public)
//	GET  /api/issues                 → Issues.ListIssues
//	POST /api/issues                 → Issues.CreateIssue
//	GET  /api/comments/issue/{id}    → Issues.ListComments
//	POST /api/comments               → Issues.CreateComment
//	GET  /api/images/{name}          → Issues.Image
//	POST /api/images/upload/{id}     → Issues.UploadImage
//	GET  /api/users                  → Users.ListUsers
//	POST /api/users                  → Users.CreateUser (administrators)
//	GET  /api/users/email/{email}    → Users.UserByEmail
//	GET  /metrics                    → Prometheus exposition (when metrics is set)
//
// Middleware chain, in order: request id, panic recovery, request
// logging, metrics, bearer authentication.
func NewRouter(h Handlers, verifier middleware.TokenVerifier, metrics *middleware.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	if metrics != nil {
		r.Use(metrics.Middleware)
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerAuth(verifier, LoginPath))

		r.Group(func(r chi.Router) {
			// JSON bodies only
			r.Use(chiMiddleware.AllowContentType("application/json"))
			r.Post("/auth/login", h.Auth.Login)
			r.Post("/issues", h.Issues.CreateIssue)
			r.Post("/comments", h.Issues.CreateComment)
			r.With(middleware.RequireAdmin).Post("/users", h.Users.CreateUser)
		})

		r.Get("/issues", h.Issues.ListIssues)
		r.Get("/comments/issue/{id}", h.Issues.ListComments)
		r.Get("/images/{name}", h.Issues.Image)
		r.Post("/images/upload/{id}", h.Issues.UploadImage)
		r.Get("/users", h.Users.ListUsers)
		r.Get("/users/email/{email}", h.Users.UserByEmail)
	})

	return r
}
