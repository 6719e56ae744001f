package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophaccount/internal/logging"
	"github.com/dmitrijs2005/gophaccount/internal/server/metrics"
	"github.com/dmitrijs2005/gophaccount/internal/server/models"
	"github.com/go-chi/chi/v5"
)

// RouterDeps collects what NewRouter wires together.
type RouterDeps struct {
	Accounts          AccountService
	Tokens            TokenVerifier
	Logger            logging.Logger
	Metrics           metrics.Recorder
	MetricsHandler    http.Handler
	LoginLimiter      *LoginLimiter
	CORSAllowedOrigin string
	Environment       string
}

// NewRouter builds the full route table.
//
// Middleware order, outermost first:
//
//	Request (id, log, metrics) → Recovery → SecurityHeaders → CORS
//
// Authenticate and Authorize are applied per route group.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(NewRequestMiddleware(deps.Logger, deps.Metrics))
	r.Use(NewRecoveryMiddleware(deps.Logger))
	r.Use(NewSecurityHeadersMiddleware())
	r.Use(NewCORSMiddleware(deps.CORSAllowedOrigin))

	h := NewHandler(deps.Accounts, deps.Logger, deps.Environment)
	gate := NewGate(deps.Tokens, deps.Accounts, deps.Logger, deps.Metrics)

	r.Get("/health", h.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if deps.LoginLimiter != nil {
					r.Use(deps.LoginLimiter.Middleware)
				}
				r.Post("/login", h.Login)
			})
			r.With(gate.Authenticate).Post("/change-password", h.ChangePassword)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(gate.Authenticate)

			r.Get("/me", h.Whoami)

			r.Group(func(r chi.Router) {
				r.Use(gate.Authorize(models.RoleAdmin))

				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id:[0-9]+}", h.GetUser)
				r.Patch("/{id:[0-9]+}", h.UpdateUser)
				r.Delete("/{id:[0-9]+}", h.DeleteUser)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
