package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fixpoint-pos/fixpoint/internal/auth"
	"github.com/fixpoint-pos/fixpoint/internal/employees"
	"github.com/fixpoint-pos/fixpoint/internal/roles"
	"github.com/fixpoint-pos/fixpoint/internal/tickets"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthService      *auth.Service
	AuthHandler      *auth.Handler
	EmployeesHandler *employees.Handler
	RolesHandler     *roles.Handler
	TicketsHandler   *tickets.Handler
}

// NewRouter constructs the chi.Router with Fixpoint defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		AuthService: params.AuthService,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(LoginRateLimiter())
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/employees", params.EmployeesHandler.MountRoutes)
	r.Route("/roles", params.RolesHandler.MountRoutes)
	r.Route("/tickets", params.TicketsHandler.MountRoutes)

	return r
}
