package rbac

import (
	"log/slog"
	"net/http"

	"github.com/fixpoint-pos/fixpoint/internal/platform/httpx"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

// Middleware wires authorization policies into the HTTP request pipeline.
// The required policy is an explicit parameter per route.
type Middleware struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
}

// Require gates the subtree behind the capability policy for the given
// resource/action pair.
func (m Middleware) Require(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if err := m.Evaluator.Allow(r.Context(), identity, resource, action); err != nil {
				httpx.Error(w, m.Logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner gates the subtree behind the owner-only policy.
func (m Middleware) RequireOwner() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := shared.IdentityFromContext(r.Context())
			if err := m.Evaluator.AllowOwner(identity); err != nil {
				httpx.Error(w, m.Logger, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
