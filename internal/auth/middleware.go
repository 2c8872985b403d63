package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fixpoint-pos/fixpoint/internal/apperr"
	"github.com/fixpoint-pos/fixpoint/internal/platform/httpx"
	"github.com/fixpoint-pos/fixpoint/internal/shared"
)

// Middleware validates bearer tokens and stores the resulting identity in the
// request context. Requests without an Authorization header pass through
// unauthenticated; the per-route policies decide whether that is acceptable.
// A header that is present but invalid is rejected immediately.
func Middleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httpx.Error(w, logger, apperr.Unauthenticated("invalid authorization header"))
				return
			}

			identity, err := service.ValidateAccessToken(parts[1])
			if err != nil {
				httpx.Error(w, logger, err)
				return
			}

			ctx := shared.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
