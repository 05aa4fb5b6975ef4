// Package api implements the mindatlas REST API using chi.
package api

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/starford/mindatlas/internal/authgate"
	"github.com/starford/mindatlas/internal/guard"
)

// GuardMiddleware evaluates check against the current identity before the
// wrapped handler runs. Redirects answer 302 with a Location header; denials
// answer 403 with the access-denied actions. Admitted requests carry the
// identity in their context.
func GuardMiddleware(gate *authgate.Gate, check guard.Func, paths guard.Paths) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := gate.Resolve(r.Context())
			d := check(id, paths)
			switch d.Outcome {
			case guard.Render:
				next.ServeHTTP(w, r.WithContext(authgate.WithIdentity(r.Context(), id)))
			case guard.Redirect:
				w.Header().Set("Location", d.Location)
				writeJSON(w, http.StatusFound, RedirectResponse{Redirect: d.Location})
			default:
				slog.Info("access denied",
					slog.String("path", r.URL.Path),
					slog.String("email", id.Email),
					slog.String("role", id.Role.String()))
				writeJSON(w, http.StatusForbidden, DeniedResponse{
					Error:   "access denied",
					Actions: DeniedActions{Home: paths.Home, SignOut: paths.Logout},
				})
			}
		})
	}
}

// RateLimit rejects requests beyond the limiter's budget with 429.
// A nil limiter disables limiting.
func RateLimit(l *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l != nil && !l.Allow() {
				writeJSON(w, http.StatusTooManyRequests, errorBody("too many attempts, slow down"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
