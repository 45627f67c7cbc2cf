package middleware

import (
	"errors"
	"net/http"

	"github.com/jobquest/jobquest/internal/auth"
)

// RequireOwner returns middleware that lets the request through only when the
// query parameter param equals the authenticated identity.
// Must be applied after Auth middleware.
func RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := auth.Authorize(r.Context(), r.URL.Query().Get(param))
			switch {
			case errors.Is(err, auth.ErrUnauthenticated):
				writeError(w, http.StatusUnauthorized, codeUnauthenticated, "unauthorized access")
			case err != nil:
				writeError(w, http.StatusForbidden, codeForbidden, "Forbidden access")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
