package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/metrics"
)

// CookieName is the cookie that carries the session credential.
const CookieName = "token"

// Verifier checks a session credential and returns its identity.
type Verifier interface {
	Verify(token string) (string, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier Verifier
	Metrics  metrics.Recorder
}

// Auth returns a middleware that authenticates requests by their session
// cookie and stores the identity in the request context.
// Every failure gets the same 401 body; the reason is only logged.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	reject := func(w http.ResponseWriter, r *http.Request, reason string) {
		cfg.Metrics.IncAuthRejected(reason)
		cfg.Logger.Warn("authentication failed",
			slog.String("reason", reason),
			slog.String("ip", r.RemoteAddr),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "unauthorized access")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				reject(w, r, "missing-cookie")
				return
			}

			identity, err := cfg.Verifier.Verify(cookie.Value)
			if err != nil {
				reason := "invalid"
				var verr *auth.VerificationError
				if errors.As(err, &verr) {
					reason = string(verr.Reason)
				}
				reject(w, r, reason)
				return
			}

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
