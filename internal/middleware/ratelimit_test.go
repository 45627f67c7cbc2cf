package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jobquest/jobquest/internal/cache"
)

type stubLimiter struct {
	result *cache.RateLimitResult
	err    error
	gotIP  string
}

func (s *stubLimiter) CheckIPRateLimit(ctx context.Context, ip string, rps, burst int) (*cache.RateLimitResult, error) {
	s.gotIP = ip
	return s.result, s.err
}

func TestRateLimitIP(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		limiter    *stubLimiter
		wantStatus int
	}{
		{"disabled", false, &stubLimiter{result: &cache.RateLimitResult{Allowed: false}}, http.StatusOK},
		{"allowed", true, &stubLimiter{result: &cache.RateLimitResult{Allowed: true}}, http.StatusOK},
		{"limited", true, &stubLimiter{result: &cache.RateLimitResult{Allowed: false, RetryAfter: 2 * time.Second}}, http.StatusTooManyRequests},
		{"redis down fails open", true, &stubLimiter{result: &cache.RateLimitResult{Allowed: true}, err: errors.New("dial tcp")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RateLimitIP(RateLimitConfig{
				Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
				Limiter: tt.limiter,
				Enabled: tt.enabled,
				RPS:     5,
				Burst:   10,
			})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/application", nil)
			req.RemoteAddr = "203.0.113.7:51234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "2" {
				t.Errorf("expected Retry-After 2, got %q", rec.Header().Get("Retry-After"))
			}
			if tt.enabled && tt.limiter.gotIP != "203.0.113.7" {
				t.Errorf("expected limiter keyed by host, got %q", tt.limiter.gotIP)
			}
		})
	}
}
