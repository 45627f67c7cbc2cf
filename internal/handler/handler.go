// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jobquest/jobquest/api"
	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/handler/dto"
	"github.com/jobquest/jobquest/internal/middleware"
	"github.com/jobquest/jobquest/internal/service"
)

// Error codes written by handlers.
const (
	codeInvalidJSON     = "INVALID_JSON"
	codeInvalidID       = "INVALID_ID"
	codeInvalidPrice    = "INVALID_PRICE"
	codeNotFound        = "NOT_FOUND"
	codeMethodNotAllow  = "METHOD_NOT_ALLOWED"
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeUpstream        = "UPSTREAM_FAILURE"
	codeInternal        = "INTERNAL_ERROR"
)

const welcomeMessage = "Welcome to jobQuest"

// Handler serves the routes that have no dependencies.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Welcome handles GET /.
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, welcomeMessage)
}

// OpenAPI handles GET /openapi.yaml.
func (h *Handler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(api.OpenAPI)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, codeNotFound, "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllow, "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Message: message, Code: code})
}

// decodeJSON decodes the request body into v and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, codeInvalidJSON, "Invalid request body")
		return false
	}
	return true
}

// handleServiceError maps service errors to HTTP responses. Unexpected
// errors are logged once here and answered with a generic 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "unauthorized access")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, "Forbidden access")
	case errors.Is(err, service.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, "Invalid job id")
	case errors.Is(err, service.ErrJobNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "Job not found")
	case errors.Is(err, service.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
	case errors.Is(err, service.ErrPaymentFailed):
		logger.Error("payment provider failure",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusBadGateway, codeUpstream, "payment provider unavailable")
	default:
		logger.Error("unexpected service error",
			slog.String("error", err.Error()),
			slog.String("endpoint", r.Method+" "+r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}
