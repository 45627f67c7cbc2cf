package middleware

import (
	"encoding/json"
	"net/http"
)

// Error codes written by middleware.
const (
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeRateLimited     = "RATE_LIMITED"
	codeInternal        = "INTERNAL_ERROR"
	codePayloadTooLarge = "PAYLOAD_TOO_LARGE"
)

// writeError writes the {"message","code"} error body shared with handlers.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}{message, code})
}
