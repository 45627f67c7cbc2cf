package handler

import (
	"log/slog"
	"net/http"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/handler/dto"
	"github.com/jobquest/jobquest/internal/middleware"
)

// SessionHandler issues and clears the session cookie.
type SessionHandler struct {
	codec      *auth.Codec
	production bool
	logger     *slog.Logger
}

// NewSessionHandler creates a new SessionHandler. In production the cookie is
// Secure and cross-site; otherwise it is same-site only.
func NewSessionHandler(codec *auth.Codec, production bool, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{codec: codec, production: production, logger: logger}
}

// Issue handles POST /jwt.
func (h *SessionHandler) Issue(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.User == "" {
		writeError(w, http.StatusBadRequest, codeInvalidJSON, "user is required")
		return
	}

	token, err := h.codec.Issue(req.User)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	cookie := h.cookie(token)
	cookie.MaxAge = int(h.codec.TTL().Seconds())
	http.SetCookie(w, cookie)

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

// Logout handles POST /logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie := h.cookie("")
	cookie.MaxAge = -1
	http.SetCookie(w, cookie)

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *SessionHandler) cookie(value string) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
	if h.production {
		c.Secure = true
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}
