package handler

import (
	"log/slog"
	"net/http"

	"github.com/jobquest/jobquest/internal/service"
)

// StoryHandler serves the public stories feed.
type StoryHandler struct {
	svc    *service.StoryService
	logger *slog.Logger
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(svc *service.StoryService, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{svc: svc, logger: logger}
}

// List handles GET /stories.
func (h *StoryHandler) List(w http.ResponseWriter, r *http.Request) {
	stories, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(stories))
}
