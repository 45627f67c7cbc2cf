package handler

import (
	"log/slog"
	"net/http"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/service"
)

// ApplicationHandler handles HTTP requests for job applications.
type ApplicationHandler struct {
	svc    *service.ApplicationService
	logger *slog.Logger
}

// NewApplicationHandler creates a new ApplicationHandler.
func NewApplicationHandler(svc *service.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{svc: svc, logger: logger}
}

// Apply handles POST /application.
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var app model.Application
	if !decodeJSON(w, r, &app) {
		return
	}

	res, err := h.svc.Apply(r.Context(), &app)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("application_submitted",
		slog.String("application_id", res.InsertedID),
		slog.String("job_id", app.JobID),
	)
	writeJSON(w, http.StatusOK, res)
}

// ListMine handles GET /applications.
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	apps, err := h.svc.ListByApplicant(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(apps))
}
