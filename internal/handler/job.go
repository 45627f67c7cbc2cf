package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/service"
)

// JobHandler handles HTTP requests for job operations.
type JobHandler struct {
	svc    *service.JobService
	logger *slog.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(svc *service.JobService, logger *slog.Logger) *JobHandler {
	return &JobHandler{svc: svc, logger: logger}
}

// List handles GET /jobs.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(jobs))
}

// Get handles GET /jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// ListMine handles GET /my-jobs. The listing always follows the
// authenticated identity.
func (h *JobHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	jobs, err := h.svc.ListByOwner(r.Context(), identity)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(jobs))
}

// Create handles POST /.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var job model.Job
	if !decodeJSON(w, r, &job) {
		return
	}

	res, err := h.svc.Create(r.Context(), &job)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("job_created", slog.String("job_id", res.InsertedID))
	writeJSON(w, http.StatusOK, res)
}

// Upsert handles PATCH /{id}.
func (h *JobHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var fields model.JobFields
	if !decodeJSON(w, r, &fields) {
		return
	}

	id := chi.URLParam(r, "id")
	res, err := h.svc.Upsert(r.Context(), id, fields)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("job_upserted",
		slog.String("job_id", id),
		slog.Int64("modified", res.ModifiedCount),
		slog.Int64("upserted", res.UpsertedCount),
	)
	writeJSON(w, http.StatusOK, res)
}

// Delete handles DELETE /{id}.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("job_deleted", slog.String("job_id", id), slog.Int64("deleted", res.DeletedCount))
	writeJSON(w, http.StatusOK, res)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
