package handler

import (
	"log/slog"
	"net/http"

	"github.com/jobquest/jobquest/internal/auth"
	"github.com/jobquest/jobquest/internal/handler/dto"
	"github.com/jobquest/jobquest/internal/model"
	"github.com/jobquest/jobquest/internal/service"
)

// PremiumHandler handles payment intents and premium records.
type PremiumHandler struct {
	svc    *service.PremiumService
	logger *slog.Logger
}

// NewPremiumHandler creates a new PremiumHandler.
func NewPremiumHandler(svc *service.PremiumService, logger *slog.Logger) *PremiumHandler {
	return &PremiumHandler{svc: svc, logger: logger}
}

// CreatePaymentIntent handles POST /create-payment-intent.
func (h *PremiumHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentIntentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	secret, err := h.svc.CreatePaymentIntent(r.Context(), req.Price)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.PaymentIntentResponse{ClientSecret: secret})
}

// Create handles POST /create-premium.
func (h *PremiumHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p model.Premium
	if !decodeJSON(w, r, &p) {
		return
	}

	res, err := h.svc.RecordPremium(r.Context(), &p)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("premium_recorded", slog.String("premium_id", res.InsertedID))
	writeJSON(w, http.StatusOK, res)
}

// Get handles GET /premium?email=. An absent record is answered with null.
// When the caller is authenticated the lookup follows their identity.
func (h *PremiumHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		email = identity
	}

	p, err := h.svc.GetByEmail(r.Context(), email)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
