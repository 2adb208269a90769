package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"medibook-backend/internal/booking"
	"medibook-backend/internal/httpx"
	"medibook-backend/internal/middleware"
	"medibook-backend/internal/transport"
	"medibook-backend/internal/validation"
)

const (
	SignatureHeader = "X-Payment-Signature"

	maxWebhookBytes = 64 << 10
)

type Handler struct {
	service       *Service
	val           *validation.Validator
	log           *slog.Logger
	webhookSecret string
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, webhookSecret string) *Handler {
	return &Handler{
		service:       service,
		val:           val,
		log:           log,
		webhookSecret: webhookSecret,
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

type CreateIntentRequest struct {
	AppointmentID string `json:"appointmentId" validate:"required"`
}

// CreateIntent handles POST /api/payments/intent.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req CreateIntentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Warn("payments intent: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("payments intent: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", validation.Details(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	intent, err := h.service.CreateIntent(ctx, principal.ID, req.AppointmentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthorized):
			log.Warn("payments intent: not authorized", slog.String("appointment_id", req.AppointmentID))
			transport.WriteError(w, http.StatusNotFound, "appointment not found or not authorized", nil)
		case errors.Is(err, booking.ErrDuplicateReference):
			log.Error("payments intent: duplicate reference", slog.String("appointment_id", req.AppointmentID))
			transport.WriteError(w, http.StatusConflict, "payment reference conflict", nil)
		default:
			log.Error("payments intent: error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "payment error", nil)
		}
		return
	}

	log.Info("payments intent: created",
		slog.String("appointment_id", req.AppointmentID),
		slog.String("intent_id", intent.ID),
		slog.Int("amount", intent.Amount),
	)
	transport.WriteJSON(w, http.StatusOK, intent)
}

// Webhook handles POST /api/payments/webhook. The raw body is verified
// against the shared-secret signature before anything is parsed or applied;
// unauthenticated events never reach the ledger.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	if h.webhookSecret == "" {
		log.Warn("payments webhook: not configured")
		transport.WriteError(w, http.StatusServiceUnavailable, "payments not configured", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "unreadable body", nil)
		return
	}

	if !VerifySignature(h.webhookSecret, body, r.Header.Get(SignatureHeader)) {
		log.Warn("payments webhook: invalid signature")
		transport.WriteError(w, http.StatusBadRequest, "invalid signature", nil)
		return
	}

	var event OutcomeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Warn("payments webhook: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(event); err != nil {
		log.Warn("payments webhook: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", validation.Details(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	if err := h.service.ApplyOutcome(ctx, event); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			// Unknown reference: acknowledged so the provider stops
			// retrying, but logged for investigation.
			log.Warn("payments webhook: unknown reference", slog.String("reference", event.Reference))
			transport.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		log.Error("payments webhook: error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("payments webhook: applied",
		slog.String("reference", event.Reference),
		slog.String("outcome", event.Outcome),
	)
	transport.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
