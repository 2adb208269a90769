package booking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"medibook-backend/internal/availability"
	"medibook-backend/internal/cache"
	"medibook-backend/internal/httpx"
	"medibook-backend/internal/middleware"
	"medibook-backend/internal/models"
	"medibook-backend/internal/transport"
	"medibook-backend/internal/validation"
)

type Handler struct {
	allocator *Allocator
	ledger    Ledger
	val       *validation.Validator
	log       *slog.Logger
	cache     cache.Cache
	location  *time.Location
}

func NewHandler(allocator *Allocator, ledger Ledger, val *validation.Validator, log *slog.Logger, c cache.Cache, location *time.Location) *Handler {
	return &Handler{
		allocator: allocator,
		ledger:    ledger,
		val:       val,
		log:       log,
		cache:     c,
		location:  location,
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

type CreateRequest struct {
	DoctorID    string `json:"doctorId" validate:"required"`
	Date        string `json:"date" validate:"required,date"`
	PaymentMode string `json:"paymentMode" validate:"omitempty,oneof=offline online"`
}

// Create handles POST /api/appointments. The patient comes from the
// authenticated principal; the time is assigned by the allocator, never
// chosen by the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Warn("appointments create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", validation.Details(h.val.ValidationErrors(err)))
		return
	}

	paymentStatus := models.PaymentStatusOffline
	if req.PaymentMode == "online" {
		paymentStatus = models.PaymentStatusPending
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appt, err := h.allocator.BookSlot(ctx, req.DoctorID, req.Date, principal.ID, paymentStatus)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoAvailability):
			log.Warn("appointments create: no availability", slog.String("doctor_id", req.DoctorID), slog.String("date", req.Date))
			transport.WriteError(w, http.StatusBadRequest, "doctor not available", nil)
		case errors.Is(err, ErrSlotsExhausted):
			log.Warn("appointments create: slots exhausted", slog.String("doctor_id", req.DoctorID), slog.String("date", req.Date))
			transport.WriteError(w, http.StatusConflict, "all slots booked", nil)
		default:
			log.Error("appointments create: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	_ = h.cache.Delete(r.Context(), availability.SnapshotCacheKey(req.DoctorID, req.Date))

	log.Info("appointments create: booked",
		slog.String("appointment_id", appt.ID),
		slog.String("doctor_id", appt.DoctorID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
	)
	transport.WriteJSON(w, http.StatusCreated, appt)
}

// List handles GET /api/appointments: the principal's appointments, as
// doctor or patient depending on role.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	items, err := h.allocator.ListForPrincipal(ctx, principal.ID, principal.Role)
	if err != nil {
		log.Error("appointments list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments list: ok", slog.String("role", principal.Role), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

type AdminCreateRequest struct {
	DoctorID  string `json:"doctorId" validate:"required"`
	PatientID string `json:"patientId" validate:"required"`
	Date      string `json:"date" validate:"required,date"`
	Time      string `json:"time" validate:"required,clock"`
}

// AdminCreate books an appointment at an admin-chosen time, bypassing the
// allocator. The unique slot index still rejects collisions.
func (h *Handler) AdminCreate(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req AdminCreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Warn("admin appointments create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("admin appointments create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", validation.Details(h.val.ValidationErrors(err)))
		return
	}

	appt := models.Appointment{
		ID:              primitive.NewObjectID().Hex(),
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		Date:            req.Date,
		Time:            req.Time,
		Status:          models.AppointmentStatusBooked,
		ConsultationFee: models.DefaultConsultationFee,
		PaymentStatus:   models.PaymentStatusOffline,
		CreatedAt:       time.Now().In(h.location),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.ledger.Insert(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			log.Warn("admin appointments create: slot taken", slog.String("date", req.Date), slog.String("time", req.Time))
			transport.WriteError(w, http.StatusConflict, "slot already booked", nil)
			return
		}
		log.Error("admin appointments create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	_ = h.cache.Delete(r.Context(), availability.SnapshotCacheKey(req.DoctorID, req.Date))

	log.Info("admin appointments create: ok", slog.String("appointment_id", appt.ID))
	transport.WriteJSON(w, http.StatusCreated, appt)
}

func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 50, 200)
	if err != nil {
		log.Warn("admin appointments list: invalid query", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.ledger.ListAll(ctx, limit, offset)
	if err != nil {
		log.Error("admin appointments list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin appointments list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appt, err := h.ledger.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
			return
		}
		log.Error("admin appointments delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	deleted, err := h.ledger.DeleteByID(ctx, id)
	if err != nil {
		log.Error("admin appointments delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if !deleted {
		transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
		return
	}

	_ = h.cache.Delete(r.Context(), availability.SnapshotCacheKey(appt.DoctorID, appt.Date))

	log.Info("admin appointments delete: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
