package directory

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"medibook-backend/internal/middleware"
	"medibook-backend/internal/transport"
	"medibook-backend/internal/validation"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

type dateQuery struct {
	Date string `validate:"omitempty,date"`
}

// Search handles GET /api/doctors/search?state=&city=&pincode=&date=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := r.URL.Query()

	date := strings.TrimSpace(q.Get("date"))
	if err := h.val.Struct(dateQuery{Date: date}); err != nil {
		log.Warn("doctors search: invalid date", slog.String("date", date))
		transport.WriteError(w, http.StatusBadRequest, "invalid date", nil)
		return
	}

	filter := SearchFilter{
		State:   strings.TrimSpace(q.Get("state")),
		City:    strings.TrimSpace(q.Get("city")),
		Pincode: strings.TrimSpace(q.Get("pincode")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	results, err := h.service.Search(ctx, filter, date)
	if err != nil {
		log.Error("doctors search: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors search: ok", slog.Int("count", len(results)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": results})
}

// Available handles GET /api/doctors/available/{date}.
func (h *Handler) Available(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	date := chi.URLParam(r, "date")
	if err := h.val.Struct(struct {
		Date string `validate:"required,date"`
	}{Date: date}); err != nil {
		log.Warn("doctors available: invalid date", slog.String("date", date))
		transport.WriteError(w, http.StatusBadRequest, "invalid date", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	results, err := h.service.AvailableDoctors(ctx, date)
	if err != nil {
		log.Error("doctors available: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors available: ok", slog.String("date", date), slog.Int("count", len(results)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": results})
}

// Profile handles GET /api/doctors/profile/{doctorID}.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing doctor id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	doctor, err := h.service.Profile(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			transport.WriteError(w, http.StatusNotFound, "doctor not found", nil)
			return
		}
		log.Error("doctors profile: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("doctors profile: ok", slog.String("doctor_id", doctorID))
	transport.WriteJSON(w, http.StatusOK, doctor)
}
