package availability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medibook-backend/internal/cache"
	"medibook-backend/internal/httpx"
	"medibook-backend/internal/middleware"
	"medibook-backend/internal/transport"
	"medibook-backend/internal/validation"
)

type Handler struct {
	service  *Service
	val      *validation.Validator
	log      *slog.Logger
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, c cache.Cache, cacheTTL time.Duration) *Handler {
	return &Handler{
		service:  service,
		val:      val,
		log:      log,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

func SnapshotCacheKey(doctorID, date string) string {
	return "availability:" + doctorID + ":" + date
}

// Publish handles POST /api/availability. The doctor is taken from the
// authenticated principal, never from the body.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req PublishRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		log.Warn("availability publish: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("availability publish: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", validation.Details(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	item, err := h.service.Publish(ctx, principal.ID, req)
	if err != nil {
		log.Error("availability publish: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	_ = h.cache.Delete(r.Context(), SnapshotCacheKey(principal.ID, req.Date))

	log.Info("availability publish: ok",
		slog.String("doctor_id", principal.ID),
		slog.String("date", item.Date),
		slog.String("start_time", item.StartTime),
		slog.Int("total_slots", item.TotalSlots),
	)
	transport.WriteJSON(w, http.StatusCreated, item)
}

// Query handles GET /api/availability/{doctorID}/{date}.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	doctorID := chi.URLParam(r, "doctorID")
	date := chi.URLParam(r, "date")
	if doctorID == "" || date == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing doctor or date", nil)
		return
	}
	if err := h.val.Struct(struct {
		Date string `validate:"required,date"`
	}{Date: date}); err != nil {
		log.Warn("availability query: invalid date", slog.String("date", date))
		transport.WriteError(w, http.StatusBadRequest, "invalid date", nil)
		return
	}

	key := SnapshotCacheKey(doctorID, date)
	if cached, ok, err := h.cache.Get(r.Context(), key); err == nil && ok {
		log.Info("availability query: cache hit", slog.String("doctor_id", doctorID), slog.String("date", date))
		transport.WriteCached(w, http.StatusOK, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	snapshot, err := h.service.Snapshot(ctx, doctorID, date)
	if err != nil {
		log.Error("availability query: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if payload, err := json.Marshal(snapshot); err == nil {
		_ = h.cache.Set(r.Context(), key, payload, h.cacheTTL)
	}

	log.Info("availability query: ok",
		slog.String("doctor_id", doctorID),
		slog.String("date", date),
		slog.Bool("open", snapshot.IsOpen),
		slog.Int("remaining", snapshot.RemainingSlots),
	)
	transport.WriteJSON(w, http.StatusOK, snapshot)
}
