package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/starskyline/bareerah/internal/booking"
	"github.com/starskyline/bareerah/pkg/logging"
)

// PendingRetrier is satisfied by *booking.Finalizer.
type PendingRetrier interface {
	RetryPending(ctx context.Context, limit int) (int, error)
}

// AdminBookingsHandler lets operations see and re-push bookings that did not
// reach the booking system.
type AdminBookingsHandler struct {
	repo    booking.Repository
	retrier PendingRetrier
	logger  *logging.Logger
}

func NewAdminBookingsHandler(repo booking.Repository, retrier PendingRetrier, logger *logging.Logger) *AdminBookingsHandler {
	if repo == nil {
		panic("handlers: booking repository cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{repo: repo, retrier: retrier, logger: logger}
}

// PendingBooking is one unsynced booking.
type PendingBooking struct {
	booking.Draft
	SyncError string `json:"sync_error,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListPending handles GET /admin/bookings/pending.
func (h *AdminBookingsHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	records, err := h.repo.ListPending(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list pending bookings", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	out := make([]PendingBooking, 0, len(records))
	for _, rec := range records {
		out = append(out, PendingBooking{
			Draft:     rec.Draft,
			SyncError: rec.SyncError,
			CreatedAt: rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out, "total": len(out)})
}

// Retry handles POST /admin/bookings/retry.
func (h *AdminBookingsHandler) Retry(w http.ResponseWriter, r *http.Request) {
	if h.retrier == nil {
		http.Error(w, "booking service not configured", http.StatusServiceUnavailable)
		return
	}
	confirmed, err := h.retrier.RetryPending(r.Context(), 100)
	if err != nil {
		h.logger.Error("pending retry failed", "error", err, "confirmed", confirmed)
		writeJSON(w, http.StatusBadGateway, map[string]any{"confirmed": confirmed, "error": "retry incomplete"})
		return
	}
	h.logger.Info("pending bookings retried", "confirmed", confirmed)
	writeJSON(w, http.StatusOK, map[string]any{"confirmed": confirmed})
}
