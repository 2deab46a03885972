package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/lib/pq"

	"github.com/starskyline/bareerah/pkg/logging"
)

// FollowUpCounter is satisfied by *archive.SQLStore.
type FollowUpCounter interface {
	FollowUpCount(ctx context.Context) (int, error)
}

// AdminDashboardHandler serves the operations overview built from the call
// log archive and the local booking table.
type AdminDashboardHandler struct {
	db        *sql.DB
	followUps FollowUpCounter
	now       func() time.Time
	logger    *logging.Logger
}

// NewAdminDashboardHandler creates a new admin dashboard handler. followUps
// may be nil.
func NewAdminDashboardHandler(db *sql.DB, followUps FollowUpCounter, logger *logging.Logger) *AdminDashboardHandler {
	if db == nil {
		panic("handlers: db cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{
		db:        db,
		followUps: followUps,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// DashboardOverviewResponse contains the main dashboard metrics.
type DashboardOverviewResponse struct {
	Period         string          `json:"period"`
	Since          time.Time       `json:"since"`
	Conversations  CallMetrics     `json:"conversations"`
	Bookings       BookingMetrics  `json:"bookings"`
	PendingActions []PendingAction `json:"pending_actions"`
}

// CallMetrics counts archived conversations by how they ended.
type CallMetrics struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Dropped    int            `json:"dropped"`
	Escalated  int            `json:"escalated"`
	Terminated int            `json:"terminated"`
	ByChannel  map[string]int `json:"by_channel"`
	Conversion float64        `json:"conversion_rate"`
}

// BookingMetrics summarizes finalized bookings.
type BookingMetrics struct {
	Confirmed   int     `json:"confirmed"`
	Pending     int     `json:"pending"`
	RevenueAED  float64 `json:"revenue_aed"`
	AllPending  int     `json:"all_pending"`
	NeedsReview int     `json:"needs_review"`
}

// PendingAction represents an action requiring staff attention.
type PendingAction struct {
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Count       int    `json:"count"`
	Link        string `json:"link,omitempty"`
}

func periodStart(period string, now time.Time) (string, time.Time) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case "day", "today":
		return "day", today
	case "month":
		return "month", today.AddDate(0, -1, 0)
	default:
		return "week", today.AddDate(0, 0, -7)
	}
}

// GetDashboardOverview returns the dashboard for a period.
// GET /admin/dashboard?period=day|week|month
func (h *AdminDashboardHandler) GetDashboardOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, since := periodStart(r.URL.Query().Get("period"), h.now())
	dashboard := DashboardOverviewResponse{
		Period:        period,
		Since:         since,
		Conversations: CallMetrics{ByChannel: map[string]int{}},
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT outcome, channel, COUNT(*) FROM call_logs WHERE ended_at >= $1 GROUP BY outcome, channel`, since)
	if err != nil {
		h.logger.Error("failed to query call logs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	for rows.Next() {
		var outcome, channel string
		var n int
		if err := rows.Scan(&outcome, &channel, &n); err != nil {
			h.logger.Error("failed to scan call log counts", "error", err)
			continue
		}
		c := &dashboard.Conversations
		c.Total += n
		c.ByChannel[channel] += n
		switch outcome {
		case "completed":
			c.Completed += n
		case "dropped":
			c.Dropped += n
		case "escalated":
			c.Escalated += n
		case "terminated":
			c.Terminated += n
		}
	}
	rows.Close()
	if c := &dashboard.Conversations; c.Total > 0 {
		c.Conversion = float64(c.Completed) / float64(c.Total) * 100
	}

	rows, err = h.db.QueryContext(ctx,
		`SELECT status, COUNT(*), COALESCE(SUM(fare_aed), 0) FROM pending_bookings WHERE created_at >= $1 GROUP BY status`, since)
	if err != nil {
		h.logger.Error("failed to query bookings", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	for rows.Next() {
		var status string
		var n int
		var fare float64
		if err := rows.Scan(&status, &n, &fare); err != nil {
			h.logger.Error("failed to scan booking counts", "error", err)
			continue
		}
		switch status {
		case "confirmed":
			dashboard.Bookings.Confirmed += n
		case "pending":
			dashboard.Bookings.Pending += n
		}
		dashboard.Bookings.RevenueAED += fare
	}
	rows.Close()

	// Pending bookings and follow-ups are listed regardless of period.
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_bookings WHERE status = 'pending'`,
	).Scan(&dashboard.Bookings.AllPending)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pending_bookings WHERE needs_follow_up AND created_at >= $1`, since,
	).Scan(&dashboard.Bookings.NeedsReview)

	dashboard.PendingActions = h.pendingActions(ctx, dashboard.Bookings)

	writeJSON(w, http.StatusOK, dashboard)
}

func (h *AdminDashboardHandler) pendingActions(ctx context.Context, b BookingMetrics) []PendingAction {
	actions := []PendingAction{}
	if b.AllPending > 0 {
		actions = append(actions, PendingAction{
			Type:        "pending_sync",
			Priority:    "high",
			Description: "Bookings not yet in the booking system",
			Count:       b.AllPending,
			Link:        "/admin/bookings/pending",
		})
	}
	if h.followUps != nil {
		n, err := h.followUps.FollowUpCount(ctx)
		if err != nil {
			h.logger.Warn("failed to count follow-ups", "error", err)
		} else if n > 0 {
			actions = append(actions, PendingAction{
				Type:        "callback",
				Priority:    "medium",
				Description: "Customers waiting for a call back",
				Count:       n,
				Link:        "/admin/calls?follow_up=true",
			})
		}
	}
	return actions
}

// CallLogItem is one archived conversation.
type CallLogItem struct {
	SessionID    string    `json:"session_id"`
	Channel      string    `json:"channel"`
	CallerNumber *string   `json:"caller_number,omitempty"`
	Language     string    `json:"language"`
	Outcome      string    `json:"outcome"`
	LastStep     string    `json:"last_step"`
	Reference    *string   `json:"reference,omitempty"`
	Vehicle      *string   `json:"vehicle,omitempty"`
	FareAED      float64   `json:"fare_aed"`
	FollowUps    []string  `json:"follow_ups"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
}

// ListCallsResponse contains recent archived conversations.
type ListCallsResponse struct {
	Calls []CallLogItem `json:"calls"`
	Total int           `json:"total"`
}

// ListCalls returns recent call logs, newest first.
// GET /admin/calls?outcome=dropped&follow_up=true&limit=50
func (h *AdminDashboardHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `SELECT session_id, channel, caller_number, language, outcome, last_step, reference, vehicle, fare_aed, follow_ups, started_at, ended_at FROM call_logs WHERE ($1 = '' OR outcome = $1) AND (NOT $2 OR cardinality(follow_ups) > 0) ORDER BY ended_at DESC LIMIT $3`
	rows, err := h.db.QueryContext(r.Context(), query, q.Get("outcome"), q.Get("follow_up") == "true", limit)
	if err != nil {
		h.logger.Error("failed to query call logs", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	calls := []CallLogItem{}
	for rows.Next() {
		var (
			item                       CallLogItem
			caller, reference, vehicle sql.NullString
			followUps                  pq.StringArray
		)
		if err := rows.Scan(&item.SessionID, &item.Channel, &caller, &item.Language, &item.Outcome, &item.LastStep,
			&reference, &vehicle, &item.FareAED, &followUps, &item.StartedAt, &item.EndedAt); err != nil {
			h.logger.Error("failed to scan call log row", "error", err)
			continue
		}
		item.CallerNumber = nullable(caller)
		item.Reference = nullable(reference)
		item.Vehicle = nullable(vehicle)
		item.FollowUps = []string(followUps)
		if item.FollowUps == nil {
			item.FollowUps = []string{}
		}
		calls = append(calls, item)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("error iterating call log rows", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListCallsResponse{Calls: calls, Total: len(calls)})
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
