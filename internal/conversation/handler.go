package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

type turnService interface {
	StartSession(ctx context.Context, req StartRequest) (*TurnResponse, error)
	HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error)
}

var _ turnService = (*Service)(nil)

// Handler exposes the conversation over plain JSON for integrations and
// end-to-end tests, plus a read-only session view for operations.
type Handler struct {
	service turnService
	store   session.Store
	metrics *metrics.ConversationMetrics
	logger  *logging.Logger
}

// NewHandler creates the JSON handler. store may be nil when the session
// view is not mounted.
func NewHandler(service turnService, store session.Store, m *metrics.ConversationMetrics, logger *logging.Logger) *Handler {
	if service == nil {
		panic("conversation: service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, store: store, metrics: m, logger: logger}
}

// StartSession handles POST /api/sessions.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.Channel == "" {
		req.Channel = ChannelAPI
	}
	resp, err := h.service.StartSession(r.Context(), req)
	h.respond(w, req.Channel, resp, err)
}

// Turn handles POST /api/turns. A request without a session id starts a new
// session.
func (h *Handler) Turn(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	if req.Channel == "" {
		req.Channel = ChannelAPI
	}
	resp, err := h.service.HandleTurn(r.Context(), req)
	h.respond(w, req.Channel, resp, err)
}

// GetSession handles GET /admin/sessions/{sessionID}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "session view disabled")
		return
	}
	id := chi.URLParam(r, "sessionID")
	sess, err := h.store.Load(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load session", "error", err, "session_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) respond(w http.ResponseWriter, channel string, resp *TurnResponse, err error) {
	switch {
	case errors.Is(err, session.ErrLocked):
		h.metrics.ObserveInbound(channel, "busy")
		writeError(w, http.StatusConflict, "session is busy with another turn")
	case errors.Is(err, ErrSessionRequired):
		h.metrics.ObserveInbound(channel, "invalid")
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.metrics.ObserveInbound(channel, "error")
		h.logger.Error("turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "turn failed")
	default:
		h.metrics.ObserveInbound(channel, "ok")
		writeJSON(w, http.StatusOK, resp)
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
