package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/dialogue"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

// TurnService runs conversation turns.
type TurnService interface {
	StartSession(ctx context.Context, req conversation.StartRequest) (*conversation.TurnResponse, error)
	HandleTurn(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResponse, error)
}

var _ TurnService = (*conversation.Service)(nil)

// Handler serves the web chat widget: a websocket where every text frame is
// a turn, plus an HTTP fallback.
type Handler struct {
	service TurnService
	store   session.Store
	metrics *metrics.ConversationMetrics
	logger  *logging.Logger
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id,omitempty"`
	Text      string `json:"text"`
	Language  string `json:"language,omitempty"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "typing", "history", "session", "end", "error", "pong"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Step      string           `json:"step,omitempty"`
	Reference string           `json:"reference,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is one transcript line.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler. store is only used for history and
// may be nil.
func NewHandler(service TurnService, store session.Store, m *metrics.ConversationMetrics, logger *logging.Logger) *Handler {
	if service == nil {
		panic("webchat: turn service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, store: store, metrics: m, logger: logger}
}

// SessionID builds the conversation session id for a widget session.
func SessionID(widgetSession string) string {
	return "web:" + widgetSession
}

func generateSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := r.Context()
	widgetSession := r.URL.Query().Get("session")
	if widgetSession == "" {
		widgetSession = generateSessionID()
	}
	id := SessionID(widgetSession)
	lang := r.URL.Query().Get("lang")

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: widgetSession})

	resp, err := h.service.StartSession(ctx, conversation.StartRequest{
		SessionID: id,
		Channel:   conversation.ChannelWebChat,
		Language:  lang,
	})
	if err != nil {
		h.logger.Error("webchat: start failed", "error", err, "session_id", id)
		h.metrics.ObserveInbound(conversation.ChannelWebChat, "error")
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: dialogue.FatalPrompt(lexicon.English)})
		return
	}
	h.metrics.ObserveInbound(conversation.ChannelWebChat, "ok")
	if h.sendReply(conn, resp) {
		return
	}

	h.logger.Info("webchat: connection opened", "session_id", id)
	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", id, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})
		resp, err := h.turn(ctx, id, msg.Text, lang)
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Sorry, something went wrong. Please try again."})
			continue
		}
		if h.sendReply(conn, resp) {
			return
		}
	}
}

// sendReply writes the assistant reply and reports whether the conversation
// is over.
func (h *Handler) sendReply(conn *websocket.Conn, resp *conversation.TurnResponse) bool {
	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "message",
		Role:      dialogue.RoleAssistant,
		Text:      resp.Reply,
		Step:      string(resp.Step),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if resp.Done {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "end", Reference: resp.Reference})
		return true
	}
	return false
}

func (h *Handler) turn(ctx context.Context, id, text, lang string) (*conversation.TurnResponse, error) {
	resp, err := h.service.HandleTurn(ctx, conversation.TurnRequest{
		SessionID: id,
		Channel:   conversation.ChannelWebChat,
		Text:      text,
		Language:  lang,
	})
	if err != nil {
		h.logger.Error("webchat: turn failed", "error", err, "session_id", id)
		h.metrics.ObserveInbound(conversation.ChannelWebChat, "error")
		return nil, err
	}
	h.metrics.ObserveInbound(conversation.ChannelWebChat, "ok")
	return resp, nil
}

// HandleMessage is the HTTP fallback for sending messages.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req InboundMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	resp, err := h.turn(r.Context(), SessionID(req.SessionID), req.Text, req.Language)
	if err != nil {
		http.Error(w, "turn failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": req.SessionID,
		"reply":      resp.Reply,
		"done":       resp.Done,
		"reference":  resp.Reference,
	})
}

// HandleHistory returns the transcript of an open session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	widgetSession := r.URL.Query().Get("session")
	if widgetSession == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	history := []HistoryMessage{}
	if h.store != nil {
		sess, err := h.store.Load(r.Context(), SessionID(widgetSession))
		if err != nil {
			h.logger.Error("webchat: failed to load history", "error", err)
			http.Error(w, "failed to load history", http.StatusInternalServerError)
			return
		}
		if sess != nil {
			for _, ex := range sess.Transcript {
				history = append(history, HistoryMessage{
					Role:      ex.Role,
					Text:      ex.Text,
					Timestamp: ex.At.Format(time.RFC3339),
				})
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": history})
}
