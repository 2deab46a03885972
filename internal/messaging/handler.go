package messaging

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/dialogue"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/pkg/logging"
)

var twilioTracer = otel.Tracer("bareerah.messaging.twilio")

type turnService interface {
	StartSession(ctx context.Context, req conversation.StartRequest) (*conversation.TurnResponse, error)
	HandleTurn(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResponse, error)
	Abandon(ctx context.Context, id, reason string) (bool, error)
}

type turnPublisher interface {
	EnqueueTurn(ctx context.Context, req conversation.TurnRequest) (string, error)
}

var (
	_ turnService   = (*conversation.Service)(nil)
	_ turnPublisher = (*conversation.Publisher)(nil)
)

// HandlerConfig configures the Twilio webhooks.
type HandlerConfig struct {
	// GatherPath is where speech results are posted. Relative paths are
	// resolved by Twilio against the webhook URL.
	GatherPath string
	Voice      VoiceSettings
}

// Handler serves the Twilio voice and WhatsApp webhooks.
type Handler struct {
	service    turnService
	publisher  turnPublisher
	signatures *SignatureValidator
	twiml      *TwiML
	gatherPath string
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger
}

// NewHandler creates the webhook handler. With a nil publisher WhatsApp
// messages are answered inline instead of through the worker.
func NewHandler(service turnService, publisher turnPublisher, signatures *SignatureValidator, cfg HandlerConfig, m *metrics.ConversationMetrics, logger *logging.Logger) *Handler {
	if service == nil {
		panic("messaging: conversation service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.GatherPath == "" {
		cfg.GatherPath = "/webhooks/twilio/voice/gather"
	}
	return &Handler{
		service:    service,
		publisher:  publisher,
		signatures: signatures,
		twiml:      NewTwiML(cfg.Voice),
		gatherPath: cfg.GatherPath,
		metrics:    m,
		logger:     logger,
	}
}

// VoiceStart handles POST /webhooks/twilio/voice when a call is answered.
func (h *Handler) VoiceStart(w http.ResponseWriter, r *http.Request) {
	if !h.verify(w, r, conversation.ChannelVoice) {
		return
	}
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.voice_start")
	defer span.End()

	callSid := r.PostFormValue("CallSid")
	span.SetAttributes(attribute.String("bareerah.session_id", callSid))
	resp, err := h.service.StartSession(ctx, conversation.StartRequest{
		SessionID: callSid,
		Channel:   conversation.ChannelVoice,
		From:      r.PostFormValue("From"),
		To:        r.PostFormValue("To"),
	})
	if err != nil {
		span.RecordError(err)
		h.logger.Error("voice start failed", "error", err, "call_sid", callSid)
		h.metrics.ObserveInbound(conversation.ChannelVoice, "error")
		h.writeHangup(w, dialogue.FatalPrompt(lexicon.English), lexicon.English)
		return
	}
	h.metrics.ObserveInbound(conversation.ChannelVoice, "ok")
	h.writeVoice(w, resp)
}

// VoiceGather handles POST /webhooks/twilio/voice/gather with the speech
// result of the last prompt. A missing SpeechResult is a silent turn.
func (h *Handler) VoiceGather(w http.ResponseWriter, r *http.Request) {
	if !h.verify(w, r, conversation.ChannelVoice) {
		return
	}
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.voice_gather")
	defer span.End()

	callSid := r.PostFormValue("CallSid")
	span.SetAttributes(attribute.String("bareerah.session_id", callSid))
	confidence, _ := strconv.ParseFloat(r.PostFormValue("Confidence"), 64)
	resp, err := h.service.HandleTurn(ctx, conversation.TurnRequest{
		SessionID:  callSid,
		Channel:    conversation.ChannelVoice,
		From:       r.PostFormValue("From"),
		To:         r.PostFormValue("To"),
		Text:       r.PostFormValue("SpeechResult"),
		Confidence: confidence,
	})
	if err != nil {
		span.RecordError(err)
		h.logger.Error("voice turn failed", "error", err, "call_sid", callSid)
		h.metrics.ObserveInbound(conversation.ChannelVoice, "error")
		h.writeHangup(w, dialogue.FatalPrompt(lexicon.English), lexicon.English)
		return
	}
	h.metrics.ObserveInbound(conversation.ChannelVoice, "ok")
	h.writeVoice(w, resp)
}

// VoiceStatus handles the call-status callback. A call that ends before the
// booking is complete leaves a dropped lead.
func (h *Handler) VoiceStatus(w http.ResponseWriter, r *http.Request) {
	if !h.verify(w, r, conversation.ChannelVoice) {
		return
	}
	callSid := r.PostFormValue("CallSid")
	status := strings.ToLower(r.PostFormValue("CallStatus"))
	if isTerminalCallStatus(status) && callSid != "" {
		dropped, err := h.service.Abandon(r.Context(), callSid, "call_"+strings.ReplaceAll(status, "-", "_"))
		if err != nil {
			h.logger.Warn("could not close call session", "error", err, "call_sid", callSid, "status", status)
		} else if dropped {
			h.logger.Info("call ended before booking completed", "call_sid", callSid, "status", status)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// WhatsApp handles POST /webhooks/twilio/whatsapp. Sessions are keyed by the
// sender so a chat continues across messages.
func (h *Handler) WhatsApp(w http.ResponseWriter, r *http.Request) {
	if !h.verify(w, r, conversation.ChannelWhatsApp) {
		return
	}
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.whatsapp")
	defer span.End()

	from := strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
	req := conversation.TurnRequest{
		SessionID: WhatsAppSessionID(from),
		Channel:   conversation.ChannelWhatsApp,
		From:      from,
		To:        strings.TrimPrefix(r.PostFormValue("To"), "whatsapp:"),
		Text:      r.PostFormValue("Body"),
	}
	if from == "" {
		h.metrics.ObserveInbound(conversation.ChannelWhatsApp, "invalid")
		http.Error(w, "missing From", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("bareerah.session_id", req.SessionID))

	if h.publisher != nil {
		jobID, err := h.publisher.EnqueueTurn(ctx, req)
		if err != nil {
			span.RecordError(err)
			h.logger.Error("failed to enqueue whatsapp turn", "error", err, "session_id", req.SessionID)
			h.metrics.ObserveInbound(conversation.ChannelWhatsApp, "error")
			http.Error(w, "failed to schedule reply", http.StatusInternalServerError)
			return
		}
		h.logger.Debug("whatsapp turn enqueued", "job_id", jobID, "session_id", req.SessionID)
		h.metrics.ObserveInbound(conversation.ChannelWhatsApp, "queued")
		h.writeMessage(w, "")
		return
	}

	resp, err := h.service.HandleTurn(ctx, req)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("whatsapp turn failed", "error", err, "session_id", req.SessionID)
		h.metrics.ObserveInbound(conversation.ChannelWhatsApp, "error")
		h.writeMessage(w, dialogue.FatalPrompt(lexicon.English))
		return
	}
	h.metrics.ObserveInbound(conversation.ChannelWhatsApp, "ok")
	h.writeMessage(w, resp.Reply)
}

// HealthCheck answers GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// WhatsAppSessionID derives the session id for a WhatsApp sender.
func WhatsAppSessionID(number string) string {
	return "wa:" + strings.TrimPrefix(strings.TrimSpace(number), "whatsapp:")
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request, channel string) bool {
	if err := r.ParseForm(); err != nil {
		h.metrics.ObserveInbound(channel, "invalid")
		http.Error(w, "invalid form", http.StatusBadRequest)
		return false
	}
	if !h.signatures.Valid(r) {
		h.logger.Warn("rejected webhook with bad signature", "path", r.URL.Path)
		h.metrics.ObserveInbound(channel, "forbidden")
		http.Error(w, "invalid signature", http.StatusForbidden)
		return false
	}
	return true
}

func (h *Handler) writeVoice(w http.ResponseWriter, resp *conversation.TurnResponse) {
	if resp.Done {
		h.writeHangup(w, resp.Reply, resp.Language)
		return
	}
	out, err := h.twiml.Gather(resp.Reply, resp.Language, h.gatherPath)
	if err != nil {
		h.logger.Error("failed to render gather", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeXML(w, out)
}

func (h *Handler) writeHangup(w http.ResponseWriter, text string, lang lexicon.Language) {
	out, err := h.twiml.Hangup(text, lang)
	if err != nil {
		h.logger.Error("failed to render hangup", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeXML(w, out)
}

func (h *Handler) writeMessage(w http.ResponseWriter, body string) {
	out, err := h.twiml.Message(body)
	if err != nil {
		h.logger.Error("failed to render message", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeXML(w, out)
}

func writeXML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func isTerminalCallStatus(status string) bool {
	switch status {
	case "completed", "no-answer", "failed", "busy", "canceled":
		return true
	}
	return false
}
