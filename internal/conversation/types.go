package conversation

import (
	"context"
	"errors"

	"github.com/starskyline/bareerah/internal/booking"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/session"
)

// Channels a conversation can arrive on.
const (
	ChannelVoice    = "voice"
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
	ChannelWebChat  = "webchat"
	ChannelAPI      = "api"
)

// ErrSessionRequired is returned when a request carries no session id.
var ErrSessionRequired = errors.New("conversation: session id required")

// StartRequest opens a conversation, e.g. when a call is answered.
type StartRequest struct {
	SessionID string `json:"session_id"`
	Channel   string `json:"channel"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Language  string `json:"language,omitempty"`
}

// TurnRequest is one inbound utterance or message.
type TurnRequest struct {
	SessionID  string  `json:"session_id"`
	Channel    string  `json:"channel"`
	From       string  `json:"from,omitempty"`
	To         string  `json:"to,omitempty"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
	Language   string  `json:"language,omitempty"`
}

// TurnResponse is what the channel should say or send back.
type TurnResponse struct {
	SessionID     string           `json:"session_id"`
	Reply         string           `json:"reply"`
	Step          session.Step     `json:"step"`
	Status        session.Status   `json:"status"`
	Language      lexicon.Language `json:"language"`
	Done          bool             `json:"done"`
	Reference     string           `json:"reference,omitempty"`
	BookingStatus booking.Status   `json:"booking_status,omitempty"`
}

// OutboundReply is a message pushed to the customer outside the webhook
// response.
type OutboundReply struct {
	Channel string
	To      string
	From    string
	Body    string
}

// ReplySender pushes replies for asynchronous channels.
type ReplySender interface {
	SendReply(ctx context.Context, msg OutboundReply) error
}
