package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/starskyline/bareerah/internal/conversation"
	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/notify"
	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/pkg/logging"
)

const dependencyTwilio = "twilio"

var twilioSendTracer = otel.Tracer("bareerah.messaging.twilio_send")

type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioConfig holds the REST credentials and sender numbers.
type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	From         string
	WhatsAppFrom string
	Timeout      time.Duration
}

// TwilioSender posts WhatsApp replies and operations SMS through the Twilio
// REST API.
type TwilioSender struct {
	api          messageAPI
	from         string
	whatsappFrom string
	timeout      time.Duration
	metrics      *metrics.ConversationMetrics
	logger       *logging.Logger
}

// NewTwilioSender returns nil when credentials are missing so callers can
// leave the channel unconfigured.
func NewTwilioSender(cfg TwilioConfig, m *metrics.ConversationMetrics, logger *logging.Logger) *TwilioSender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSender(client.Api, cfg, m, logger)
}

func newTwilioSender(api messageAPI, cfg TwilioConfig, m *metrics.ConversationMetrics, logger *logging.Logger) *TwilioSender {
	if api == nil {
		panic("messaging: twilio api cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TwilioSender{
		api:          api,
		from:         cfg.From,
		whatsappFrom: cfg.WhatsAppFrom,
		timeout:      cfg.Timeout,
		metrics:      m,
		logger:       logger,
	}
}

var (
	_ conversation.ReplySender = (*TwilioSender)(nil)
	_ notify.SMSSender         = (*TwilioSender)(nil)
)

// SendReply delivers a conversation reply on its channel. Only WhatsApp and
// SMS replies go out over REST; voice replies are rendered as TwiML.
func (s *TwilioSender) SendReply(ctx context.Context, msg conversation.OutboundReply) error {
	switch msg.Channel {
	case conversation.ChannelWhatsApp:
		from := msg.From
		if from == "" {
			from = s.whatsappFrom
		}
		return s.send(ctx, whatsappAddress(msg.To), whatsappAddress(from), msg.Body)
	case conversation.ChannelSMS, "":
		from := msg.From
		if from == "" {
			from = s.from
		}
		return s.send(ctx, msg.To, from, msg.Body)
	}
	return fmt.Errorf("messaging: channel %q cannot be sent over twilio", msg.Channel)
}

// SendSMS is used by the notifier to text the operations phone.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	return s.send(ctx, to, s.from, body)
}

func (s *TwilioSender) send(ctx context.Context, to, from, body string) error {
	if strings.TrimSpace(to) == "" || to == "whatsapp:" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(from) == "" || from == "whatsapp:" {
		return errors.New("messaging: from required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("bareerah.to", to))

	start := time.Now()
	sid, err := extcall.Do(ctx, dependencyTwilio, s.timeout, func(ctx context.Context) (string, error) {
		return s.create(ctx, to, from, body)
	})
	s.metrics.ObserveExternalCall(dependencyTwilio, err, start)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("twilio send failed", "error", err, "to", to, "kind", extcall.KindOf(err).String())
		return fmt.Errorf("messaging: twilio send: %w", err)
	}
	s.logger.Info("twilio message sent", "to", to, "sid", sid)
	return nil
}

// create runs the blocking REST call so ctx can still cut it short.
func (s *TwilioSender) create(ctx context.Context, to, from, body string) (string, error) {
	type result struct {
		sid string
		err error
	}
	done := make(chan result, 1)
	go func() {
		params := &openapi.CreateMessageParams{}
		params.SetTo(to)
		params.SetFrom(from)
		params.SetBody(body)
		resp, err := s.api.CreateMessage(params)
		var sid string
		if err == nil && resp != nil && resp.Sid != nil {
			sid = *resp.Sid
		}
		done <- result{sid: sid, err: err}
	}()
	select {
	case r := <-done:
		return r.sid, classifyTwilioError(r.err)
	case <-ctx.Done():
		return "", extcall.Timeout(dependencyTwilio, ctx.Err())
	}
}

// classifyTwilioError keeps rate limits and server errors retryable and
// treats every other API rejection as final.
func classifyTwilioError(err error) error {
	if err == nil {
		return nil
	}
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) {
		if restErr.Status == 429 || restErr.Status >= 500 {
			return extcall.Unavailable(dependencyTwilio, err)
		}
		return extcall.Invalid(dependencyTwilio, err)
	}
	return extcall.Classify(dependencyTwilio, err)
}

func whatsappAddress(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
