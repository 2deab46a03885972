package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/starskyline/bareerah/pkg/logging"
)

const defaultFromName = "Star Skyline Limousine"

// EmailSender delivers one email to one recipient.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one operations email. Kind and SessionID travel as
// provider metadata so dispatch can filter by notification type.
type EmailMessage struct {
	To        string
	ToName    string
	Subject   string
	Body      string
	HTML      string
	Kind      Kind
	SessionID string
}

type sendGridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client  sendGridAPI
	from    *mail.Email
	sandbox bool
	logger  *logging.Logger
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// Sandbox accepts and validates mail without delivering it.
	Sandbox bool
}

// NewSendGridSender returns nil without an API key.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		client:  sendgrid.NewSendClient(cfg.APIKey),
		from:    mail.NewEmail(cfg.FromName, cfg.FromEmail),
		sandbox: cfg.Sandbox,
		logger:  logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	resp, err := s.client.SendWithContext(ctx, s.compose(msg))
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("sendgrid rejected email", "status", resp.StatusCode, "body", resp.Body, "kind", msg.Kind)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}
	s.logger.Debug("email sent via sendgrid", "kind", msg.Kind, "session_id", msg.SessionID)
	return nil
}

func (s *SendGridSender) compose(msg EmailMessage) *mail.SGMailV3 {
	htmlBody := msg.HTML
	if htmlBody == "" {
		htmlBody = "<pre>" + html.EscapeString(msg.Body) + "</pre>"
	}
	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Body, htmlBody)
	if msg.Kind != "" {
		m.AddCategories(string(msg.Kind))
	}
	if msg.SessionID != "" {
		m.SetCustomArg("session_id", msg.SessionID)
	}
	if s.sandbox {
		settings := mail.NewMailSettings()
		settings.SetSandboxMode(mail.NewSetting(true))
		m.SetMailSettings(settings)
	}
	return m
}

// StubEmailSender logs instead of sending.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("stub email", "to", msg.To, "kind", msg.Kind, "subject", msg.Subject, "body", msg.Body)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
