package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/starskyline/bareerah/pkg/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers through SES v2 in the deployment's AWS account.
type SESSender struct {
	client           sesAPI
	from             string
	configurationSet string
	logger           *logging.Logger
}

type SESConfig struct {
	FromEmail string
	FromName  string
	// ConfigurationSet routes bounce and delivery events, if set.
	ConfigurationSet string
}

// NewSESSender returns nil for a nil client so callers can fall back.
func NewSESSender(client sesAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	from := (&mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}).String()
	return &SESSender{client: client, from: from, configurationSet: cfg.ConfigurationSet, logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{Simple: &types.Message{
			Subject: utf8Content(msg.Subject),
			Body:    &types.Body{Text: utf8Content(msg.Body), Html: utf8Content(msg.HTML)},
		}},
	}
	if s.configurationSet != "" {
		in.ConfigurationSetName = aws.String(s.configurationSet)
	}
	if msg.Kind != "" {
		in.EmailTags = []types.MessageTag{{Name: aws.String("kind"), Value: aws.String(string(msg.Kind))}}
	}

	out, err := s.client.SendEmail(ctx, in)
	if err != nil {
		return fmt.Errorf("notify: SES send: %w", err)
	}
	s.logger.Debug("email sent via SES", "kind", msg.Kind, "session_id", msg.SessionID, "message_id", aws.ToString(out.MessageId))
	return nil
}

// utf8Content returns nil for empty text; SES rejects empty parts.
func utf8Content(text string) *types.Content {
	if text == "" {
		return nil
	}
	return &types.Content{Data: aws.String(text), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)
