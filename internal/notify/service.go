package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/pkg/logging"
)

// Kind names an operations notification.
type Kind string

const (
	KindBookingConfirmed Kind = "booking_confirmed"
	KindBookingPending   Kind = "booking_pending"
	KindSlotEscalated    Kind = "slot_escalated"
	KindFollowUpRequired Kind = "followup_required"
	KindLeadDropped      Kind = "lead_dropped"
)

var subjects = map[Kind]string{
	KindBookingConfirmed: "New booking confirmed",
	KindBookingPending:   "Booking pending sync - action needed",
	KindSlotEscalated:    "Booking detail needs verification",
	KindFollowUpRequired: "Call back required",
	KindLeadDropped:      "Abandoned booking lead",
}

// Field is one labelled line in a notification.
type Field struct {
	Name  string
	Value string
}

// Payload is what operations needs to act on a notification.
type Payload struct {
	SessionID    string
	Reference    string
	Channel      string
	CallerNumber string
	Summary      string
	Fields       []Field
	Reasons      []string
	OccurredAt   time.Time
}

// SMSSender sends a text message to the operations phone.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Config controls recipients and retry behaviour.
type Config struct {
	EmailRecipients []string
	OpsPhone        string
	CompanyName     string
	MaxAttempts     int
	InitialBackoff  time.Duration
	AsyncTimeout    time.Duration
}

// Service delivers operations notifications with retries.
type Service struct {
	email   EmailSender
	sms     SMSSender
	cfg     Config
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics
	sleep   func(context.Context, time.Duration) error
	wg      sync.WaitGroup
}

// NewService builds a Service. email and sms may be nil.
func NewService(email EmailSender, sms SMSSender, cfg Config, m *metrics.ConversationMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.AsyncTimeout <= 0 {
		cfg.AsyncTimeout = 30 * time.Second
	}
	if cfg.CompanyName == "" {
		cfg.CompanyName = "Star Skyline Limousine"
	}
	return &Service{email: email, sms: sms, cfg: cfg, logger: logger, metrics: m, sleep: sleepCtx}
}

// Notify sends kind to every configured channel. Each delivery is attempted
// up to MaxAttempts times with doubling backoff.
func (s *Service) Notify(ctx context.Context, kind Kind, p Payload) error {
	if p.OccurredAt.IsZero() {
		p.OccurredAt = time.Now().UTC()
	}
	subject, body := s.render(kind, p)

	var errs []error
	delivered := false
	if s.email != nil {
		for _, to := range s.cfg.EmailRecipients {
			msg := EmailMessage{To: to, Subject: subject, Body: body, Kind: kind, SessionID: p.SessionID}
			if err := s.retry(ctx, func(ctx context.Context) error { return s.email.Send(ctx, msg) }); err != nil {
				errs = append(errs, fmt.Errorf("email %s: %w", to, err))
				continue
			}
			delivered = true
		}
	}
	if s.sms != nil && s.cfg.OpsPhone != "" {
		text := smsText(subject, p)
		if err := s.retry(ctx, func(ctx context.Context) error { return s.sms.SendSMS(ctx, s.cfg.OpsPhone, text) }); err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		} else {
			delivered = true
		}
	}

	err := errors.Join(errs...)
	if !delivered && err == nil {
		s.logger.Warn("notification has no configured channel", "kind", kind, "session_id", p.SessionID, "body", body)
	}
	if err != nil {
		s.logger.Error("notification delivery failed", "kind", kind, "session_id", p.SessionID, "error", err)
		err = fmt.Errorf("notify: %s: %w", kind, err)
	}
	s.metrics.ObserveNotification(string(kind), err)
	return err
}

// NotifyAsync sends in the background with its own deadline so the caller's
// turn is never held up. Wait blocks until all such sends finish.
func (s *Service) NotifyAsync(kind Kind, p Payload) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.AsyncTimeout)
		defer cancel()
		_ = s.Notify(ctx, kind, p)
	}()
}

// Wait drains background notifications, giving up when ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) retry(ctx context.Context, fn func(context.Context) error) error {
	backoff := s.cfg.InitialBackoff
	var err error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == s.cfg.MaxAttempts {
			break
		}
		if serr := s.sleep(ctx, backoff); serr != nil {
			return errors.Join(err, serr)
		}
		backoff *= 2
	}
	return err
}

func (s *Service) render(kind Kind, p Payload) (string, string) {
	subject, ok := subjects[kind]
	if !ok {
		subject = string(kind)
	}
	if p.Reference != "" {
		subject = fmt.Sprintf("%s [%s]", subject, p.Reference)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n\n", s.cfg.CompanyName, subject)
	if p.Summary != "" {
		b.WriteString(p.Summary)
		b.WriteString("\n\n")
	}
	writeLine(&b, "Reference", p.Reference)
	writeLine(&b, "Session", p.SessionID)
	writeLine(&b, "Channel", p.Channel)
	writeLine(&b, "Caller", p.CallerNumber)
	for _, f := range p.Fields {
		writeLine(&b, f.Name, f.Value)
	}
	if len(p.Reasons) > 0 {
		reasons := append([]string(nil), p.Reasons...)
		sort.Strings(reasons)
		b.WriteString("\nFollow-up reasons:\n")
		for _, r := range reasons {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	fmt.Fprintf(&b, "\nTime: %s\n", p.OccurredAt.Format(time.RFC1123))
	return subject, b.String()
}

func writeLine(b *strings.Builder, name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", name, value)
}

func smsText(subject string, p Payload) string {
	parts := []string{subject}
	if p.CallerNumber != "" {
		parts = append(parts, "caller "+p.CallerNumber)
	}
	if p.Summary != "" {
		parts = append(parts, p.Summary)
	}
	return truncateRunes(strings.Join(parts, " | "), maxSMSRunes)
}

const maxSMSRunes = 300

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
