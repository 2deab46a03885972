package conversation

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/starskyline/bareerah/internal/booking"
	"github.com/starskyline/bareerah/internal/dialogue"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/notify"
	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

var tracer = otel.Tracer("bareerah.conversation")

// Engine is satisfied by *dialogue.Engine.
type Engine interface {
	Start(s *session.Session) dialogue.Reply
	Step(ctx context.Context, s *session.Session, in dialogue.Input) dialogue.Reply
	Completion(s *session.Session, confirmed bool, spokenReference string) string
}

// Finalizer is satisfied by *booking.Finalizer.
type Finalizer interface {
	Finalize(ctx context.Context, d booking.Draft) booking.Outcome
}

// Archiver is satisfied by *archive.Archiver.
type Archiver interface {
	Archive(ctx context.Context, s *session.Session) error
}

// Notifier is satisfied by *notify.Service.
type Notifier interface {
	NotifyAsync(kind notify.Kind, p notify.Payload)
}

var (
	_ Engine    = (*dialogue.Engine)(nil)
	_ Finalizer = (*booking.Finalizer)(nil)
	_ Notifier  = (*notify.Service)(nil)
)

// ServiceConfig bounds how long a turn may hold or wait for a session.
type ServiceConfig struct {
	LockTTL  time.Duration
	LockWait time.Duration
}

// Service runs one turn at a time per session: lock, load, step, save.
type Service struct {
	store     session.Store
	locker    session.Locker
	engine    Engine
	finalizer Finalizer
	archiver  Archiver
	notifier  Notifier
	cfg       ServiceConfig
	now       func() time.Time
	logger    *logging.Logger
}

// NewService wires the turn orchestrator. archiver and notifier may be nil.
func NewService(store session.Store, locker session.Locker, engine Engine, finalizer Finalizer, archiver Archiver, notifier Notifier, cfg ServiceConfig, logger *logging.Logger) *Service {
	if store == nil {
		panic("conversation: session store cannot be nil")
	}
	if engine == nil {
		panic("conversation: dialogue engine cannot be nil")
	}
	if finalizer == nil {
		panic("conversation: finalizer cannot be nil")
	}
	if locker == nil {
		locker = session.NewMemoryLocker()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 5 * time.Second
	}
	return &Service{
		store:     store,
		locker:    locker,
		engine:    engine,
		finalizer: finalizer,
		archiver:  archiver,
		notifier:  notifier,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// StartSession creates the session and returns the greeting. Starting a
// session that already exists repeats the last thing the assistant said.
func (s *Service) StartSession(ctx context.Context, req StartRequest) (*TurnResponse, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, ErrSessionRequired
	}
	ctx, span := tracer.Start(ctx, "conversation.start", turnAttributes(req.SessionID, req.Channel))
	defer span.End()

	release, err := s.lock(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	turnReq := TurnRequest{SessionID: req.SessionID, Channel: req.Channel, From: req.From, To: req.To, Language: req.Language}
	sess, err := s.store.Load(ctx, req.SessionID)
	if err != nil {
		span.RecordError(err)
		return s.fail(ctx, turnReq, nil, fmt.Errorf("load session: %w", err)), nil
	}
	if sess != nil {
		sess.Normalize()
		return s.response(sess, lastAssistantLine(sess), false), nil
	}

	sess = s.newSession(turnReq)
	greeting := s.engine.Start(sess)
	s.logger.Info("conversation started", "session_id", sess.ID, "channel", sess.Channel, "language", sess.Language)
	return s.persist(ctx, sess, turnReq, greeting.Text, false), nil
}

// HandleTurn processes one utterance. A session that does not exist yet is
// created first, so channels without an explicit start event just work.
func (s *Service) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, ErrSessionRequired
	}
	ctx, span := tracer.Start(ctx, "conversation.turn", turnAttributes(req.SessionID, req.Channel))
	defer span.End()

	release, err := s.lock(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	sess, err := s.store.Load(ctx, req.SessionID)
	if err != nil {
		span.RecordError(err)
		return s.fail(ctx, req, nil, fmt.Errorf("load session: %w", err)), nil
	}

	var greeting string
	if sess == nil {
		sess = s.newSession(req)
		greeting = s.engine.Start(sess).Text
		s.logger.Info("conversation started", "session_id", sess.ID, "channel", sess.Channel, "language", sess.Language)
		if strings.TrimSpace(req.Text) == "" || isGreeting(req.Text) {
			return s.persist(ctx, sess, req, greeting, false), nil
		}
	}

	reply, err := s.step(ctx, sess, dialogue.Input{Text: req.Text, Confidence: req.Confidence})
	if err != nil {
		span.RecordError(err)
		return s.fail(ctx, req, sess, err), nil
	}

	text := reply.Text
	var bookingStatus booking.Status
	if reply.Action == dialogue.ActionFinalize {
		closing, status, err := s.finalize(ctx, sess)
		if err != nil {
			span.RecordError(err)
			return s.fail(ctx, req, sess, err), nil
		}
		text = joinText(text, closing)
		bookingStatus = status
	}
	s.escalate(sess, reply.Escalations)

	done := reply.Action != dialogue.ActionContinue
	resp := s.persist(ctx, sess, req, joinText(greeting, text), done)
	if resp.BookingStatus == "" {
		resp.BookingStatus = bookingStatus
	}
	return resp, nil
}

// Abandon closes a session that will get no more turns: a hung-up call or an
// idle chat. An active session is marked dropped and reported as a lead.
// Finished sessions left behind by a failed archive are cleaned up. It
// reports whether a lead was dropped.
func (s *Service) Abandon(ctx context.Context, id, reason string) (bool, error) {
	ctx, span := tracer.Start(ctx, "conversation.abandon", trace.WithAttributes(attribute.String("bareerah.session_id", id)))
	defer span.End()

	release, err := s.lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer release()

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("conversation: load %s: %w", id, err)
	}
	if sess == nil {
		return false, nil
	}
	sess.Normalize()

	dropped := false
	if !sess.Status.Finished() {
		now := s.now()
		sess.Status = session.StatusDropped
		sess.Flag(reason, "", "", now)
		sess.UpdatedAt = now
		s.notify(notify.KindLeadDropped, sess, "Customer left before the booking was completed", nil)
		s.logger.Info("session dropped", "session_id", id, "reason", reason, "step", sess.FlowStep)
		dropped = true
	}
	if err := s.finish(ctx, sess); err != nil {
		return dropped, err
	}
	return dropped, nil
}

func (s *Service) newSession(req TurnRequest) *session.Session {
	channel := req.Channel
	if channel == "" {
		channel = ChannelAPI
	}
	return session.New(req.SessionID, channel, req.From, lexicon.ParseLanguage(req.Language), s.now())
}

func (s *Service) lock(ctx context.Context, id string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.LockWait)
	defer cancel()
	release, err := s.locker.Acquire(waitCtx, id, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, session.ErrLocked) {
			return nil, err
		}
		return nil, fmt.Errorf("conversation: lock %s: %w", id, err)
	}
	return release, nil
}

// step runs the state machine, turning a panic into an error so the caller
// still hears the callback prompt.
func (s *Service) step(ctx context.Context, sess *session.Session, in dialogue.Input) (reply dialogue.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dialogue panic: %v", r)
		}
	}()
	return s.engine.Step(ctx, sess, in), nil
}

func (s *Service) finalize(ctx context.Context, sess *session.Session) (string, booking.Status, error) {
	draft, err := booking.DraftFromSession(sess)
	if err != nil {
		return "", "", fmt.Errorf("build draft: %w", err)
	}
	outcome := s.finalizer.Finalize(ctx, draft)
	sess.Reference = outcome.Reference
	sess.Status = session.StatusCompleted

	reference := outcome.Reference
	if sess.Channel == ChannelVoice {
		reference = booking.SpokenReference(reference)
	}
	closing := s.engine.Completion(sess, outcome.Status == booking.StatusConfirmed, reference)
	return closing, outcome.Status, nil
}

// persist saves an active session, or archives and deletes a finished one.
func (s *Service) persist(ctx context.Context, sess *session.Session, req TurnRequest, text string, done bool) *TurnResponse {
	if sess.Status.Finished() {
		if err := s.finish(ctx, sess); err != nil {
			s.logger.Warn("finished session kept for the sweeper", "error", err, "session_id", sess.ID)
		}
		return s.response(sess, text, true)
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return s.fail(ctx, req, sess, fmt.Errorf("save session: %w", err))
	}
	return s.response(sess, text, done)
}

// finish archives a finished session, then deletes it. If the archive fails
// the session is saved instead so a later sweep can retry.
func (s *Service) finish(ctx context.Context, sess *session.Session) error {
	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, sess); err != nil {
			if saveErr := s.store.Save(ctx, sess); saveErr != nil {
				return errors.Join(fmt.Errorf("conversation: archive %s: %w", sess.ID, err), saveErr)
			}
			return fmt.Errorf("conversation: archive %s: %w", sess.ID, err)
		}
	}
	if err := s.store.Delete(ctx, sess.ID); err != nil {
		return fmt.Errorf("conversation: delete %s: %w", sess.ID, err)
	}
	return nil
}

// fail ends the turn with the callback prompt. Whatever was collected is
// saved and operations are asked to call the customer back.
func (s *Service) fail(ctx context.Context, req TurnRequest, sess *session.Session, cause error) *TurnResponse {
	logger := s.logger.WithSession(req.SessionID)
	logger.Error("turn failed", "error", cause, "channel", req.Channel)

	lang := lexicon.ParseLanguage(req.Language)
	if sess != nil {
		lang = sess.Language
	}
	text := dialogue.FatalPrompt(lang)
	now := s.now()

	if sess == nil {
		sess = s.newSession(req)
		sess.Language = lang
	}
	sess.Status = session.StatusEscalated
	sess.Flag("system_error", "", cause.Error(), now)
	sess.Record(dialogue.RoleAssistant, text, now)
	if err := s.store.Save(ctx, sess); err != nil {
		logger.Error("could not save session after failure", "error", err)
	}
	s.notify(notify.KindFollowUpRequired, sess, "The assistant failed mid-conversation; call the customer back", nil)
	return s.response(sess, text, true)
}

func (s *Service) escalate(sess *session.Session, escalations []dialogue.Escalation) {
	for _, esc := range escalations {
		kind := notify.KindFollowUpRequired
		summary := "The customer needs a call back"
		switch esc.Kind {
		case dialogue.EscalationForcedSlot:
			kind = notify.KindSlotEscalated
			summary = fmt.Sprintf("%s was accepted without confirmation as %q", slotLabel(esc.Slot), esc.Value)
		case dialogue.EscalationNoResponse:
			summary = "The customer stopped responding"
		case dialogue.EscalationCapacity:
			summary = "The group is larger than any single vehicle"
		}
		s.notify(kind, sess, summary, []string{esc.Reason})
	}
}

func (s *Service) notify(kind notify.Kind, sess *session.Session, summary string, reasons []string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyAsync(kind, payloadFor(sess, summary, reasons, s.now()))
}

func (s *Service) response(sess *session.Session, text string, done bool) *TurnResponse {
	return &TurnResponse{
		SessionID: sess.ID,
		Reply:     text,
		Step:      sess.FlowStep,
		Status:    sess.Status,
		Language:  sess.Language,
		Done:      done || sess.Status.Finished(),
		Reference: sess.Reference,
	}
}

var greetingOnly = regexp.MustCompile(`(?i)^\s*(hi+|hello|hey|hiya|salam|salaam|assalam[ -]?o[ -]?alaikum|as-?salamu alaikum|marhaba|ahlan|good (morning|afternoon|evening)|السلام عليكم|مرحبا)\s*[!.,]*\s*$`)

func turnAttributes(id, channel string) trace.SpanStartOption {
	return trace.WithAttributes(attribute.String("bareerah.session_id", id), attribute.String("bareerah.channel", channel))
}

// isGreeting reports whether an opening message carries no booking content.
func isGreeting(text string) bool {
	return greetingOnly.MatchString(text)
}

func lastAssistantLine(sess *session.Session) string {
	for i := len(sess.Transcript) - 1; i >= 0; i-- {
		if sess.Transcript[i].Role == dialogue.RoleAssistant {
			return sess.Transcript[i].Text
		}
	}
	return ""
}

func joinText(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
