// Package dialogue runs the slot-filling booking conversation: one caller
// utterance in, one assistant reply out, with all state kept on the session.
package dialogue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starskyline/bareerah/internal/fleet"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/location"
	"github.com/starskyline/bareerah/internal/nlu"
	"github.com/starskyline/bareerah/internal/normalize"
	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

// Transcript roles.
const (
	RoleCaller    = "caller"
	RoleAssistant = "assistant"
)

const (
	flightArrival   = "arrival"
	flightDeparture = "departure"
)

// Extractor understands one utterance.
type Extractor interface {
	Extract(ctx context.Context, req nlu.Request) nlu.Result
}

// Quoter prices a trip and lists upgrades.
type Quoter interface {
	Quote(ctx context.Context, req fleet.QuoteRequest) (fleet.Quote, error)
	Alternatives(base fleet.Quote, passengers, luggage int, bt fleet.BookingType, limit int) []fleet.Quote
}

var (
	_ Extractor = (*nlu.Extractor)(nil)
	_ Quoter    = (*fleet.Resolver)(nil)
)

// Policy tunes retries and defaults.
type Policy struct {
	MaxRetriesBeforeForceAccept int
	MaxEmptyTurns               int
	// AirportDefaultPeriod is proposed for an ambiguous airport pickup hour:
	// "AM", "PM", or empty to always ask.
	AirportDefaultPeriod string
	MaxAlternatives      int
	MaxPassengers        int
	MaxLuggage           int
	CompanyName          string
}

// DefaultPolicy returns the production settings.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetriesBeforeForceAccept: 2,
		MaxEmptyTurns:               2,
		AirportDefaultPeriod:        periodAM,
		MaxAlternatives:             3,
		MaxPassengers:               50,
		MaxLuggage:                  40,
		CompanyName:                 "Star Skyline Limousine",
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.MaxRetriesBeforeForceAccept <= 0 {
		p.MaxRetriesBeforeForceAccept = d.MaxRetriesBeforeForceAccept
	}
	if p.MaxEmptyTurns <= 0 {
		p.MaxEmptyTurns = d.MaxEmptyTurns
	}
	if p.MaxAlternatives <= 0 {
		p.MaxAlternatives = d.MaxAlternatives
	}
	if p.MaxPassengers <= 0 {
		p.MaxPassengers = d.MaxPassengers
	}
	if p.MaxLuggage <= 0 {
		p.MaxLuggage = d.MaxLuggage
	}
	if strings.TrimSpace(p.CompanyName) == "" {
		p.CompanyName = d.CompanyName
	}
	p.AirportDefaultPeriod = strings.ToUpper(strings.TrimSpace(p.AirportDefaultPeriod))
	return p
}

// Action tells the caller of Step what to do after speaking the reply.
type Action string

const (
	ActionContinue Action = "continue"
	// ActionFinalize means the caller agreed; build the draft and finalize.
	ActionFinalize Action = "finalize"
	ActionEnd      Action = "end"
)

// EscalationKind classifies why staff should look at a conversation.
type EscalationKind string

const (
	EscalationForcedSlot EscalationKind = "forced_slot"
	EscalationNoResponse EscalationKind = "no_response"
	EscalationCapacity   EscalationKind = "capacity"
)

// Escalation is raised alongside a reply for the notifier.
type Escalation struct {
	Kind   EscalationKind
	Slot   session.Slot
	Value  string
	Reason string
}

// Input is one caller utterance. Confidence is the speech recognizer's score;
// zero means unknown and is treated as certain.
type Input struct {
	Text       string
	Confidence float64
}

// Reply is what to say next.
type Reply struct {
	Text        string
	Action      Action
	Step        session.Step
	FAQ         FAQTopic
	Escalations []Escalation
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine advances sessions one turn at a time. It holds no per-session state.
type Engine struct {
	extractor Extractor
	validator *location.Validator
	norm      *normalize.Normalizer
	lex       *lexicon.Lexicon
	quoter    Quoter
	policy    Policy
	metrics   *metrics.ConversationMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// NewEngine wires the dialogue engine.
func NewEngine(extractor Extractor, validator *location.Validator, norm *normalize.Normalizer, quoter Quoter, policy Policy, m *metrics.ConversationMetrics, logger *logging.Logger, opts ...Option) *Engine {
	if extractor == nil {
		panic("dialogue: extractor cannot be nil")
	}
	if quoter == nil {
		panic("dialogue: quoter cannot be nil")
	}
	if norm == nil {
		norm = normalize.New(lexicon.Default())
	}
	if validator == nil {
		validator = location.NewValidator(nil, nil, location.DefaultPolicy(), norm.Lexicon(), logger)
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		extractor: extractor,
		validator: validator,
		norm:      norm,
		lex:       norm.Lexicon(),
		quoter:    quoter,
		policy:    policy.withDefaults(),
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// turn carries the working state of one Step call.
type turn struct {
	ctx   context.Context
	s     *session.Session
	raw   string
	text  string
	conf  float64
	now   time.Time
	parts []string
	reply Reply
}

func (t *turn) say(text string) {
	if text = strings.TrimSpace(text); text != "" {
		t.parts = append(t.parts, text)
	}
}

func (t *turn) escalate(esc Escalation) {
	t.reply.Escalations = append(t.reply.Escalations, esc)
}

// Start greets the caller and opens the flow. A caller ID pre-fills the
// contact number.
func (e *Engine) Start(s *session.Session) Reply {
	s.Normalize()
	now := e.now()
	if s.CallerNumber != "" && !s.Resolved(session.SlotContact) {
		if phone := normalize.NormalizePhone(s.CallerNumber); phone != "" {
			s.Lock(session.SlotContact, phone)
		}
	}
	s.FlowStep = session.StepDropoff
	text := render(keyGreeting, s.Language, e.policy.CompanyName)
	s.Record(RoleAssistant, text, now)
	s.UpdatedAt = now
	return Reply{Text: text, Action: ActionContinue, Step: s.FlowStep}
}

// Step handles one utterance and mutates s in place.
func (e *Engine) Step(ctx context.Context, s *session.Session, in Input) Reply {
	s.Normalize()
	now := e.now()
	s.Touch(now)
	s.Record(RoleCaller, strings.TrimSpace(in.Text), now)
	s.Language = lexicon.DetectLanguage(in.Text, s.Language)

	conf := in.Confidence
	if conf <= 0 || conf > 1 {
		conf = 1
	}
	t := &turn{ctx: ctx, s: s, raw: strings.TrimSpace(in.Text), conf: conf, now: now}
	t.text = e.norm.Normalize(in.Text, s.Language)

	e.dispatch(t)

	if t.reply.Action == "" {
		t.reply.Action = ActionContinue
	}
	t.reply.Text = strings.Join(t.parts, " ")
	t.reply.Step = s.FlowStep
	s.Record(RoleAssistant, t.reply.Text, now)

	e.metrics.ObserveTurn(string(s.FlowStep), string(t.reply.Action))
	e.logger.Debug("dialogue turn", "session_id", s.ID, "step", s.FlowStep, "action", t.reply.Action, "escalations", len(t.reply.Escalations))
	return t.reply
}

// Completion is the closing line once the booking has been finalized.
func (e *Engine) Completion(s *session.Session, confirmed bool, spokenReference string) string {
	key := keyDonePending
	if confirmed {
		key = keyDoneConfirmed
	}
	text := render(key, s.Language, spokenReference, e.policy.CompanyName)
	s.FlowStep = session.StepComplete
	s.Record(RoleAssistant, text, e.now())
	return text
}

func (e *Engine) dispatch(t *turn) {
	s := t.s
	if s.Status.Finished() || s.FlowStep == session.StepComplete {
		t.say(render(keyAlreadyDone, s.Language))
		t.reply.Action = ActionEnd
		return
	}
	if strings.TrimSpace(t.text) == "" {
		e.handleEmpty(t)
		return
	}
	s.EmptyTurns = 0

	switch s.FlowStep {
	case session.StepConfirm:
		e.handleConfirm(t)
	case session.StepUpgrade:
		e.handleUpgrade(t)
	case session.StepAmend:
		e.handleAmend(t)
	case session.StepVehicle:
		e.offerVehicle(t)
	case session.StepTimePeriod:
		e.handlePeriod(t)
	default:
		e.handleSlot(t)
	}
}

func (e *Engine) handleEmpty(t *turn) {
	s := t.s
	s.EmptyTurns++
	slot := s.FlowStep.Slot()
	if slot != "" && s.FlowStep != session.StepTimePeriod && !s.IsLocked(slot) && !s.PendingConfirm[slot] {
		n := s.Reject(slot, "")
		if e.shouldForce(n) && (s.BestGuess[slot] != "" || slot.Optional()) {
			e.forceAccept(t, slot, n)
			return
		}
	}
	if s.EmptyTurns >= e.policy.MaxEmptyTurns {
		e.terminate(t, "no response from caller")
		return
	}
	t.say(nlu.RepeatPrompt(s.Language))
	t.say(e.currentPrompt(s))
}

func (e *Engine) terminate(t *turn, reason string) {
	s := t.s
	slot := s.FlowStep.Slot()
	s.Status = session.StatusTerminated
	s.Flag(reason, slot, "", t.now)
	t.escalate(Escalation{Kind: EscalationNoResponse, Slot: slot, Reason: reason})
	e.metrics.ObserveEscalation(string(slot))
	t.say(render(keyTerminate, s.Language))
	t.reply.Action = ActionEnd
}

func (e *Engine) shouldForce(failures int) bool {
	return failures >= e.policy.MaxRetriesBeforeForceAccept
}

func (e *Engine) handleSlot(t *turn) {
	s := t.s
	slot := s.FlowStep.Slot()
	if slot == "" || s.Resolved(slot) {
		e.advance(t)
		return
	}
	if e.isQuestion(t) {
		if topic, answer, ok := e.answerFAQ(t); ok {
			t.reply.FAQ = topic
			t.say(answer)
			t.say(e.currentPrompt(s))
			return
		}
	}
	if s.PendingConfirm[slot] {
		e.handlePending(t, slot)
		return
	}
	e.collect(t, slot)
}

func (e *Engine) handlePending(t *turn, slot session.Slot) {
	s := t.s
	cand := s.Candidates[slot]
	switch e.lex.Confirmation(t.text) {
	case lexicon.Affirmative:
		e.lock(t, slot, cand.Value)
		e.advance(t)
	case lexicon.Negative:
		s.Withdraw(slot)
		rest := e.lex.StripLeading(t.text, lexicon.No, lexicon.Correction, lexicon.Filler)
		if len(e.lex.Tokens(rest, lexicon.Filler, lexicon.StopWord)) > 0 {
			t.text, t.raw = rest, rest
			e.collect(t, slot)
			return
		}
		t.say(askFor(s, slot))
	default:
		// Anything other than yes or no is a fresh answer.
		s.Withdraw(slot)
		e.collect(t, slot)
	}
}

func (e *Engine) extract(t *turn) nlu.Result {
	s := t.s
	locked := make(map[session.Slot]string, len(s.LockedSlots))
	for k, v := range s.LockedSlots {
		locked[k] = v
	}
	return e.extractor.Extract(t.ctx, nlu.Request{
		Utterance: t.text,
		FlowStep:  s.FlowStep,
		Locked:    locked,
		Missing:   e.missing(s),
		Language:  s.Language,
	})
}

func (e *Engine) collect(t *turn, slot session.Slot) {
	s := t.s
	res := e.extract(t)
	if e.applyCorrection(t, slot, res) {
		return
	}
	for other, v := range res.Slots {
		if other != slot && !s.Resolved(other) {
			s.Remember(other, session.Candidate{Value: v, Confidence: res.Confidence[other], Source: "nlu"})
		}
	}

	value, conf := res.Slots[slot], res.Confidence[slot]
	if value == "" {
		value, conf = t.text, 0.8
		if slot == session.SlotNotes || slot == session.SlotName {
			value = t.raw
		}
	}
	if conf <= 0 {
		conf = 0.8
	}
	if t.conf < conf {
		conf = t.conf
	}

	v := e.validate(t, slot, value, conf)
	switch {
	case v.skip:
		s.Skip(slot)
		e.advance(t)
	case v.ok && v.direct:
		e.lock(t, slot, v.value)
		e.advance(t)
	case v.ok:
		s.Propose(slot, session.Candidate{Value: v.value, Confidence: conf, Source: v.source})
		t.say(confirmFor(s.Language, slot, v.value))
	default:
		e.fail(t, slot, v.guess)
	}
}

// applyCorrection reopens a locked slot when the caller explicitly changes
// it mid-flow ("actually the pickup is Marina Mall").
func (e *Engine) applyCorrection(t *turn, current session.Slot, res nlu.Result) bool {
	s := t.s
	if res.Intent != nlu.IntentCorrection && !e.lex.Contains(lexicon.Correction, t.text) {
		return false
	}
	for slot, value := range res.Slots {
		if slot == current || !s.IsLocked(slot) || strings.EqualFold(value, s.Value(slot)) {
			continue
		}
		conf := res.Confidence[slot]
		if conf <= 0 {
			conf = 0.8
		}
		v := e.validate(t, slot, value, conf)
		if !v.ok || v.skip {
			continue
		}
		e.reopen(s, slot)
		s.FlowStep = session.StepFor(slot)
		if v.direct {
			e.lock(t, slot, v.value)
			e.advance(t)
			return true
		}
		s.Propose(slot, session.Candidate{Value: v.value, Confidence: conf, Source: v.source})
		t.say(confirmFor(s.Language, slot, v.value))
		return true
	}
	return false
}

func (e *Engine) fail(t *turn, slot session.Slot, guess string) {
	s := t.s
	n := s.Reject(slot, guess)
	if e.shouldForce(n) {
		e.forceAccept(t, slot, n)
		return
	}
	t.say(retryFor(s, slot))
}

// forceAccept locks the best value seen so far and flags it for staff.
func (e *Engine) forceAccept(t *turn, slot session.Slot, attempts int) {
	s := t.s
	value := s.BestGuess[slot]
	if value == "" {
		if slot.Optional() {
			s.Skip(slot)
			e.advance(t)
			return
		}
		value = e.slotDefault(s, slot)
	}
	if value == "" {
		e.terminate(t, fmt.Sprintf("no usable %s after %d attempts", slot, attempts))
		return
	}
	if (slot == session.SlotPickup || slot == session.SlotDropoff) && e.validator.IsAirport(value) {
		value = e.validator.NormalizeAirport(value)
	}
	reason := fmt.Sprintf("%s accepted without confirmation after %d attempts", slot, attempts)
	e.lock(t, slot, value)
	s.Flag(reason, slot, value, t.now)
	t.escalate(Escalation{Kind: EscalationForcedSlot, Slot: slot, Value: value, Reason: reason})
	e.metrics.ObserveEscalation(string(slot))
	e.logger.Info("slot force-accepted", "session_id", s.ID, "slot", slot, "attempts", attempts)
	t.say(render(keyForced, s.Language, value))
	e.advance(t)
}

func (e *Engine) slotDefault(s *session.Session, slot session.Slot) string {
	switch slot {
	case session.SlotPassengers:
		return "1"
	case session.SlotLuggage:
		return "0"
	case session.SlotContact:
		return normalize.NormalizePhone(s.CallerNumber)
	}
	return ""
}

// lock confirms a value and invalidates anything derived from it.
func (e *Engine) lock(t *turn, slot session.Slot, value string) {
	s := t.s
	s.Lock(slot, value)
	delete(s.BestGuess, slot)
	switch slot {
	case session.SlotPickup, session.SlotDropoff:
		e.classifyTrip(s)
		e.clearOffer(s)
	case session.SlotPassengers, session.SlotLuggage:
		e.clearOffer(s)
	case session.SlotDateTime:
		s.ProposedPeriod = ""
	}
}

// reopen unlocks slot for a correction.
func (e *Engine) reopen(s *session.Session, slot session.Slot) {
	s.Unlock(slot)
	switch slot {
	case session.SlotPickup, session.SlotDropoff, session.SlotPassengers, session.SlotLuggage:
		e.clearOffer(s)
	case session.SlotDateTime:
		s.ProposedPeriod = ""
	}
}

func (e *Engine) clearOffer(s *session.Session) {
	s.Offer = nil
	s.OfferSnapshot = nil
	s.Alternatives = nil
}

// classifyTrip sets the booking type once locations are known. An airport
// at the pickup end is an arrival.
func (e *Engine) classifyTrip(s *session.Session) {
	pickupAirport := s.IsLocked(session.SlotPickup) && e.validator.IsAirport(s.Value(session.SlotPickup))
	dropoffAirport := s.IsLocked(session.SlotDropoff) && e.validator.IsAirport(s.Value(session.SlotDropoff))
	switch {
	case pickupAirport:
		s.BookingType = string(fleet.AirportTransfer)
		s.FlightDirection = flightArrival
	case dropoffAirport:
		s.BookingType = string(fleet.AirportTransfer)
		s.FlightDirection = flightDeparture
	default:
		s.BookingType = string(fleet.PointToPoint)
		s.FlightDirection = ""
	}
}

var flow = []session.Slot{
	session.SlotDropoff,
	session.SlotPickup,
	session.SlotFlight,
	session.SlotDateTime,
	session.SlotPassengers,
	session.SlotLuggage,
	session.SlotName,
	session.SlotContact,
	session.SlotEmail,
	session.SlotNotes,
}

func (e *Engine) applies(s *session.Session, slot session.Slot) bool {
	if slot == session.SlotFlight {
		return s.BookingType == string(fleet.AirportTransfer)
	}
	return true
}

func (e *Engine) missing(s *session.Session) []session.Slot {
	var out []session.Slot
	for _, slot := range flow {
		if e.applies(s, slot) && !s.Resolved(slot) {
			out = append(out, slot)
		}
	}
	return out
}

// nextStep is the first unresolved step. Locked slots are never revisited.
func (e *Engine) nextStep(s *session.Session) session.Step {
	for _, slot := range flow {
		if !e.applies(s, slot) {
			continue
		}
		if !s.Resolved(slot) {
			return session.StepFor(slot)
		}
		if slot == session.SlotDateTime && needsPeriod(e.lex, s) {
			return session.StepTimePeriod
		}
	}
	if s.Offer == nil {
		return session.StepVehicle
	}
	return session.StepConfirm
}

// advance moves to the next step and asks its question.
func (e *Engine) advance(t *turn) {
	s := t.s
	s.FlowStep = e.nextStep(s)
	switch s.FlowStep {
	case session.StepTimePeriod:
		e.askPeriod(t)
		return
	case session.StepVehicle:
		e.offerVehicle(t)
		return
	case session.StepConfirm:
		t.say(render(keyConfirmAgain, s.Language))
		return
	}
	slot := s.FlowStep.Slot()
	if c, ok := s.Candidates[slot]; ok && !s.PendingConfirm[slot] {
		conf := c.Confidence
		if conf <= 0 {
			conf = 0.8
		}
		v := e.validate(t, slot, c.Value, conf)
		if v.ok && !v.direct && !v.skip {
			s.Propose(slot, session.Candidate{Value: v.value, Confidence: c.Confidence, Source: c.Source})
			t.say(confirmFor(s.Language, slot, v.value))
			return
		}
		delete(s.Candidates, slot)
	}
	t.say(askFor(s, slot))
}

// currentPrompt repeats whatever the caller was last asked.
func (e *Engine) currentPrompt(s *session.Session) string {
	switch s.FlowStep {
	case session.StepTimePeriod:
		if s.ProposedPeriod != "" {
			return render(keyPeriodConfirm, s.Language, s.Value(session.SlotDateTime)+" "+s.ProposedPeriod)
		}
		return render(keyPeriodAsk, s.Language)
	case session.StepConfirm, session.StepVehicle:
		return render(keyConfirmAgain, s.Language)
	case session.StepUpgrade:
		return e.upgradeOptions(s)
	case session.StepAmend:
		return render(keyAmendAsk, s.Language)
	}
	slot := s.FlowStep.Slot()
	if slot == "" {
		return ""
	}
	if s.PendingConfirm[slot] {
		return confirmFor(s.Language, slot, s.Candidates[slot].Value)
	}
	return askFor(s, slot)
}

func (e *Engine) askPeriod(t *turn) {
	s := t.s
	s.ProposedPeriod = e.inferPeriod(s)
	t.say(e.currentPrompt(s))
}

func (e *Engine) handlePeriod(t *turn) {
	s := t.s
	switch {
	case e.lex.Contains(lexicon.Morning, t.text):
		e.lockPeriod(t, periodAM)
		return
	case e.lex.Contains(lexicon.Evening, t.text):
		e.lockPeriod(t, periodPM)
		return
	case s.ProposedPeriod != "":
		switch e.lex.Confirmation(t.text) {
		case lexicon.Affirmative:
			e.lockPeriod(t, s.ProposedPeriod)
			return
		case lexicon.Negative:
			e.lockPeriod(t, flipPeriod(s.ProposedPeriod))
			return
		}
	}
	n := s.Reject(session.SlotDateTime, "")
	if e.shouldForce(n) {
		period := s.ProposedPeriod
		if period == "" {
			period = periodAM
		}
		reason := fmt.Sprintf("pickup time period assumed %s", period)
		s.Flag(reason, session.SlotDateTime, s.Value(session.SlotDateTime), t.now)
		t.escalate(Escalation{Kind: EscalationForcedSlot, Slot: session.SlotDateTime, Value: period, Reason: reason})
		e.metrics.ObserveEscalation(string(session.SlotDateTime))
		e.lockPeriod(t, period)
		return
	}
	t.say(render(keyRetryGeneric, s.Language))
	t.say(e.currentPrompt(s))
}

func (e *Engine) lockPeriod(t *turn, period string) {
	s := t.s
	e.lock(t, session.SlotDateTime, s.Value(session.SlotDateTime)+" "+period)
	e.advance(t)
}

func (e *Engine) offerVehicle(t *turn) {
	s := t.s
	passengers, _ := strconv.Atoi(s.Value(session.SlotPassengers))
	luggage, _ := strconv.Atoi(s.Value(session.SlotLuggage))
	bt := fleet.BookingType(s.BookingType)
	if bt == "" {
		bt = fleet.PointToPoint
	}
	q, err := e.quoter.Quote(t.ctx, fleet.QuoteRequest{
		Pickup:      s.Value(session.SlotPickup),
		Dropoff:     s.Value(session.SlotDropoff),
		Passengers:  passengers,
		Luggage:     luggage,
		BookingType: bt,
	})
	if err != nil {
		reason := fmt.Sprintf("no vehicle for %d passengers and %d bags", passengers, luggage)
		if !fleet.IsCapacityError(err) {
			reason = "quote failed: " + err.Error()
		}
		s.Status = session.StatusEscalated
		s.Flag(reason, session.SlotPassengers, s.Value(session.SlotPassengers), t.now)
		t.escalate(Escalation{Kind: EscalationCapacity, Slot: session.SlotPassengers, Value: s.Value(session.SlotPassengers), Reason: reason})
		e.metrics.ObserveEscalation(string(session.SlotPassengers))
		t.say(render(keyCapacity, s.Language))
		t.reply.Action = ActionEnd
		return
	}
	offer := offerFromQuote(q)
	s.Offer = &offer
	s.OfferSnapshot = nil
	s.Alternatives = nil
	s.FlowStep = session.StepConfirm
	e.metrics.ObserveFareQuote(string(q.FareSource))
	t.say(render(keyQuote, s.Language, vehicleName(offer.Vehicle), strconv.Itoa(passengers), strconv.Itoa(luggage), formatFare(offer.FareAED)))
}

func (e *Engine) handleConfirm(t *turn) {
	s := t.s
	if s.Offer == nil {
		e.advance(t)
		return
	}
	if s.OfferSnapshot != nil && e.lex.Contains(lexicon.GoBack, t.text) {
		e.restoreOffer(t)
		return
	}
	if e.lex.Contains(lexicon.Upgrade, t.text) {
		e.offerUpgrade(t)
		return
	}
	// A question is never taken as a yes.
	if e.isQuestion(t) {
		topic, answer, ok := e.answerFAQ(t)
		if !ok {
			answer = render(keyFAQFallback, s.Language)
		}
		t.reply.FAQ = topic
		t.say(answer)
		t.say(render(keyConfirmAgain, s.Language))
		return
	}
	if target := amendTarget(t.text); target != "" && e.lex.Contains(lexicon.Correction, t.text) {
		e.amend(t, target)
		return
	}
	switch e.lex.Confirmation(t.text) {
	case lexicon.Affirmative:
		s.FlowStep = session.StepComplete
		t.reply.Action = ActionFinalize
	case lexicon.Negative:
		if target := amendTarget(t.text); target != "" {
			e.amend(t, target)
			return
		}
		s.FlowStep = session.StepAmend
		t.say(render(keyAmendAsk, s.Language))
	default:
		t.say(render(keyConfirmAgain, s.Language))
	}
}

func (e *Engine) offerUpgrade(t *turn) {
	s := t.s
	passengers, _ := strconv.Atoi(s.Value(session.SlotPassengers))
	luggage, _ := strconv.Atoi(s.Value(session.SlotLuggage))
	alts := e.quoter.Alternatives(quoteFromOffer(*s.Offer), passengers, luggage, fleet.BookingType(s.BookingType), e.policy.MaxAlternatives)
	if len(alts) == 0 {
		t.say(render(keyUpgradeNone, s.Language, vehicleName(s.Offer.Vehicle)))
		return
	}
	if s.OfferSnapshot == nil {
		snapshot := *s.Offer
		s.OfferSnapshot = &snapshot
	}
	s.Alternatives = make([]session.Offer, 0, len(alts))
	for _, q := range alts {
		s.Alternatives = append(s.Alternatives, offerFromQuote(q))
	}
	s.FlowStep = session.StepUpgrade
	t.say(e.upgradeOptions(s))
}

func (e *Engine) upgradeOptions(s *session.Session) string {
	opts := make([]string, 0, len(s.Alternatives))
	for i, a := range s.Alternatives {
		opts = append(opts, fmt.Sprintf("%d. %s, %s AED", i+1, vehicleName(a.Vehicle), formatFare(a.FareAED)))
	}
	original := ""
	if s.OfferSnapshot != nil {
		original = vehicleName(s.OfferSnapshot.Vehicle)
	}
	return render(keyUpgradeOptions, s.Language, strings.Join(opts, "; "), original)
}

func (e *Engine) handleUpgrade(t *turn) {
	s := t.s
	if e.lex.Contains(lexicon.GoBack, t.text) {
		e.restoreOffer(t)
		return
	}
	if e.isQuestion(t) {
		if topic, answer, ok := e.answerFAQ(t); ok {
			t.reply.FAQ = topic
			t.say(answer)
			t.say(e.upgradeOptions(s))
			return
		}
	}
	if i := e.pickAlternative(s, t.text); i >= 0 {
		e.chooseAlternative(t, i)
		return
	}
	switch e.lex.Confirmation(t.text) {
	case lexicon.Affirmative:
		if len(s.Alternatives) == 1 {
			e.chooseAlternative(t, 0)
			return
		}
	case lexicon.Negative:
		e.restoreOffer(t)
		return
	}
	t.say(render(keyRetryGeneric, s.Language))
	t.say(e.upgradeOptions(s))
}

func (e *Engine) chooseAlternative(t *turn, i int) {
	s := t.s
	chosen := s.Alternatives[i]
	s.Offer = &chosen
	s.Alternatives = nil
	s.FlowStep = session.StepConfirm
	t.say(render(keyUpgradeChosen, s.Language, vehicleName(chosen.Vehicle), formatFare(chosen.FareAED)))
}

// restoreOffer rolls back to the offer made before the upgrade detour.
func (e *Engine) restoreOffer(t *turn) {
	s := t.s
	if s.OfferSnapshot != nil {
		s.Offer = s.OfferSnapshot
	}
	s.OfferSnapshot = nil
	s.Alternatives = nil
	s.FlowStep = session.StepConfirm
	t.say(render(keyUpgradeRestored, s.Language, vehicleName(s.Offer.Vehicle), formatFare(s.Offer.FareAED)))
}

var ordinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "1st": 1, "2nd": 2, "3rd": 3,
	"pehli": 1, "pehla": 1, "doosri": 2, "dusri": 2, "teesri": 3,
	"awwal": 1, "thani": 2, "thalith": 3,
}

// pickAlternative matches a vehicle name or a position in the option list.
func (e *Engine) pickAlternative(s *session.Session, text string) int {
	padded := " " + lexicon.Fold(text) + " "
	best, bestLen := -1, 0
	for i, a := range s.Alternatives {
		cat, _ := fleet.ParseCategory(a.Vehicle)
		for _, name := range []string{cat.DisplayName(), strings.ReplaceAll(string(cat), "_", " ")} {
			name = lexicon.Fold(name)
			if name != "" && strings.Contains(padded, " "+name+" ") && len(name) > bestLen {
				best, bestLen = i, len(name)
			}
		}
	}
	if best >= 0 {
		return best
	}
	for _, w := range strings.Fields(padded) {
		if n, ok := ordinals[w]; ok && n <= len(s.Alternatives) {
			return n - 1
		}
	}
	if n, ok := e.norm.ExtractNumberIn(text, s.Language); ok && n >= 1 && n <= len(s.Alternatives) {
		return n - 1
	}
	return -1
}

func (e *Engine) isQuestion(t *turn) bool {
	if strings.ContainsAny(t.raw, "?؟") {
		return true
	}
	return e.lex.Index(lexicon.Question, t.text) == 0
}

func (e *Engine) answerFAQ(t *turn) (FAQTopic, string, bool) {
	if topic, answer, ok := AnswerFAQ(t.raw, t.s.Language, t.s.Offer); ok {
		return topic, answer, true
	}
	return AnswerFAQ(t.text, t.s.Language, t.s.Offer)
}

func vehicleName(v string) string {
	if cat, ok := fleet.ParseCategory(v); ok {
		return cat.DisplayName()
	}
	return v
}

func offerFromQuote(q fleet.Quote) session.Offer {
	return session.Offer{
		Vehicle:       string(q.Vehicle),
		FareAED:       q.FareAED,
		DistanceKm:    q.DistanceKm,
		FareSource:    string(q.FareSource),
		VehicleSource: string(q.VehicleSource),
	}
}

func quoteFromOffer(o session.Offer) fleet.Quote {
	cat, _ := fleet.ParseCategory(o.Vehicle)
	return fleet.Quote{
		Vehicle:       cat,
		FareAED:       o.FareAED,
		DistanceKm:    o.DistanceKm,
		FareSource:    fleet.Source(o.FareSource),
		VehicleSource: fleet.Source(o.VehicleSource),
	}
}
