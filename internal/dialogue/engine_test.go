package dialogue

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starskyline/bareerah/internal/fleet"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/nlu"
	"github.com/starskyline/bareerah/internal/session"
)

type stubExtractor struct {
	results map[string]nlu.Result
	calls   []nlu.Request
}

func (s *stubExtractor) Extract(_ context.Context, req nlu.Request) nlu.Result {
	s.calls = append(s.calls, req)
	if r, ok := s.results[req.Utterance]; ok {
		return r
	}
	return nlu.Result{Slots: map[session.Slot]string{}, Confidence: map[session.Slot]float64{}, NextStep: req.FlowStep}
}

type stubQuoter struct {
	quote fleet.Quote
	err   error
	alts  []fleet.Quote
	reqs  []fleet.QuoteRequest
}

func (q *stubQuoter) Quote(_ context.Context, req fleet.QuoteRequest) (fleet.Quote, error) {
	q.reqs = append(q.reqs, req)
	return q.quote, q.err
}

func (q *stubQuoter) Alternatives(fleet.Quote, int, int, fleet.BookingType, int) []fleet.Quote {
	return q.alts
}

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func sedanQuote() fleet.Quote {
	return fleet.Quote{Vehicle: fleet.Sedan, FareAED: 120, DistanceKm: 14.2, FareSource: fleet.SourceLocal, VehicleSource: fleet.SourceLocal}
}

func newTestEngine(ext *stubExtractor, q *stubQuoter) *Engine {
	if ext == nil {
		ext = &stubExtractor{}
	}
	if q == nil {
		q = &stubQuoter{quote: sedanQuote()}
	}
	return NewEngine(ext, nil, nil, q, DefaultPolicy(), nil, nil, WithClock(func() time.Time { return testNow }))
}

func newCall() *session.Session {
	return session.New("CA123", "voice", "+971501234567", lexicon.English, testNow)
}

// atConfirm returns a session with every slot settled and a sedan offer on
// the table.
func atConfirm() *session.Session {
	s := newCall()
	s.Lock(session.SlotDropoff, "Dubai Mall")
	s.Lock(session.SlotPickup, "Burj Khalifa")
	s.Lock(session.SlotDateTime, "tomorrow at 6 pm")
	s.Lock(session.SlotPassengers, "3")
	s.Lock(session.SlotLuggage, "2")
	s.Lock(session.SlotName, "Ahmed Khan")
	s.Lock(session.SlotContact, "+971501234567")
	s.Skip(session.SlotEmail)
	s.Skip(session.SlotNotes)
	s.BookingType = string(fleet.PointToPoint)
	s.Offer = &session.Offer{Vehicle: "sedan", FareAED: 120, DistanceKm: 14.2, FareSource: "local"}
	s.FlowStep = session.StepConfirm
	return s
}

func step(t *testing.T, e *Engine, s *session.Session, text string) Reply {
	t.Helper()
	return e.Step(context.Background(), s, Input{Text: text})
}

func TestEngineStartGreetsAndPrefillsContact(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()

	reply := e.Start(s)

	assert.Contains(t, reply.Text, "Star Skyline Limousine")
	assert.Equal(t, session.StepDropoff, s.FlowStep)
	assert.Equal(t, "+971501234567", s.Value(session.SlotContact))
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, RoleAssistant, s.Transcript[0].Role)
}

func TestEngineCompletesPointToPointBooking(t *testing.T) {
	q := &stubQuoter{quote: sedanQuote()}
	e := newTestEngine(nil, q)
	s := newCall()
	e.Start(s)

	script := []struct {
		say      string
		contains string
		step     session.Step
	}{
		{"Dubai Mall", "Drop-off at Dubai Mall", session.StepDropoff},
		{"yes", "Where should we pick you up?", session.StepPickup},
		{"Burj Khalifa", "Pickup from Burj Khalifa", session.StepPickup},
		{"yes", "What date and time", session.StepDateTime},
		{"tomorrow at 6 pm", "tomorrow at 6 pm", session.StepDateTime},
		{"yes", "How many passengers", session.StepPassengers},
		{"3 passengers", "3 passengers, correct?", session.StepPassengers},
		{"yes", "How many bags", session.StepLuggage},
		{"2 bags", "2 bags, correct?", session.StepLuggage},
		{"yes", "May I have your name", session.StepName},
		{"my name is ahmed khan", "Your name is Ahmed Khan", session.StepName},
		{"yes", "email", session.StepEmail},
		{"skip", "special requests", session.StepNotes},
		{"no", "I recommend a Sedan for 3 passengers and 2 bags. The fare is 120 dirhams.", session.StepConfirm},
	}
	for _, line := range script {
		reply := step(t, e, s, line.say)
		assert.Contains(t, reply.Text, line.contains, "after %q", line.say)
		assert.Equal(t, line.step, s.FlowStep, "after %q", line.say)
		assert.Equal(t, ActionContinue, reply.Action, "after %q", line.say)
	}

	reply := step(t, e, s, "yes please")
	assert.Equal(t, ActionFinalize, reply.Action)
	assert.Equal(t, session.StepComplete, s.FlowStep)

	assert.Equal(t, "Dubai Mall", s.Value(session.SlotDropoff))
	assert.Equal(t, "Burj Khalifa", s.Value(session.SlotPickup))
	assert.Equal(t, "3", s.Value(session.SlotPassengers))
	assert.Equal(t, "2", s.Value(session.SlotLuggage))
	assert.Equal(t, "Ahmed Khan", s.Value(session.SlotName))
	assert.True(t, s.Skipped[session.SlotEmail])
	assert.True(t, s.Skipped[session.SlotNotes])
	assert.Equal(t, string(fleet.PointToPoint), s.BookingType)
	require.NotNil(t, s.Offer)
	assert.Equal(t, "sedan", s.Offer.Vehicle)
	assert.False(t, s.NeedsFollowUp())

	require.Len(t, q.reqs, 1)
	assert.Equal(t, 3, q.reqs[0].Passengers)
	assert.Equal(t, 2, q.reqs[0].Luggage)

	done := e.Completion(s, true, "S S L, 2 6")
	assert.Contains(t, done, "S S L, 2 6")
	assert.Contains(t, done, "confirmed")
}

func TestEngineNeverReasksLockedSlot(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	e.Start(s)

	var replies []string
	for _, line := range []string{"Dubai Mall", "yes", "Burj Khalifa", "yes", "tomorrow at 6 pm", "yes", "3", "yes"} {
		replies = append(replies, step(t, e, s, line).Text)
	}

	askDropoff := render(keyAskDropoff, lexicon.English)
	askPickup := render(keyAskPickup, lexicon.English)
	for i, r := range replies[2:] {
		assert.NotContains(t, r, askDropoff, "reply %d", i+2)
	}
	for i, r := range replies[4:] {
		assert.NotContains(t, r, askPickup, "reply %d", i+4)
	}
	assert.Equal(t, session.StepLuggage, s.FlowStep)
}

func TestEngineAirportArrivalAsksFlightAndInfersPeriod(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	e.Start(s)

	step(t, e, s, "Dubai Mall")
	step(t, e, s, "yes")
	reply := step(t, e, s, "DXB airport")
	assert.Contains(t, reply.Text, "Dubai International Airport (DXB)")

	reply = step(t, e, s, "yes")
	assert.Equal(t, string(fleet.AirportTransfer), s.BookingType)
	assert.Equal(t, flightArrival, s.FlightDirection)
	assert.Equal(t, session.StepFlightInfo, s.FlowStep)
	assert.Contains(t, reply.Text, "landing time")

	step(t, e, s, "EK 203")
	require.True(t, s.PendingConfirm[session.SlotFlight])
	step(t, e, s, "yes")
	assert.Contains(t, s.Value(session.SlotFlight), "203")
	assert.Equal(t, session.StepDateTime, s.FlowStep)

	step(t, e, s, "tomorrow at 5")
	reply = step(t, e, s, "yes")
	assert.Equal(t, session.StepTimePeriod, s.FlowStep)
	assert.Contains(t, reply.Text, "tomorrow at 5 AM")

	step(t, e, s, "yes")
	assert.Equal(t, "tomorrow at 5 AM", s.Value(session.SlotDateTime))
	assert.Equal(t, session.StepPassengers, s.FlowStep)
}

func TestEnginePeriodDenialFlips(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	s.Lock(session.SlotDropoff, "Dubai International Airport (DXB)")
	s.Lock(session.SlotPickup, "Dubai Mall")
	s.BookingType = string(fleet.AirportTransfer)
	s.FlightDirection = flightDeparture
	s.Skip(session.SlotFlight)
	s.FlowStep = session.StepDateTime

	step(t, e, s, "friday at 7")
	step(t, e, s, "yes")
	require.Equal(t, session.StepTimePeriod, s.FlowStep)
	assert.Equal(t, periodAM, s.ProposedPeriod)

	step(t, e, s, "no")
	assert.Equal(t, "friday at 7 PM", s.Value(session.SlotDateTime))
	assert.Equal(t, session.StepPassengers, s.FlowStep)
}

func TestEngineTwoEmptyTurnsTerminate(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	e.Start(s)

	first := step(t, e, s, "")
	assert.Equal(t, ActionContinue, first.Action)
	assert.Contains(t, first.Text, "repeat")

	second := step(t, e, s, "   ")
	assert.Equal(t, ActionEnd, second.Action)
	assert.Equal(t, session.StatusTerminated, s.Status)
	require.Len(t, second.Escalations, 1)
	assert.Equal(t, EscalationNoResponse, second.Escalations[0].Kind)
	assert.True(t, s.NeedsFollowUp())
	assert.Contains(t, second.Text, "call you back")
}

func TestEngineForceAcceptsBestGuessAfterRetries(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	e.Start(s)

	reply := step(t, e, s, "blorp zanti")
	assert.Contains(t, reply.Text, "more specific place")
	assert.Equal(t, 1, s.AttemptCounters[session.SlotDropoff])
	assert.Equal(t, "blorp zanti", s.BestGuess[session.SlotDropoff])

	reply = step(t, e, s, "")
	assert.Equal(t, ActionContinue, reply.Action)
	assert.Equal(t, "blorp zanti", s.Value(session.SlotDropoff))
	require.Len(t, reply.Escalations, 1)
	assert.Equal(t, EscalationForcedSlot, reply.Escalations[0].Kind)
	assert.Equal(t, session.SlotDropoff, reply.Escalations[0].Slot)
	assert.True(t, s.NeedsFollowUp())
	assert.Equal(t, session.StepPickup, s.FlowStep)
	assert.Contains(t, reply.Text, "I've noted blorp zanti")
}

func TestEngineSymbolOnlyAnswerAtLuggageKeepsCall(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	s.Lock(session.SlotDropoff, "Dubai Mall")
	s.Lock(session.SlotPickup, "Burj Khalifa")
	s.Lock(session.SlotDateTime, "tomorrow at 6 pm")
	s.Lock(session.SlotPassengers, "2")
	s.FlowStep = session.StepLuggage

	var reply Reply
	require.NotPanics(t, func() { reply = step(t, e, s, "???") })
	assert.Equal(t, ActionContinue, reply.Action)
	assert.Equal(t, session.StatusActive, s.Status)
	assert.NotEmpty(t, reply.Text)
	assert.False(t, s.IsLocked(session.SlotLuggage))
}

func TestEngineConfirmationWordsAreNotPickupTimes(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	s.Lock(session.SlotDropoff, "Dubai Mall")
	s.Lock(session.SlotPickup, "Burj Khalifa")
	s.FlowStep = session.StepDateTime

	first := step(t, e, s, "yes")
	assert.Equal(t, ActionContinue, first.Action)
	assert.Empty(t, s.BestGuess[session.SlotDateTime])

	second := step(t, e, s, "yes")
	assert.Equal(t, ActionEnd, second.Action)
	assert.Equal(t, session.StatusTerminated, s.Status)
	assert.Empty(t, s.Value(session.SlotDateTime))
	require.Len(t, second.Escalations, 1)
	assert.Equal(t, EscalationNoResponse, second.Escalations[0].Kind)
	assert.Equal(t, session.SlotDateTime, second.Escalations[0].Slot)
	assert.NotContains(t, second.Text, "I've noted yes")
}

func TestEngineDenialWithNewValueReproposes(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	e.Start(s)

	step(t, e, s, "Dubai Mall")
	reply := step(t, e, s, "no, Burj Khalifa")
	assert.Contains(t, reply.Text, "Drop-off at Burj Khalifa")
	assert.Equal(t, "Burj Khalifa", s.Candidates[session.SlotDropoff].Value)
	assert.Zero(t, s.AttemptCounters[session.SlotDropoff])
}

func TestEngineExplicitCorrectionReopensLockedSlot(t *testing.T) {
	ext := &stubExtractor{results: map[string]nlu.Result{
		"actually the pickup is Dubai Marina Mall": {
			Slots:      map[session.Slot]string{session.SlotPickup: "Dubai Marina Mall"},
			Confidence: map[session.Slot]float64{session.SlotPickup: 0.9},
			Intent:     nlu.IntentCorrection,
		},
	}}
	e := newTestEngine(ext, nil)
	s := newCall()
	s.Lock(session.SlotDropoff, "Dubai Mall")
	s.Lock(session.SlotPickup, "Burj Khalifa")
	s.FlowStep = session.StepDateTime

	reply := step(t, e, s, "actually the pickup is Dubai Marina Mall")
	assert.False(t, s.IsLocked(session.SlotPickup))
	assert.Equal(t, session.StepPickup, s.FlowStep)
	assert.Contains(t, reply.Text, "Pickup from Dubai Marina Mall")

	step(t, e, s, "yes")
	assert.Equal(t, "Dubai Marina Mall", s.Value(session.SlotPickup))
	assert.Equal(t, session.StepDateTime, s.FlowStep)
}

func TestEngineRemembersOtherSlotsForLater(t *testing.T) {
	ext := &stubExtractor{results: map[string]nlu.Result{
		"Dubai Mall from Burj Khalifa": {
			Slots: map[session.Slot]string{
				session.SlotDropoff: "Dubai Mall",
				session.SlotPickup:  "Burj Khalifa",
			},
			Confidence: map[session.Slot]float64{session.SlotDropoff: 0.9, session.SlotPickup: 0.9},
		},
	}}
	e := newTestEngine(ext, nil)
	s := newCall()
	e.Start(s)

	step(t, e, s, "Dubai Mall from Burj Khalifa")
	reply := step(t, e, s, "yes")

	assert.Equal(t, "Dubai Mall", s.Value(session.SlotDropoff))
	assert.True(t, s.PendingConfirm[session.SlotPickup])
	assert.Contains(t, reply.Text, "Pickup from Burj Khalifa")
}

func TestEngineConfirmQuestionGoesToFAQ(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := atConfirm()

	reply := step(t, e, s, "how much is the fare?")
	assert.Equal(t, ActionContinue, reply.Action)
	assert.Equal(t, FAQFare, reply.FAQ)
	assert.Contains(t, reply.Text, "The fare for the Sedan is 120 dirhams")
	assert.Contains(t, reply.Text, "Shall I confirm the booking?")
	assert.Equal(t, session.StepConfirm, s.FlowStep)

	reply = step(t, e, s, "is it ok?")
	assert.Equal(t, ActionContinue, reply.Action, "a question is not a yes")

	reply = step(t, e, s, "yes")
	assert.Equal(t, ActionFinalize, reply.Action)
}

func TestEngineUpgradeAndGoBack(t *testing.T) {
	q := &stubQuoter{
		quote: sedanQuote(),
		alts: []fleet.Quote{
			{Vehicle: fleet.SUV, FareAED: 160, DistanceKm: 14.2, FareSource: fleet.SourceLocal},
			{Vehicle: fleet.LuxurySUV, FareAED: 240, DistanceKm: 14.2, FareSource: fleet.SourceLocal},
		},
	}
	e := newTestEngine(nil, q)
	s := atConfirm()

	reply := step(t, e, s, "can I get an upgrade")
	assert.Equal(t, session.StepUpgrade, s.FlowStep)
	assert.Contains(t, reply.Text, "1. SUV, 160 AED")
	assert.Contains(t, reply.Text, "2. Luxury SUV, 240 AED")
	require.NotNil(t, s.OfferSnapshot)
	assert.Equal(t, "sedan", s.OfferSnapshot.Vehicle)

	reply = step(t, e, s, "the luxury suv")
	assert.Equal(t, session.StepConfirm, s.FlowStep)
	assert.Equal(t, "luxury_suv", s.Offer.Vehicle)
	assert.Contains(t, reply.Text, "Luxury SUV at 240 dirhams")

	reply = step(t, e, s, "go back")
	assert.Equal(t, "sedan", s.Offer.Vehicle)
	assert.InDelta(t, 120, s.Offer.FareAED, 0.001)
	assert.Nil(t, s.OfferSnapshot)
	assert.Contains(t, reply.Text, "keeping the Sedan")
}

func TestEngineUpgradeWithNoAlternatives(t *testing.T) {
	e := newTestEngine(nil, &stubQuoter{quote: sedanQuote()})
	s := atConfirm()

	reply := step(t, e, s, "upgrade")
	assert.Equal(t, session.StepConfirm, s.FlowStep)
	assert.Contains(t, reply.Text, "already the best fit")
	assert.Nil(t, s.OfferSnapshot)
}

func TestEngineAmendTimeKeepsOffer(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := atConfirm()

	reply := step(t, e, s, "no, change the time")
	assert.Equal(t, session.StepDateTime, s.FlowStep)
	assert.False(t, s.IsLocked(session.SlotDateTime))
	assert.Contains(t, reply.Text, "What date and time")

	step(t, e, s, "friday at 18:00")
	reply = step(t, e, s, "yes")
	assert.Equal(t, "friday at 18:00", s.Value(session.SlotDateTime))
	assert.Equal(t, session.StepConfirm, s.FlowStep)
	assert.Contains(t, reply.Text, "Shall I confirm the booking?")
	require.NotNil(t, s.Offer)
}

func TestEngineAmendPassengersRequotes(t *testing.T) {
	q := &stubQuoter{quote: sedanQuote()}
	e := newTestEngine(nil, q)
	s := atConfirm()

	step(t, e, s, "no")
	require.Equal(t, session.StepAmend, s.FlowStep)
	step(t, e, s, "the passengers")
	require.Equal(t, session.StepPassengers, s.FlowStep)
	assert.Nil(t, s.Offer)

	step(t, e, s, "4")
	reply := step(t, e, s, "yes")
	assert.Equal(t, session.StepConfirm, s.FlowStep)
	assert.Contains(t, reply.Text, "for 4 passengers")
	require.Len(t, q.reqs, 1)
	assert.Equal(t, 4, q.reqs[0].Passengers)
}

func TestEngineCapacityEscalates(t *testing.T) {
	e := newTestEngine(nil, &stubQuoter{err: fleet.ErrExceedsCapacity})
	s := atConfirm()
	s.Offer = nil
	s.Lock(session.SlotPassengers, "20")
	s.FlowStep = session.StepNotes
	s.Unlock(session.SlotNotes)

	reply := step(t, e, s, "nothing")
	assert.Equal(t, ActionEnd, reply.Action)
	assert.Equal(t, session.StatusEscalated, s.Status)
	require.Len(t, reply.Escalations, 1)
	assert.Equal(t, EscalationCapacity, reply.Escalations[0].Kind)
	assert.Contains(t, reply.Text, "more than one car")
}

func TestEngineSlotQuestionAnswersAndReasks(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	e.Start(s)

	reply := step(t, e, s, "do you have child seats?")
	assert.Equal(t, FAQChildSeat, reply.FAQ)
	assert.Contains(t, reply.Text, "Child seats are free")
	assert.Contains(t, reply.Text, "Where would you like to go?")
	assert.Zero(t, s.AttemptCounters[session.SlotDropoff])
}

func TestEngineFinishedSessionEnds(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := atConfirm()
	s.FlowStep = session.StepComplete

	reply := step(t, e, s, "hello?")
	assert.Equal(t, ActionEnd, reply.Action)
}

func TestEngineSpeaksCallerLanguage(t *testing.T) {
	e := newTestEngine(nil, nil)
	s := newCall()
	s.Language = lexicon.Urdu
	e.Start(s)

	reply := step(t, e, s, "")
	assert.True(t, strings.Contains(reply.Text, "Aap kahan jana chahte hain?"), reply.Text)
}
