// Package session holds per-conversation slot state and the stores that
// persist it between turns.
package session

import (
	"time"

	"github.com/starskyline/bareerah/internal/lexicon"
)

// Slot names a piece of booking information.
type Slot string

const (
	SlotDropoff    Slot = "dropoff"
	SlotPickup     Slot = "pickup"
	SlotFlight     Slot = "flight_info"
	SlotDateTime   Slot = "datetime"
	SlotPassengers Slot = "passengers"
	SlotLuggage    Slot = "luggage"
	SlotName       Slot = "customer_name"
	SlotContact    Slot = "contact_number"
	SlotEmail      Slot = "email"
	SlotNotes      Slot = "notes"
)

// Optional reports whether a slot may be skipped instead of locked.
func (s Slot) Optional() bool {
	return s == SlotEmail || s == SlotNotes || s == SlotFlight
}

// Step is the position of a conversation in the booking flow.
type Step string

const (
	StepDropoff    Step = "dropoff"
	StepPickup     Step = "pickup"
	StepFlightInfo Step = "flight_info"
	StepDateTime   Step = "datetime"
	StepTimePeriod Step = "time_period"
	StepPassengers Step = "passengers"
	StepLuggage    Step = "luggage"
	StepName       Step = "name"
	StepContact    Step = "contact"
	StepEmail      Step = "email"
	StepNotes      Step = "notes"
	StepVehicle    Step = "vehicle"
	StepUpgrade    Step = "upgrade"
	StepConfirm    Step = "confirm"
	StepAmend      Step = "amend"
	StepComplete   Step = "complete"
)

// Slot returns the slot a step collects, or "" for non-slot steps.
func (s Step) Slot() Slot {
	switch s {
	case StepDropoff:
		return SlotDropoff
	case StepPickup:
		return SlotPickup
	case StepFlightInfo:
		return SlotFlight
	case StepDateTime, StepTimePeriod:
		return SlotDateTime
	case StepPassengers:
		return SlotPassengers
	case StepLuggage:
		return SlotLuggage
	case StepName:
		return SlotName
	case StepContact:
		return SlotContact
	case StepEmail:
		return SlotEmail
	case StepNotes:
		return SlotNotes
	}
	return ""
}

// StepFor returns the step that collects slot.
func StepFor(slot Slot) Step {
	switch slot {
	case SlotDropoff:
		return StepDropoff
	case SlotPickup:
		return StepPickup
	case SlotFlight:
		return StepFlightInfo
	case SlotDateTime:
		return StepDateTime
	case SlotPassengers:
		return StepPassengers
	case SlotLuggage:
		return StepLuggage
	case SlotName:
		return StepName
	case SlotContact:
		return StepContact
	case SlotEmail:
		return StepEmail
	case SlotNotes:
		return StepNotes
	}
	return ""
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive     Status = "active"
	StatusCompleted  Status = "completed"
	StatusEscalated  Status = "escalated"
	StatusTerminated Status = "terminated"
	StatusDropped    Status = "dropped"
)

// Finished reports whether the session should be archived and deleted.
func (s Status) Finished() bool {
	return s != StatusActive && s != ""
}

// Candidate is a value extracted for a slot that has not been locked yet.
type Candidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
}

// Offer is a priced vehicle proposal.
type Offer struct {
	Vehicle       string  `json:"vehicle"`
	FareAED       float64 `json:"fare_aed"`
	DistanceKm    float64 `json:"distance_km"`
	FareSource    string  `json:"fare_source"`
	VehicleSource string  `json:"vehicle_source,omitempty"`
}

// FollowUp records why a human needs to look at this booking.
type FollowUp struct {
	Reason string    `json:"reason"`
	Slot   Slot      `json:"slot,omitempty"`
	Value  string    `json:"value,omitempty"`
	At     time.Time `json:"at"`
}

// Exchange is one line of the conversation transcript.
type Exchange struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

const maxTranscript = 200

// Session is the complete state of one conversation. It is loaded, mutated
// and saved back once per turn.
type Session struct {
	ID           string           `json:"id"`
	Channel      string           `json:"channel"`
	CallerNumber string           `json:"caller_number,omitempty"`
	Language     lexicon.Language `json:"language"`
	FlowStep     Step             `json:"flow_step"`
	Status       Status           `json:"status"`

	LockedSlots     map[Slot]string    `json:"locked_slots"`
	Candidates      map[Slot]Candidate `json:"candidates,omitempty"`
	PendingConfirm  map[Slot]bool      `json:"pending_confirm,omitempty"`
	AttemptCounters map[Slot]int       `json:"attempt_counters,omitempty"`
	BestGuess       map[Slot]string    `json:"best_guess,omitempty"`
	Skipped         map[Slot]bool      `json:"skipped,omitempty"`
	EmptyTurns      int                `json:"empty_turns"`

	BookingType     string `json:"booking_type,omitempty"`
	FlightDirection string `json:"flight_direction,omitempty"`
	ProposedPeriod  string `json:"proposed_period,omitempty"`

	Offer         *Offer  `json:"offer,omitempty"`
	OfferSnapshot *Offer  `json:"offer_snapshot,omitempty"`
	Alternatives  []Offer `json:"alternatives,omitempty"`

	FollowUps  []FollowUp `json:"follow_ups,omitempty"`
	Transcript []Exchange `json:"transcript,omitempty"`
	Reference  string     `json:"reference,omitempty"`
	Turns      int        `json:"turns"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// New starts a session at the first step of the flow.
func New(id, channel, caller string, lang lexicon.Language, now time.Time) *Session {
	s := &Session{
		ID:           id,
		Channel:      channel,
		CallerNumber: caller,
		Language:     lang,
		FlowStep:     StepDropoff,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.ensureMaps()
	return s
}

func (s *Session) ensureMaps() {
	if s.LockedSlots == nil {
		s.LockedSlots = make(map[Slot]string)
	}
	if s.Candidates == nil {
		s.Candidates = make(map[Slot]Candidate)
	}
	if s.PendingConfirm == nil {
		s.PendingConfirm = make(map[Slot]bool)
	}
	if s.AttemptCounters == nil {
		s.AttemptCounters = make(map[Slot]int)
	}
	if s.BestGuess == nil {
		s.BestGuess = make(map[Slot]string)
	}
	if s.Skipped == nil {
		s.Skipped = make(map[Slot]bool)
	}
}

// Normalize fills nil maps after decoding.
func (s *Session) Normalize() {
	s.ensureMaps()
	if s.Status == "" {
		s.Status = StatusActive
	}
	if s.FlowStep == "" {
		s.FlowStep = StepDropoff
	}
}

// IsLocked reports whether slot has a confirmed value.
func (s *Session) IsLocked(slot Slot) bool {
	_, ok := s.LockedSlots[slot]
	return ok
}

// Resolved reports whether slot is locked or was explicitly skipped.
func (s *Session) Resolved(slot Slot) bool {
	return s.IsLocked(slot) || s.Skipped[slot]
}

// Lock confirms a value and clears any pending state for the slot.
func (s *Session) Lock(slot Slot, value string) {
	s.LockedSlots[slot] = value
	delete(s.Candidates, slot)
	delete(s.PendingConfirm, slot)
	delete(s.Skipped, slot)
	delete(s.AttemptCounters, slot)
}

// Unlock reopens a slot for a correction.
func (s *Session) Unlock(slot Slot) {
	delete(s.LockedSlots, slot)
	delete(s.PendingConfirm, slot)
	delete(s.Skipped, slot)
	delete(s.AttemptCounters, slot)
}

// Skip marks an optional slot as declined.
func (s *Session) Skip(slot Slot) {
	s.Skipped[slot] = true
	delete(s.Candidates, slot)
	delete(s.PendingConfirm, slot)
	delete(s.AttemptCounters, slot)
}

// Propose stores a candidate and waits for a yes/no.
func (s *Session) Propose(slot Slot, c Candidate) {
	s.Candidates[slot] = c
	s.PendingConfirm[slot] = true
}

// Remember keeps a candidate for later without asking about it yet.
func (s *Session) Remember(slot Slot, c Candidate) {
	if s.IsLocked(slot) || s.PendingConfirm[slot] {
		return
	}
	s.Candidates[slot] = c
}

// Withdraw drops a candidate the caller denied without counting a failure.
func (s *Session) Withdraw(slot Slot) {
	delete(s.Candidates, slot)
	delete(s.PendingConfirm, slot)
}

// Reject drops the candidate for slot and counts a failed attempt.
func (s *Session) Reject(slot Slot, bestGuess string) int {
	delete(s.Candidates, slot)
	delete(s.PendingConfirm, slot)
	if bestGuess != "" {
		s.BestGuess[slot] = bestGuess
	}
	s.AttemptCounters[slot]++
	return s.AttemptCounters[slot]
}

// Flag records a reason for human follow-up.
func (s *Session) Flag(reason string, slot Slot, value string, now time.Time) {
	s.FollowUps = append(s.FollowUps, FollowUp{Reason: reason, Slot: slot, Value: value, At: now})
}

// NeedsFollowUp reports whether any follow-up was flagged.
func (s *Session) NeedsFollowUp() bool {
	return len(s.FollowUps) > 0
}

// Value returns the locked value of slot.
func (s *Session) Value(slot Slot) string {
	return s.LockedSlots[slot]
}

// Notes returns the free-text special requests, if any.
func (s *Session) Notes() string {
	return s.LockedSlots[SlotNotes]
}

// Touch bumps the turn counter and activity timestamp.
func (s *Session) Touch(now time.Time) {
	s.Turns++
	s.UpdatedAt = now
}

// Record appends to the transcript, keeping the most recent lines.
func (s *Session) Record(role, text string, now time.Time) {
	if text == "" {
		return
	}
	s.Transcript = append(s.Transcript, Exchange{Role: role, Text: text, At: now})
	if n := len(s.Transcript); n > maxTranscript {
		s.Transcript = append([]Exchange(nil), s.Transcript[n-maxTranscript:]...)
	}
}
