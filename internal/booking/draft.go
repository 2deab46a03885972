// Package booking turns a finished conversation into a booking and makes sure
// the customer always leaves with a reference.
package booking

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starskyline/bareerah/internal/fleet"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/session"
)

// ErrIncompleteDraft is returned when required slots are missing.
var ErrIncompleteDraft = errors.New("booking: draft is incomplete")

// Status of a finalized booking.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
)

// Draft is every locked slot plus the priced offer.
type Draft struct {
	Reference       string            `json:"reference"`
	SessionID       string            `json:"session_id"`
	Channel         string            `json:"channel"`
	Language        lexicon.Language  `json:"language"`
	Pickup          string            `json:"pickup"`
	Dropoff         string            `json:"dropoff"`
	PickupTime      string            `json:"pickup_time"`
	Passengers      int               `json:"passengers"`
	Luggage         int               `json:"luggage"`
	VehicleType     fleet.Category    `json:"vehicle_type"`
	FareAED         float64           `json:"fare_aed"`
	FareSource      string            `json:"fare_source"`
	DistanceKm      float64           `json:"distance_km"`
	BookingType     fleet.BookingType `json:"booking_type"`
	FlightNumber    string            `json:"flight_number,omitempty"`
	FlightDirection string            `json:"flight_direction,omitempty"`
	CustomerName    string            `json:"customer_name"`
	ContactNumber   string            `json:"contact_number"`
	Email           string            `json:"email,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	NeedsFollowUp   bool              `json:"needs_follow_up"`
	FollowUpReasons []string          `json:"follow_up_reasons,omitempty"`
}

var requiredSlots = []session.Slot{
	session.SlotPickup, session.SlotDropoff, session.SlotDateTime, session.SlotPassengers,
	session.SlotLuggage, session.SlotName, session.SlotContact,
}

// DraftFromSession builds a Draft. Every required slot must be locked and
// an offer must exist, so fare and vehicle are never set without counts.
func DraftFromSession(s *session.Session) (Draft, error) {
	var missing []string
	for _, slot := range requiredSlots {
		if !s.IsLocked(slot) {
			missing = append(missing, string(slot))
		}
	}
	if len(missing) > 0 {
		return Draft{}, fmt.Errorf("%w: missing %s", ErrIncompleteDraft, strings.Join(missing, ", "))
	}
	if s.Offer == nil || s.Offer.Vehicle == "" {
		return Draft{}, fmt.Errorf("%w: no priced vehicle", ErrIncompleteDraft)
	}
	passengers, err := strconv.Atoi(s.Value(session.SlotPassengers))
	if err != nil {
		return Draft{}, fmt.Errorf("%w: passengers %q", ErrIncompleteDraft, s.Value(session.SlotPassengers))
	}
	luggage, err := strconv.Atoi(s.Value(session.SlotLuggage))
	if err != nil {
		return Draft{}, fmt.Errorf("%w: luggage %q", ErrIncompleteDraft, s.Value(session.SlotLuggage))
	}

	bt := fleet.BookingType(s.BookingType)
	if bt == "" {
		bt = fleet.PointToPoint
	}
	d := Draft{
		Reference:       s.Reference,
		SessionID:       s.ID,
		Channel:         s.Channel,
		Language:        s.Language,
		Pickup:          s.Value(session.SlotPickup),
		Dropoff:         s.Value(session.SlotDropoff),
		PickupTime:      s.Value(session.SlotDateTime),
		Passengers:      passengers,
		Luggage:         luggage,
		VehicleType:     fleet.Category(s.Offer.Vehicle),
		FareAED:         s.Offer.FareAED,
		FareSource:      s.Offer.FareSource,
		DistanceKm:      s.Offer.DistanceKm,
		BookingType:     bt,
		FlightNumber:    s.Value(session.SlotFlight),
		FlightDirection: s.FlightDirection,
		CustomerName:    s.Value(session.SlotName),
		ContactNumber:   s.Value(session.SlotContact),
		Email:           s.Value(session.SlotEmail),
		Notes:           s.Notes(),
		NeedsFollowUp:   s.NeedsFollowUp(),
	}
	for _, f := range s.FollowUps {
		reason := f.Reason
		if f.Slot != "" {
			reason = fmt.Sprintf("%s (%s)", f.Reason, f.Slot)
		}
		d.FollowUpReasons = append(d.FollowUpReasons, reason)
	}
	return d, nil
}

// NewReference returns a customer-facing reference like SSL-260314-4F9A2C.
func NewReference(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("SSL-%s-%s", now.UTC().Format("060102"), id[:6])
}

// SpokenReference spaces out a reference so text-to-speech reads it clearly.
func SpokenReference(ref string) string {
	var b strings.Builder
	for i, r := range ref {
		if r == '-' {
			b.WriteString(", ")
			continue
		}
		if i > 0 && ref[i-1] != '-' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
