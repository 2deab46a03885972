package conversation

import (
	"fmt"
	"time"

	"github.com/starskyline/bareerah/internal/notify"
	"github.com/starskyline/bareerah/internal/session"
)

var summarySlots = []session.Slot{
	session.SlotPickup,
	session.SlotDropoff,
	session.SlotFlight,
	session.SlotDateTime,
	session.SlotPassengers,
	session.SlotLuggage,
	session.SlotName,
	session.SlotContact,
	session.SlotEmail,
	session.SlotNotes,
}

var slotLabels = map[session.Slot]string{
	session.SlotPickup:     "Pickup",
	session.SlotDropoff:    "Drop-off",
	session.SlotFlight:     "Flight",
	session.SlotDateTime:   "Pickup time",
	session.SlotPassengers: "Passengers",
	session.SlotLuggage:    "Luggage",
	session.SlotName:       "Name",
	session.SlotContact:    "Contact",
	session.SlotEmail:      "Email",
	session.SlotNotes:      "Notes",
}

func slotLabel(slot session.Slot) string {
	if label, ok := slotLabels[slot]; ok {
		return label
	}
	return string(slot)
}

// payloadFor lists everything collected so far. Values the customer never
// confirmed are marked so operations knows to check them.
func payloadFor(sess *session.Session, summary string, reasons []string, now time.Time) notify.Payload {
	p := notify.Payload{
		SessionID:    sess.ID,
		Reference:    sess.Reference,
		Channel:      sess.Channel,
		CallerNumber: sess.CallerNumber,
		Summary:      summary,
		OccurredAt:   now,
	}
	for _, slot := range summarySlots {
		if v := sess.Value(slot); v != "" {
			p.Fields = append(p.Fields, notify.Field{Name: slotLabel(slot), Value: v})
			continue
		}
		if c, ok := sess.Candidates[slot]; ok && c.Value != "" {
			p.Fields = append(p.Fields, notify.Field{Name: slotLabel(slot), Value: c.Value + " (unconfirmed)"})
			continue
		}
		if guess := sess.BestGuess[slot]; guess != "" {
			p.Fields = append(p.Fields, notify.Field{Name: slotLabel(slot), Value: guess + " (heard)"})
		}
	}
	if sess.Offer != nil {
		p.Fields = append(p.Fields,
			notify.Field{Name: "Vehicle", Value: sess.Offer.Vehicle},
			notify.Field{Name: "Fare", Value: fmt.Sprintf("AED %.0f", sess.Offer.FareAED)},
		)
	}
	p.Fields = append(p.Fields, notify.Field{Name: "Last step", Value: string(sess.FlowStep)})

	for _, r := range reasons {
		if r != "" {
			p.Reasons = append(p.Reasons, r)
		}
	}
	for _, f := range sess.FollowUps {
		reason := f.Reason
		if f.Slot != "" {
			reason = fmt.Sprintf("%s (%s)", reason, slotLabel(f.Slot))
		}
		p.Reasons = append(p.Reasons, reason)
	}
	return p
}
