package archive

import (
	"sort"
	"time"

	"github.com/starskyline/bareerah/internal/session"
)

// FromSession snapshots a session into a CallLog. The outcome is the
// session status.
func FromSession(s *session.Session, now time.Time) *CallLog {
	log := &CallLog{
		Version:      "1.0",
		SessionID:    s.ID,
		Channel:      s.Channel,
		CallerNumber: s.CallerNumber,
		PhoneHash:    HashPhone(s.CallerNumber),
		Language:     string(s.Language),
		Outcome:      string(s.Status),
		LastStep:     string(s.FlowStep),
		Reference:    s.Reference,
		Slots:        make(map[string]string, len(s.LockedSlots)),
		Turns:        s.Turns,
		StartedAt:    s.CreatedAt,
		EndedAt:      now,
	}
	for slot, v := range s.LockedSlots {
		log.Slots[string(slot)] = v
	}
	for slot, skipped := range s.Skipped {
		if skipped {
			log.SkippedSlots = append(log.SkippedSlots, string(slot))
		}
	}
	sort.Strings(log.SkippedSlots)
	for _, f := range s.FollowUps {
		reason := f.Reason
		if f.Slot != "" {
			reason += " (" + string(f.Slot) + ")"
		}
		log.FollowUps = append(log.FollowUps, reason)
	}
	if s.Offer != nil {
		log.Vehicle = s.Offer.Vehicle
		log.FareAED = s.Offer.FareAED
	}
	if !s.CreatedAt.IsZero() && now.After(s.CreatedAt) {
		log.DurationSeconds = int(now.Sub(s.CreatedAt).Seconds())
	}
	for _, ex := range s.Transcript {
		log.Messages = append(log.Messages, Message{Role: ex.Role, Content: ex.Text, Timestamp: ex.At})
	}
	return log
}

// Redacted returns a copy with phone numbers hashed away and the transcript
// scrubbed, for storage outside the operations database.
func (c *CallLog) Redacted() *CallLog {
	out := *c
	out.CallerNumber = ""
	out.Slots = make(map[string]string, len(c.Slots))
	for k, v := range c.Slots {
		out.Slots[k] = redactSlot(k, v)
	}
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		m.Content = Redact(m.Content)
		out.Messages[i] = m
	}
	return &out
}
