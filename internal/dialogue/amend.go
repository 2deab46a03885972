package dialogue

import (
	"strings"

	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/session"
)

// Checked in order: "pickup time" is a time change, "flight number" is not a
// phone number.
var amendKeywords = []struct {
	slot  session.Slot
	words []string
}{
	{session.SlotFlight, []string{"flight", "flight number"}},
	{session.SlotPassengers, []string{"passenger", "passengers", "people", "persons", "pax", "log", "adults"}},
	{session.SlotLuggage, []string{"luggage", "bag", "bags", "suitcase", "suitcases", "saman", "samaan"}},
	{session.SlotEmail, []string{"email", "e-mail", "mail"}},
	{session.SlotContact, []string{"phone", "number", "contact", "mobile"}},
	{session.SlotName, []string{"name", "naam", "ism"}},
	{session.SlotDateTime, []string{"time", "date", "day", "timing", "waqt", "waqat", "din", "tareekh", "wakt"}},
	{session.SlotPickup, []string{"pickup", "pick up", "pick-up", "from", "collection", "collect"}},
	{session.SlotDropoff, []string{"dropoff", "drop off", "drop-off", "drop", "destination", "going"}},
	{session.SlotNotes, []string{"notes", "note", "request", "special request"}},
}

// amendTarget names the slot a change request is about, or "".
func amendTarget(text string) session.Slot {
	padded := " " + lexicon.Fold(text) + " "
	for _, kw := range amendKeywords {
		for _, w := range kw.words {
			if strings.Contains(padded, " "+lexicon.Fold(w)+" ") {
				return kw.slot
			}
		}
	}
	return ""
}

func (e *Engine) handleAmend(t *turn) {
	s := t.s
	if target := amendTarget(t.text); target != "" {
		e.amend(t, target)
		return
	}
	switch {
	case e.lex.Contains(lexicon.GoBack, t.text), e.lex.Confirmation(t.text) == lexicon.Negative:
		// Nothing to change after all.
		e.advance(t)
	case e.lex.Confirmation(t.text) == lexicon.Affirmative:
		t.say(render(keyAmendAsk, s.Language))
	default:
		t.say(render(keyRetryGeneric, s.Language))
		t.say(render(keyAmendAsk, s.Language))
	}
}

// amend reopens target. If the same utterance carried the new value it is
// proposed straight away.
func (e *Engine) amend(t *turn, target session.Slot) {
	s := t.s
	if !e.applies(s, target) {
		t.say(render(keyAmendAsk, s.Language))
		s.FlowStep = session.StepAmend
		return
	}
	e.reopen(s, target)
	s.FlowStep = session.StepFor(target)
	e.logger.Info("slot reopened for amendment", "session_id", s.ID, "slot", target)

	res := e.extract(t)
	if value := res.Slots[target]; value != "" {
		conf := res.Confidence[target]
		if conf <= 0 {
			conf = 0.8
		}
		if t.conf < conf {
			conf = t.conf
		}
		v := e.validate(t, target, value, conf)
		switch {
		case v.ok && v.direct:
			e.lock(t, target, v.value)
			e.advance(t)
			return
		case v.ok:
			s.Propose(target, session.Candidate{Value: v.value, Confidence: conf, Source: v.source})
			t.say(confirmFor(s.Language, target, v.value))
			return
		}
	}
	t.say(askFor(s, target))
}
