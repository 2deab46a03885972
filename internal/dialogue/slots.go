package dialogue

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/location"
	"github.com/starskyline/bareerah/internal/normalize"
	"github.com/starskyline/bareerah/internal/session"
)

// slotVerdict is the outcome of checking one answer for one slot.
type slotVerdict struct {
	value  string
	source string
	ok     bool
	// skip declines an optional slot.
	skip bool
	// direct locks without a read-back.
	direct bool
	// guess is kept as the fallback if the slot is later force-accepted.
	guess string
}

func (e *Engine) validate(t *turn, slot session.Slot, value string, conf float64) slotVerdict {
	value = strings.TrimSpace(value)
	s := t.s
	switch slot {
	case session.SlotPickup, session.SlotDropoff:
		return e.validateLocation(t, value, conf)
	case session.SlotFlight:
		if code, ok := normalize.ExtractFlightNumber(value); ok {
			return slotVerdict{value: code, ok: true}
		}
		if e.norm.DetectSkipIntent(value) {
			return slotVerdict{skip: true}
		}
		return slotVerdict{}
	case session.SlotDateTime:
		if hasDigit(value) || e.lex.Contains(lexicon.TimeWord, value) ||
			e.lex.Contains(lexicon.Morning, value) || e.lex.Contains(lexicon.Evening, value) {
			return slotVerdict{value: value, ok: true}
		}
		if e.isReplyWord(value) {
			return slotVerdict{}
		}
		return slotVerdict{guess: value}
	case session.SlotPassengers:
		if n, ok := e.norm.ExtractNumberIn(value, s.Language); ok && n >= 1 && n <= e.policy.MaxPassengers {
			return slotVerdict{value: strconv.Itoa(n), ok: true}
		}
		if soloTraveller.MatchString(value) {
			return slotVerdict{value: "1", ok: true}
		}
		return slotVerdict{}
	case session.SlotLuggage:
		if n, ok := e.norm.ExtractNumberIn(value, s.Language); ok && n >= 0 && n <= e.policy.MaxLuggage {
			return slotVerdict{value: strconv.Itoa(n), ok: true}
		}
		if e.norm.DetectSkipIntent(value) {
			return slotVerdict{value: "0", ok: true}
		}
		return slotVerdict{}
	case session.SlotName:
		name := cleanName(value)
		if e.plausibleName(name) {
			return slotVerdict{value: name, ok: true}
		}
		if utf8.RuneCountInString(name) >= 2 && strings.IndexFunc(name, unicode.IsLetter) >= 0 {
			return slotVerdict{guess: name}
		}
		return slotVerdict{}
	case session.SlotContact:
		if s.CallerNumber != "" && (e.lex.Contains(lexicon.Generic, value) || strings.Contains(lexicon.Fold(value), "same")) {
			if phone := normalize.NormalizePhone(s.CallerNumber); phone != "" {
				return slotVerdict{value: phone, ok: true}
			}
		}
		phone := normalize.NormalizePhone(value)
		if countDigits(phone) >= 9 {
			return slotVerdict{value: phone, ok: true}
		}
		return slotVerdict{guess: phone}
	case session.SlotEmail:
		if email := normalize.NormalizeSpokenEmail(value); normalize.ValidEmail(email) {
			return slotVerdict{value: email, ok: true}
		}
		if e.norm.DetectSkipIntent(value) {
			return slotVerdict{skip: true}
		}
		return slotVerdict{}
	case session.SlotNotes:
		if e.norm.DetectSkipIntent(value) {
			return slotVerdict{skip: true}
		}
		return slotVerdict{value: value, ok: true, direct: true}
	}
	return slotVerdict{}
}

// validateLocation applies the location rules. A bare airport mention is
// accepted as the canonical airport even though it is a single word.
func (e *Engine) validateLocation(t *turn, value string, conf float64) slotVerdict {
	v := e.validator.Check(t.ctx, value, conf)
	if v.Accepted {
		canonical := v.Canonical
		if v.Airport && (v.Place == nil || v.Place.Kind != location.KindAirport) {
			canonical = e.validator.NormalizeAirport(value)
		}
		return slotVerdict{value: canonical, source: string(v.Source), ok: true}
	}
	if v.Airport && v.Reason != location.ReasonLowConfidence {
		return slotVerdict{value: e.validator.NormalizeAirport(value), source: string(location.SourceGazetteer), ok: true}
	}
	switch v.Reason {
	case location.ReasonEmpty, location.ReasonConfirmation:
		return slotVerdict{}
	}
	return slotVerdict{guess: value}
}

var (
	soloTraveller = regexp.MustCompile(`(?i)\b(just me|only me|myself|alone|by myself|akela|akeli|sirf main|wahid|wahdi)\b`)
	nameLead      = regexp.MustCompile(`(?i)^(my name is|my name's|my names|name is|the name is|this is|i am|i'm|im|it's|its|it is|call me|mera naam|mera nam|mera name|main|ana|ismi|اسمي|انا|میرا نام)\s+`)
	nameTrail     = regexp.MustCompile(`(?i)\s+(hai|he|hoon|hun|here|speaking|ہے|ہوں)$`)
)

// cleanName strips introductions and capitalizes the words of a name.
func cleanName(text string) string {
	name := strings.TrimSpace(strings.Trim(text, ".,!"))
	for {
		stripped := nameLead.ReplaceAllString(name, "")
		stripped = nameTrail.ReplaceAllString(stripped, "")
		if stripped == name {
			break
		}
		name = strings.TrimSpace(stripped)
	}
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

func (e *Engine) plausibleName(name string) bool {
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 60 || len(strings.Fields(name)) > 5 {
		return false
	}
	if hasDigit(name) || strings.IndexFunc(name, unicode.IsLetter) < 0 {
		return false
	}
	return !e.lex.Is(lexicon.Yes, name) && !e.lex.Is(lexicon.No, name) && !e.lex.Is(lexicon.Skip, name)
}

// isReplyWord reports whether text is only a yes, no, skip or generic
// filler reply, which never stands in for a slot value.
func (e *Engine) isReplyWord(text string) bool {
	for _, tok := range []lexicon.Token{lexicon.Yes, lexicon.No, lexicon.Skip, lexicon.Generic} {
		if e.lex.Is(tok, text) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
