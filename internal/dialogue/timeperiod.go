package dialogue

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starskyline/bareerah/internal/fleet"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/internal/session"
)

const (
	periodAM = "AM"
	periodPM = "PM"
)

var (
	gluedPeriod   = regexp.MustCompile(`(?i)\d\s*(am|pm|a\.m\.?|p\.m\.?)\b`)
	clockTime     = regexp.MustCompile(`\b([01]?\d|2[0-3])[:.]([0-5]\d)\b`)
	atHour        = regexp.MustCompile(`(?i)\b(?:at|@|around|by)\s+(\d{1,2})\b`)
	oclockHour    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:o'?clock|oclock|baje|bje|hrs|hours)\b`)
	bareNumber    = regexp.MustCompile(`\b(\d{1,2})\b`)
	monthOrOrdNum = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\b|\d+(st|nd|rd|th)\b|\d{1,2}/\d{1,2}`)
)

// pickupHour finds the clock hour in a spoken date and time. ok is false when
// no hour can be located.
func pickupHour(text string) (hour int, ok bool) {
	for _, re := range []*regexp.Regexp{clockTime, atHour, oclockHour} {
		if m := re.FindStringSubmatch(text); m != nil {
			h, err := strconv.Atoi(m[1])
			if err == nil && h <= 23 {
				return h, true
			}
		}
	}
	if monthOrOrdNum.MatchString(text) {
		return 0, false
	}
	nums := bareNumber.FindAllStringSubmatch(text, -1)
	if len(nums) != 1 {
		return 0, false
	}
	h, err := strconv.Atoi(nums[0][1])
	if err != nil || h > 23 {
		return 0, false
	}
	return h, true
}

// hasExplicitPeriod reports whether text already settles morning versus
// evening, either with a period word or a 24-hour clock time.
func hasExplicitPeriod(lex *lexicon.Lexicon, text string) bool {
	if gluedPeriod.MatchString(text) {
		return true
	}
	if lex.Contains(lexicon.Morning, text) || lex.Contains(lexicon.Evening, text) {
		return true
	}
	if strings.Contains(lexicon.Fold(text), "midnight") {
		return true
	}
	if h, ok := pickupHour(text); ok && (h == 0 || h > 12) {
		return true
	}
	return false
}

// needsPeriod reports whether the locked pickup time has an hour that could
// be either AM or PM.
func needsPeriod(lex *lexicon.Lexicon, s *session.Session) bool {
	v, ok := s.LockedSlots[session.SlotDateTime]
	if !ok {
		return false
	}
	if hasExplicitPeriod(lex, v) {
		return false
	}
	h, ok := pickupHour(v)
	return ok && h >= 1 && h <= 12
}

// inferPeriod proposes a period for an ambiguous hour. Airport transfers
// follow the configured default; anything else is asked outright.
func (e *Engine) inferPeriod(s *session.Session) string {
	if s.BookingType != string(fleet.AirportTransfer) {
		return ""
	}
	switch e.policy.AirportDefaultPeriod {
	case periodAM, periodPM:
		return e.policy.AirportDefaultPeriod
	}
	return ""
}

func flipPeriod(p string) string {
	if p == periodAM {
		return periodPM
	}
	return periodAM
}
