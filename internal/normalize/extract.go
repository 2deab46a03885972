package normalize

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

var spokenEmailReplacer = strings.NewReplacer(
	" at the rate of ", "@",
	" at the rate ", "@",
	" at sign ", "@",
	" at ", "@",
	" dot ", ".",
	" underscore ", "_",
	" dash ", "-",
	" hyphen ", "-",
)

// NormalizeSpokenEmail turns "john dot smith at gmail dot com" into
// "john.smith@gmail.com". The result is not validated.
func NormalizeSpokenEmail(text string) string {
	s := " " + strings.ToLower(strings.TrimSpace(text)) + " "
	s = strings.ReplaceAll(s, "(at)", " at ")
	s = spokenEmailReplacer.Replace(s)
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	return strings.Join(strings.Fields(s), "")
}

// ValidEmail reports whether s looks like a deliverable address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.ToLower(strings.TrimSpace(s)))
}

// NormalizePhone keeps the digits of a phone number, including spoken digits
// ("zero five zero ..."), and a leading plus. It returns "" when fewer than
// seven digits are present.
func NormalizePhone(text string) string {
	s := strings.TrimSpace(foldScript(text))
	s = strings.TrimPrefix(strings.ToLower(s), "whatsapp:")
	var b strings.Builder
	if strings.HasPrefix(strings.TrimSpace(s), "+") {
		b.WriteByte('+')
	}
	digits := 0
	for _, tok := range scanTokens(s) {
		if isASCIIDigit(tok.word[0]) {
			for i := 0; i < len(tok.word); i++ {
				if isASCIIDigit(tok.word[i]) {
					b.WriteByte(tok.word[i])
					digits++
				}
			}
			continue
		}
		if v, ok := numberWords[tok.word]; ok && v < 10 {
			b.WriteByte(byte('0' + v))
			digits++
		}
	}
	if digits < 7 {
		return ""
	}
	return b.String()
}

var flightPattern = regexp.MustCompile(`(?i)\b([a-z]{2}|[a-z][0-9]|[0-9][a-z])\s?-?\s?([0-9]{2,4})\b`)

var notAirlineCodes = map[string]struct{}{
	"at": {}, "to": {}, "in": {}, "on": {}, "is": {}, "am": {}, "pm": {}, "me": {}, "my": {}, "by": {},
	"of": {}, "or": {}, "it": {}, "no": {}, "so": {}, "up": {}, "we": {}, "us": {}, "be": {}, "do": {},
	"ka": {}, "ki": {}, "ke": {}, "se": {},
}

// ExtractFlightNumber finds an IATA style flight number such as "EK 203".
func ExtractFlightNumber(text string) (string, bool) {
	for _, m := range flightPattern.FindAllStringSubmatch(text, -1) {
		code := strings.ToLower(m[1])
		if _, skip := notAirlineCodes[code]; skip {
			continue
		}
		return strings.ToUpper(m[1]) + m[2], true
	}
	return "", false
}
