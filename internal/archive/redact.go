package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/starskyline/bareerah/internal/session"
)

const (
	emailMask = "[EMAIL]"
	phoneMask = "[PHONE]"
)

var (
	emailPattern = regexp.MustCompile(`[\w.%+\-]+@[\w.\-]+\.[A-Za-z]{2,}`)
	// Runs of digits with the separators callers dictate them with.
	digitRunPattern = regexp.MustCompile(`\+?\d[\d\s().\-]{6,}\d`)
)

// Dates, times and flight numbers stay below this many digits.
const minPhoneDigits = 9

// slotMasks replace whole slot values that are contact details.
var slotMasks = map[string]string{
	string(session.SlotContact): phoneMask,
	string(session.SlotEmail):   emailMask,
}

// HashPhone fingerprints a caller number so repeat callers can be matched
// without storing the number. Formatting is ignored and a leading local 0 is
// read as the UAE country code.
func HashPhone(phone string) string {
	digits := onlyDigits(phone)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "00") {
		digits = digits[2:]
	} else if strings.HasPrefix(digits, "0") {
		digits = "971" + digits[1:]
	}
	sum := sha256.Sum256([]byte(digits))
	return hex.EncodeToString(sum[:])
}

// Redact masks email addresses and phone-length digit runs in free text.
func Redact(text string) string {
	text = emailPattern.ReplaceAllString(text, emailMask)
	return digitRunPattern.ReplaceAllStringFunc(text, func(run string) string {
		if len(onlyDigits(run)) < minPhoneDigits {
			return run
		}
		return phoneMask
	})
}

func redactSlot(name, value string) string {
	if value == "" {
		return ""
	}
	if mask, ok := slotMasks[name]; ok {
		return mask
	}
	return Redact(value)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
