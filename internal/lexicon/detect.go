package lexicon

import (
	"strings"
	"unicode"
)

var urduKeywords = map[string]struct{}{
	"mujhe": {}, "mujhay": {}, "hai": {}, "hain": {}, "kahan": {}, "jana": {}, "jaana": {}, "chahiye": {},
	"gaari": {}, "gari": {}, "kitne": {}, "kitna": {}, "aap": {}, "mera": {}, "meri": {}, "nahi": {},
	"haan": {}, "acha": {}, "theek": {}, "shukriya": {}, "kal": {}, "subah": {}, "shaam": {}, "bhai": {},
}

var arabicKeywords = map[string]struct{}{
	"marhaba": {}, "shukran": {}, "ana": {}, "ureed": {}, "abi": {}, "naam": {}, "yalla": {}, "inshallah": {},
	"habibi": {}, "wayn": {}, "wein": {}, "kam": {}, "sayara": {}, "bukra": {}, "ghadan": {}, "salam": {},
}

// Letters used by Urdu but not standard Arabic.
const urduOnlyLetters = "ٹڈڑںےہھۓگچپژکی"

// DetectLanguage guesses the language of text, keeping current when the
// evidence is weak. Script wins over romanized keywords.
func DetectLanguage(text string, current Language) Language {
	arabicScript, urduLetters := 0, 0
	for _, r := range text {
		if unicode.In(r, unicode.Arabic) {
			arabicScript++
			if strings.ContainsRune(urduOnlyLetters, r) {
				urduLetters++
			}
		}
	}
	if arabicScript > 0 {
		if urduLetters > 0 {
			return Urdu
		}
		return Arabic
	}

	urduHits, arabicHits := 0, 0
	for _, w := range strings.Fields(Fold(text)) {
		if _, ok := urduKeywords[w]; ok {
			urduHits++
		}
		if _, ok := arabicKeywords[w]; ok {
			arabicHits++
		}
	}
	switch {
	case urduHits >= 2 && urduHits > arabicHits:
		return Urdu
	case arabicHits >= 2 && arabicHits > urduHits:
		return Arabic
	case urduHits == 0 && arabicHits == 0 && len(strings.Fields(text)) >= 3:
		return English
	}
	if current == "" {
		return English
	}
	return current
}
