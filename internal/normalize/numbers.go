package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/starskyline/bareerah/internal/lexicon"
)

// Number words 0-10 that are safe to recognise in any language.
var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,

	"sifar": 0, "ek": 1, "aik": 1, "doh": 2, "teen": 3, "char": 4, "chaar": 4, "panch": 5, "paanch": 5,
	"chhe": 6, "chay": 6, "che": 6, "saat": 7, "aath": 8, "ath": 8, "nau": 9, "das": 10, "dus": 10,
	"صفر": 0, "ايك": 1, "دو": 2, "تين": 3, "چار": 4, "پانچ": 5, "چھ": 6, "سات": 7, "اٹھ": 8, "نو": 9, "دس": 10,

	"sifr": 0, "wahid": 1, "waahid": 1, "wahed": 1, "ithnain": 2, "itnein": 2, "ethnain": 2,
	"thalatha": 3, "talata": 3, "arba": 4, "arbaa": 4, "khamsa": 5, "sitta": 6, "seta": 6,
	"saba": 7, "sabaa": 7, "thamania": 8, "tamanya": 8, "tisa": 9, "tesaa": 9, "ashara": 10, "ashra": 10,
	"واحد": 1, "واحده": 1, "اثنين": 2, "اثنان": 2, "ثلاثه": 3, "ثلاث": 3, "اربعه": 4, "اربع": 4,
	"خمسه": 5, "سته": 6, "سبعه": 7, "ثمانيه": 8, "تسعه": 9, "عشره": 10,
}

// Forms that collide with common words in another language.
var languageNumberWords = map[lexicon.Language]map[string]int{
	lexicon.Urdu: {"do": 2, "no": 9},
}

// Words after a number that mark it as a head count or bag count.
var countNouns = map[string]struct{}{
	"passenger": {}, "passengers": {}, "people": {}, "person": {}, "persons": {}, "pax": {}, "adult": {},
	"adults": {}, "kid": {}, "kids": {}, "child": {}, "children": {}, "bag": {}, "bags": {}, "suitcase": {},
	"suitcases": {}, "luggage": {}, "piece": {}, "pieces": {}, "log": {}, "afraad": {}, "bande": {},
	"banday": {}, "ashkhas": {}, "shanta": {}, "shanat": {}, "اشخاص": {}, "افراد": {}, "لوگ": {}, "شنط": {}, "حقيبه": {},
}

var timeSuffixes = map[string]struct{}{"am": {}, "pm": {}, "oclock": {}, "baje": {}, "hrs": {}, "h": {}}

var timePrepositions = map[string]struct{}{"at": {}, "around": {}, "by": {}, "till": {}, "until": {}}

type numToken struct {
	word       string
	start, end int
}

// ExtractNumber resolves a count from digits or number words 0-10 in
// English, Urdu or Arabic. It returns false for ambiguous quantifiers and for
// numbers that turn out to be part of a time expression.
func (n *Normalizer) ExtractNumber(text string) (int, bool) {
	return n.ExtractNumberIn(text, "")
}

// ExtractNumberIn is ExtractNumber with extra forms that are only safe once
// the caller's language is known.
func (n *Normalizer) ExtractNumberIn(text string, lang lexicon.Language) (int, bool) {
	s := strings.ToLower(foldScript(text))
	if n.lex.Contains(lexicon.Ambiguous, s) {
		return 0, false
	}
	tokens := scanTokens(s)
	hasTimeWord := n.lex.Contains(lexicon.TimeWord, s)

	for i, tok := range tokens {
		value, suffix, ok := tokenValue(tok.word, lang)
		if !ok {
			continue
		}
		// Time markers are checked only once a number has been found.
		if embeddedInTime(s, tokens, i, suffix) {
			continue
		}
		if hasTimeWord && !followedByCountNoun(tokens, i, suffix) {
			continue
		}
		return value, true
	}
	return 0, false
}

func tokenValue(word string, lang lexicon.Language) (int, string, bool) {
	if word == "" {
		return 0, "", false
	}
	if unicode.IsDigit(rune(word[0])) {
		end := 0
		for end < len(word) && word[end] >= '0' && word[end] <= '9' {
			end++
		}
		value, err := strconv.Atoi(word[:end])
		if err != nil {
			return 0, "", false
		}
		return value, word[end:], true
	}
	folded := lexicon.Fold(word)
	if v, ok := numberWords[folded]; ok {
		return v, "", true
	}
	if v, ok := languageNumberWords[lang][folded]; ok {
		return v, "", true
	}
	return 0, "", false
}

func embeddedInTime(s string, tokens []numToken, i int, suffix string) bool {
	tok := tokens[i]
	if _, ok := timeSuffixes[suffix]; ok {
		return true
	}
	if tok.end < len(s) && (s[tok.end] == ':' || (s[tok.end] == '.' && tok.end+1 < len(s) && isASCIIDigit(s[tok.end+1]))) {
		return true
	}
	if tok.start > 0 && s[tok.start-1] == ':' {
		return true
	}
	if i+1 < len(tokens) {
		next := tokens[i+1].word
		if _, ok := timeSuffixes[next]; ok {
			return true
		}
		if (next == "a" || next == "p") && i+2 < len(tokens) && tokens[i+2].word == "m" {
			return true
		}
		if next == "o" && i+2 < len(tokens) && tokens[i+2].word == "clock" {
			return true
		}
	}
	if i > 0 {
		if _, ok := timePrepositions[tokens[i-1].word]; ok {
			return true
		}
	}
	return false
}

func followedByCountNoun(tokens []numToken, i int, suffix string) bool {
	if _, ok := countNouns[suffix]; ok {
		return true
	}
	if i+1 >= len(tokens) {
		return false
	}
	_, ok := countNouns[lexicon.Fold(tokens[i+1].word)]
	return ok
}

func scanTokens(s string) []numToken {
	var tokens []numToken
	start := -1
	for i, r := range s {
		word := unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
		switch {
		case word && start < 0:
			start = i
		case !word && start >= 0:
			tokens = append(tokens, numToken{word: s[start:i], start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		tokens = append(tokens, numToken{word: s[start:], start: start, end: len(s)})
	}
	return tokens
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }
