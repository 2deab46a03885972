// Package lexicon maps semantic tokens to their surface forms in each
// supported language so keyword detection is looked up in one place.
package lexicon

import (
	"strings"
	"unicode"
)

// Language is a BCP-47 primary tag.
type Language string

const (
	English Language = "en"
	Urdu    Language = "ur"
	Arabic  Language = "ar"
)

// Languages lists every language the lexicon carries forms for.
var Languages = []Language{English, Urdu, Arabic}

// ParseLanguage maps a caller supplied tag to a supported language.
// Hindi tags are treated as Urdu because callers speak romanized Urdu/Hindi.
func ParseLanguage(tag string) Language {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	switch tag {
	case "ur", "hi":
		return Urdu
	case "ar":
		return Arabic
	default:
		return English
	}
}

// Token is a semantic keyword class.
type Token string

const (
	Yes        Token = "YES"
	No         Token = "NO"
	Skip       Token = "SKIP"
	Correction Token = "CORRECTION"
	GeoMarker  Token = "GEO_MARKER"
	Filler     Token = "FILLER"
	StopWord   Token = "STOP_WORD"
	Generic    Token = "GENERIC"
	Ambiguous  Token = "AMBIGUOUS"
	Morning    Token = "MORNING"
	Evening    Token = "EVENING"
	Upgrade    Token = "UPGRADE"
	GoBack     Token = "GO_BACK"
	Airport    Token = "AIRPORT"
	City       Token = "CITY"
	TimeWord   Token = "TIME_WORD"
	Question   Token = "QUESTION"
)

// Lexicon holds folded surface forms per token and language.
type Lexicon struct {
	forms map[Token]map[Language][]string
	words map[Token]map[string]struct{}
}

// New builds a lexicon from raw forms. Forms are folded on the way in.
func New(raw map[Token]map[Language][]string) *Lexicon {
	l := &Lexicon{
		forms: make(map[Token]map[Language][]string, len(raw)),
		words: make(map[Token]map[string]struct{}, len(raw)),
	}
	for tok, byLang := range raw {
		l.forms[tok] = make(map[Language][]string, len(byLang))
		l.words[tok] = make(map[string]struct{})
		for lang, forms := range byLang {
			for _, f := range forms {
				folded := Fold(f)
				if folded == "" {
					continue
				}
				l.forms[tok][lang] = append(l.forms[tok][lang], folded)
				if !strings.Contains(folded, " ") {
					l.words[tok][folded] = struct{}{}
				}
			}
		}
	}
	return l
}

var defaultLexicon = New(defaultForms)

// Default returns the built-in English/Urdu/Arabic lexicon.
func Default() *Lexicon { return defaultLexicon }

// Forms returns the folded forms of tok in lang.
func (l *Lexicon) Forms(tok Token, lang Language) []string {
	return l.forms[tok][lang]
}

// AllForms returns the folded forms of tok across every language.
func (l *Lexicon) AllForms(tok Token) []string {
	var out []string
	for _, lang := range Languages {
		out = append(out, l.forms[tok][lang]...)
	}
	return out
}

// HasWord reports whether a single folded word is a form of tok.
func (l *Lexicon) HasWord(tok Token, word string) bool {
	_, ok := l.words[tok][Fold(word)]
	return ok
}

// Contains reports whether any form of tok appears in text on word boundaries.
func (l *Lexicon) Contains(tok Token, text string) bool {
	return l.Index(tok, text) >= 0
}

// ContainsIn is Contains restricted to one language.
func (l *Lexicon) ContainsIn(tok Token, lang Language, text string) bool {
	padded := " " + Fold(text) + " "
	for _, f := range l.forms[tok][lang] {
		if strings.Contains(padded, " "+f+" ") {
			return true
		}
	}
	return false
}

// Index returns the byte offset in the folded text of the earliest form of
// tok, or -1.
func (l *Lexicon) Index(tok Token, text string) int {
	padded := " " + Fold(text) + " "
	best := -1
	for _, lang := range Languages {
		for _, f := range l.forms[tok][lang] {
			if i := strings.Index(padded, " "+f+" "); i >= 0 && (best < 0 || i < best) {
				best = i
			}
		}
	}
	return best
}

// Is reports whether the whole utterance is exactly one form of tok.
func (l *Lexicon) Is(tok Token, text string) bool {
	folded := Fold(text)
	if folded == "" {
		return false
	}
	for _, lang := range Languages {
		for _, f := range l.forms[tok][lang] {
			if f == folded {
				return true
			}
		}
	}
	return false
}

// Answer is the polarity of a yes/no reply.
type Answer int

const (
	Unclear Answer = iota
	Affirmative
	Negative
)

// Confirmation classifies a reply to a yes/no prompt. When both polarities
// appear the earliest one wins ("no, that's right" is Negative).
func (l *Lexicon) Confirmation(text string) Answer {
	yes := l.Index(Yes, text)
	no := l.Index(No, text)
	switch {
	case yes < 0 && no < 0:
		return Unclear
	case no < 0:
		return Affirmative
	case yes < 0:
		return Negative
	case no <= yes:
		return Negative
	default:
		return Affirmative
	}
}

// StripLeading removes leading words that are forms of any of toks.
func (l *Lexicon) StripLeading(text string, toks ...Token) string {
	words := strings.Fields(text)
	for len(words) > 0 {
		stripped := false
		for _, tok := range toks {
			for _, lang := range Languages {
				for _, f := range l.forms[tok][lang] {
					n := len(strings.Fields(f))
					if n <= len(words) && Fold(strings.Join(words[:n], " ")) == f {
						words = words[n:]
						stripped = true
						break
					}
				}
				if stripped {
					break
				}
			}
			if stripped {
				break
			}
		}
		if !stripped {
			break
		}
	}
	return strings.Join(words, " ")
}

// Tokens splits text into folded words with every word that is a form of
// any of drop removed.
func (l *Lexicon) Tokens(text string, drop ...Token) []string {
	var out []string
	for _, w := range strings.Fields(Fold(text)) {
		skip := false
		for _, tok := range drop {
			if _, ok := l.words[tok][w]; ok {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, w)
		}
	}
	return out
}

// Fold lowercases text, folds Arabic-script letter variants, drops
// apostrophes and dots, and turns other punctuation into spaces.
func Fold(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch r {
		case '\'', '’', '.', 'ـ':
			continue
		case 'أ', 'إ', 'آ':
			r = 'ا'
		case 'ى', 'ی':
			r = 'ي'
		case 'ک':
			r = 'ك'
		case 'ة':
			r = 'ه'
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) {
			b.WriteByte(' ')
			continue
		}
		if unicode.Is(unicode.Mn, r) {
			// Arabic diacritics
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
