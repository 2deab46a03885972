// Package normalize cleans raw speech-to-text output and pulls typed values
// (counts, emails, phone numbers, flight numbers) out of it.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starskyline/bareerah/internal/lexicon"
)

type correction struct {
	pattern     *regexp.Regexp
	replacement string
}

// Common speech-to-text misspellings of Dubai place names.
var placeCorrections = []struct{ from, to string }{
	{`dubia|dubay|dubaai`, "Dubai"},
	{`marena|mareena|marinah`, "Marina"},
	{`jumera|jumeira|jumaira|jumairah|jumerah`, "Jumeirah"},
	{`burj kalifa|burj khalifah|burj califa`, "Burj Khalifa"},
	{`deira city center`, "Deira City Centre"},
	{`mall of emirates|emirates mall|emirate mall`, "Mall of the Emirates"},
	{`dubai mal`, "Dubai Mall"},
	{`business bey|bizness bay`, "Business Bay"},
	{`bur dubay`, "Bur Dubai"},
	{`al barsa|al barshah`, "Al Barsha"},
	{`karamah`, "Karama"},
	{`jbr`, "JBR"},
	{`jlt`, "JLT"},
	{`dxb`, "DXB"},
	{`difc`, "DIFC"},
	{`mirdiff|mirdef`, "Mirdif"},
}

// Normalizer applies language-aware cleanup using a Lexicon.
type Normalizer struct {
	lex         *lexicon.Lexicon
	corrections []correction
}

// New builds a Normalizer. A nil lexicon uses lexicon.Default().
func New(lex *lexicon.Lexicon) *Normalizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	n := &Normalizer{lex: lex}
	for _, c := range placeCorrections {
		n.corrections = append(n.corrections, correction{
			pattern:     regexp.MustCompile(`(?i)\b(?:` + c.from + `)\b`),
			replacement: c.to,
		})
	}
	return n
}

// Lexicon exposes the lexicon the normalizer was built with.
func (n *Normalizer) Lexicon() *lexicon.Lexicon { return n.lex }

// Normalize folds digits and script variants, strips leading filler words
// and corrects known place-name misspellings. Case is preserved.
func (n *Normalizer) Normalize(raw string, lang lexicon.Language) string {
	text := foldScript(raw)
	text = strings.Join(strings.Fields(text), " ")
	text = n.lex.StripLeading(text, lexicon.Filler)
	for _, c := range n.corrections {
		text = c.pattern.ReplaceAllString(text, c.replacement)
	}
	if lang == lexicon.Urdu || lang == lexicon.Arabic {
		text = strings.TrimRight(text, "۔؟،")
	}
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(".,!;:-", r)
	})
}

var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bno need\b`),
	regexp.MustCompile(`\bdont (write|need|have|want)\b`),
	regexp.MustCompile(`\bnot (needed|required|necessary)\b`),
	regexp.MustCompile(`\bnothing (else|special|more)\b`),
	regexp.MustCompile(`\bno (notes?|email|requests?|special requests?)\b`),
	regexp.MustCompile(`\bthats (all|it)\b`),
	regexp.MustCompile(`\b(nahi|nahin) chahiye\b`),
	regexp.MustCompile(`\bkuch (bhi )?nahi\b`),
	regexp.MustCompile(`\bzaroorat nahi\b`),
	regexp.MustCompile(`\bla shukran\b`),
	regexp.MustCompile(`(^|\s)(لا شكرا|ما في|خلاص|کچھ نہیں)(\s|$)`),
}

// DetectSkipIntent reports whether the caller is declining to answer.
func (n *Normalizer) DetectSkipIntent(text string) bool {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < 3 {
		return true
	}
	if n.lex.Is(lexicon.Skip, trimmed) {
		return true
	}
	folded := lexicon.Fold(trimmed)
	for _, p := range skipPatterns {
		if p.MatchString(folded) {
			return true
		}
	}
	words := strings.Fields(folded)
	if len(words) == 0 {
		return true
	}
	if len(words) <= 3 && n.lex.HasWord(lexicon.Skip, words[0]) && !strings.ContainsAny(folded, "0123456789") {
		return true
	}
	return false
}

// foldScript maps Arabic-Indic and Persian digits to ASCII and unifies
// Arabic letter variants that speech engines emit inconsistently.
func foldScript(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		case r == 'ى':
			return 'ي'
		case r == 'ـ':
			return -1
		}
		return r
	}, s)
}
