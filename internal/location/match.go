package location

import (
	"sort"
	"strings"

	"github.com/starskyline/bareerah/internal/lexicon"
)

// Articles that carry no identity in Dubai place names.
var articles = map[string]struct{}{"al": {}, "el": {}, "the": {}, "ال": {}}

type entry struct {
	key         string
	distinctive []string
	place       *Place
}

// Gazetteer matches free text against a table of known places.
type Gazetteer struct {
	lex     *lexicon.Lexicon
	entries []entry
}

// NewGazetteer indexes places by name and aliases. Longer keys are tried
// first so the most specific place wins.
func NewGazetteer(places []Place, lex *lexicon.Lexicon) *Gazetteer {
	if lex == nil {
		lex = lexicon.Default()
	}
	g := &Gazetteer{lex: lex}
	for i := range places {
		p := &places[i]
		keys := append([]string{p.Name}, p.Aliases...)
		for _, k := range keys {
			folded := lexicon.Fold(k)
			if folded == "" {
				continue
			}
			g.entries = append(g.entries, entry{key: folded, distinctive: g.distinctive(folded), place: p})
		}
	}
	sort.SliceStable(g.entries, func(i, j int) bool {
		return len(g.entries[i].key) > len(g.entries[j].key)
	})
	return g
}

// DefaultGazetteer indexes DubaiPlaces with the default lexicon.
func DefaultGazetteer() *Gazetteer {
	return NewGazetteer(DubaiPlaces, lexicon.Default())
}

// Lookup finds a place whose name appears in text, or whose name contains
// the distinctive core of text.
func (g *Gazetteer) Lookup(text string) (Place, bool) {
	folded := lexicon.Fold(text)
	if folded == "" {
		return Place{}, false
	}
	core := strings.Join(g.lex.Tokens(text, lexicon.StopWord, lexicon.Filler), " ")
	paddedText := " " + folded + " "
	paddedCore := " " + core + " "
	coreTokens := strings.Fields(core)
	coreDistinct := g.distinctive(core)

	for _, e := range g.entries {
		if strings.Contains(paddedText, " "+e.key+" ") {
			return *e.place, true
		}
	}
	if len(coreTokens) < 2 || len(coreDistinct) == 0 {
		return Place{}, false
	}
	for i := len(g.entries) - 1; i >= 0; i-- {
		if strings.Contains(" "+g.entries[i].key+" ", paddedCore) {
			return *g.entries[i].place, true
		}
	}
	return Place{}, false
}

// Fuzzy returns the place with the highest word-overlap ratio at or above
// threshold. The ratio is the share of a key's distinctive words found in text.
func (g *Gazetteer) Fuzzy(text string, threshold float64) (Place, float64, bool) {
	cand := g.distinctive(strings.Join(g.lex.Tokens(text, lexicon.StopWord, lexicon.Filler), " "))
	if len(cand) == 0 {
		return Place{}, 0, false
	}
	var (
		best      *Place
		bestScore float64
	)
	for _, e := range g.entries {
		if len(e.distinctive) == 0 {
			continue
		}
		common := overlap(cand, e.distinctive)
		if common == 0 || (common < 2 && len(e.distinctive) > 2) {
			continue
		}
		score := float64(common) / float64(len(e.distinctive))
		if score >= threshold && score > bestScore {
			best, bestScore = e.place, score
		}
	}
	if best == nil {
		return Place{}, 0, false
	}
	return *best, bestScore, true
}

// Match tries Lookup then Fuzzy.
func (g *Gazetteer) Match(text string, threshold float64) (Place, Source, bool) {
	if p, ok := g.Lookup(text); ok {
		return p, SourceGazetteer, true
	}
	if p, _, ok := g.Fuzzy(text, threshold); ok {
		return p, SourceFuzzy, true
	}
	return Place{}, "", false
}

func (g *Gazetteer) distinctive(text string) []string {
	var out []string
	for _, w := range strings.Fields(lexicon.Fold(text)) {
		if _, ok := articles[w]; ok {
			continue
		}
		if g.lex.HasWord(lexicon.City, w) || g.lex.HasWord(lexicon.GeoMarker, w) ||
			g.lex.HasWord(lexicon.StopWord, w) || g.lex.HasWord(lexicon.Filler, w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func overlap(cand, key []string) int {
	used := make([]bool, len(cand))
	common := 0
	for _, k := range key {
		for i, c := range cand {
			if !used[i] && sameWord(c, k) {
				used[i] = true
				common++
				break
			}
		}
	}
	return common
}
