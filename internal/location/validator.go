// Package location decides whether a spoken pickup or dropoff is specific
// enough to dispatch a car to.
package location

import (
	"context"
	"strings"
	"unicode"

	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/geo"
	"github.com/starskyline/bareerah/internal/lexicon"
	"github.com/starskyline/bareerah/pkg/logging"
)

// Policy holds the acceptance thresholds shared with the dialogue engine.
type Policy struct {
	MinConfidence               float64
	MaxRetriesBeforeForceAccept int
	FuzzyOverlap                float64
}

// DefaultPolicy returns the production thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MinConfidence:               0.75,
		MaxRetriesBeforeForceAccept: 2,
		FuzzyOverlap:                0.5,
	}
}

// ShouldForceAccept reports whether a slot that failed validation failures
// times must now be accepted with whatever value is best.
func (p Policy) ShouldForceAccept(failures int) bool {
	return failures >= p.MaxRetriesBeforeForceAccept
}

// Source records which rule accepted a location.
type Source string

const (
	SourceGazetteer    Source = "gazetteer"
	SourceFuzzy        Source = "fuzzy"
	SourceAddress      Source = "address"
	SourceGeocoder     Source = "geocoder"
	SourceGeocoderDown Source = "geocoder_unavailable"
	SourceForced       Source = "forced"
)

// Reason records why a location was rejected.
type Reason string

const (
	ReasonLowConfidence Reason = "low_confidence"
	ReasonEmpty         Reason = "empty"
	ReasonConfirmation  Reason = "confirmation_word"
	ReasonTooCoarse     Reason = "city_only"
	ReasonTooShort      Reason = "too_short"
	ReasonNotFound      Reason = "not_found"
	ReasonUnverified    Reason = "unverified"
)

// Verdict is the outcome of checking one candidate location.
type Verdict struct {
	Accepted  bool
	Canonical string
	Source    Source
	Reason    Reason
	Place     *Place
	Address   *geo.Address
	// Airport is set when the text names an airport, accepted or not.
	Airport bool
}

// Geocoder is the subset of geo.Service the validator uses.
type Geocoder interface {
	Resolve(ctx context.Context, text string) (geo.Address, error)
}

// Validator applies the location acceptance rules in order.
type Validator struct {
	lex      *lexicon.Lexicon
	gaz      *Gazetteer
	geocoder Geocoder
	policy   Policy
	logger   *logging.Logger
}

// NewValidator builds a Validator. geocoder may be nil.
func NewValidator(gaz *Gazetteer, geocoder Geocoder, policy Policy, lex *lexicon.Lexicon, logger *logging.Logger) *Validator {
	if lex == nil {
		lex = lexicon.Default()
	}
	if gaz == nil {
		gaz = NewGazetteer(DubaiPlaces, lex)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Validator{lex: lex, gaz: gaz, geocoder: geocoder, policy: policy, logger: logger}
}

// Policy returns the thresholds the validator enforces.
func (v *Validator) Policy() Policy { return v.policy }

// Gazetteer returns the place table used for fast-path matches.
func (v *Validator) Gazetteer() *Gazetteer { return v.gaz }

// IsAcceptable reports whether text may be locked as a pickup or dropoff.
func (v *Validator) IsAcceptable(ctx context.Context, text string, confidence float64) bool {
	return v.Check(ctx, text, confidence).Accepted
}

// Check runs the acceptance rules and explains the outcome.
func (v *Validator) Check(ctx context.Context, text string, confidence float64) Verdict {
	text = strings.TrimSpace(text)
	airport := v.IsAirport(text)
	reject := func(r Reason) Verdict { return Verdict{Reason: r, Airport: airport} }

	if confidence < v.policy.MinConfidence {
		return reject(ReasonLowConfidence)
	}
	if text == "" {
		return reject(ReasonEmpty)
	}
	if v.lex.Is(lexicon.Yes, text) || v.lex.Is(lexicon.No, text) || v.lex.Is(lexicon.Generic, text) {
		return reject(ReasonConfirmation)
	}
	tokens := v.lex.Tokens(text, lexicon.Filler, lexicon.StopWord)
	if v.lex.Is(lexicon.City, text) || allCityWords(v.lex, tokens) {
		return reject(ReasonTooCoarse)
	}
	if len(tokens) < 2 {
		return reject(ReasonTooShort)
	}

	if p, src, ok := v.gaz.Match(text, v.policy.FuzzyOverlap); ok {
		return Verdict{Accepted: true, Canonical: p.Name, Source: src, Place: &p, Airport: airport || p.Kind == KindAirport}
	}
	if hasDigit(text) && len(strings.Fields(text)) >= 3 {
		return Verdict{Accepted: true, Canonical: text, Source: SourceAddress, Airport: airport}
	}
	if v.geocoder == nil {
		return reject(ReasonUnverified)
	}

	addr, err := v.geocoder.Resolve(ctx, text)
	switch kind := extcall.KindOf(err); {
	case err == nil && strings.TrimSpace(addr.Formatted) != "":
		return Verdict{Accepted: true, Canonical: addr.Formatted, Source: SourceGeocoder, Address: &addr, Airport: airport}
	case err == nil, kind == extcall.KindNotFound:
		return reject(ReasonNotFound)
	default:
		// Never lose a lead over a geocoder outage.
		v.logger.Warn("geocoder unavailable, accepting location as spoken", "error", err, "kind", kind.String())
		return Verdict{Accepted: true, Canonical: text, Source: SourceGeocoderDown, Airport: airport}
	}
}

// IsAirport reports whether text names an airport.
func (v *Validator) IsAirport(text string) bool {
	if v.lex.Contains(lexicon.Airport, text) {
		return true
	}
	if p, ok := v.gaz.Lookup(text); ok && p.Kind == KindAirport {
		return true
	}
	return false
}

// NormalizeAirport maps an airport mention to its canonical name,
// defaulting to DXB when no other airport or terminal is named.
func (v *Validator) NormalizeAirport(text string) string {
	if p, ok := v.gaz.Lookup(text); ok && p.Kind == KindAirport {
		return p.Name
	}
	return DubaiPlaces[0].Name
}

func allCityWords(lex *lexicon.Lexicon, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !lex.HasWord(lexicon.City, t) {
			return false
		}
	}
	return true
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
