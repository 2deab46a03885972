package location

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/geo"
)

type stubGeocoder struct {
	addr  geo.Address
	err   error
	calls int
}

func (s *stubGeocoder) Resolve(context.Context, string) (geo.Address, error) {
	s.calls++
	return s.addr, s.err
}

func newTestValidator(g Geocoder) *Validator {
	return NewValidator(DefaultGazetteer(), g, DefaultPolicy(), nil, nil)
}

func TestCheckRules(t *testing.T) {
	v := newTestValidator(nil)
	ctx := context.Background()
	tests := []struct {
		name       string
		text       string
		confidence float64
		accepted   bool
		source     Source
		reason     Reason
		canonical  string
	}{
		{"low confidence", "Dubai Marina", 0.6, false, "", ReasonLowConfidence, ""},
		{"empty", "  ", 0.9, false, "", ReasonEmpty, ""},
		{"bare yes", "yes", 0.9, false, "", ReasonConfirmation, ""},
		{"bare here", "here", 0.9, false, "", ReasonConfirmation, ""},
		{"city only", "Dubai", 0.9, false, "", ReasonTooCoarse, ""},
		{"city and country", "Dubai UAE", 0.9, false, "", ReasonTooCoarse, ""},
		{"one token", "the mall", 0.9, false, "", ReasonTooShort, ""},
		{"gazetteer exact", "Dubai Marina", 0.9, true, SourceGazetteer, "", "Dubai Marina"},
		{"gazetteer substring", "take me to Dubai Marina Mall please", 0.9, true, SourceGazetteer, "", "Dubai Marina Mall"},
		{"airport alias", "Dubai Airport", 0.9, true, SourceGazetteer, "", "Dubai International Airport (DXB)"},
		{"fuzzy typo", "Ibn Batuta shopping", 0.9, true, SourceFuzzy, "", "Ibn Battuta Mall"},
		{"street address", "Villa 23 Street 14 Al Wasl", 0.9, true, SourceGazetteer, "", "Al Wasl"},
		{"building number", "Building 12 Xyzzy Street", 0.9, true, SourceAddress, "", "Building 12 Xyzzy Street"},
		{"unknown without geocoder", "Quiet Lane Compound", 0.9, false, "", ReasonUnverified, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Check(ctx, tt.text, tt.confidence)
			assert.Equal(t, tt.accepted, got.Accepted)
			if tt.accepted {
				assert.Equal(t, tt.source, got.Source)
				assert.Equal(t, tt.canonical, got.Canonical)
			} else {
				assert.Equal(t, tt.reason, got.Reason)
			}
		})
	}
}

func TestLowConfidenceAlwaysRejected(t *testing.T) {
	g := &stubGeocoder{addr: geo.Address{Formatted: "Somewhere"}}
	v := newTestValidator(g)
	for _, text := range []string{"Burj Khalifa", "Villa 23 Street 14 Al Wasl", "Dubai International Airport"} {
		for _, c := range []float64{0, 0.5, 0.749} {
			assert.False(t, v.IsAcceptable(context.Background(), text, c), "%q at %v", text, c)
		}
	}
	assert.Zero(t, g.calls)
}

func TestShortInputsAlwaysRejected(t *testing.T) {
	g := &stubGeocoder{addr: geo.Address{Formatted: "Somewhere"}}
	v := newTestValidator(g)
	for _, text := range []string{"marina", "um the airport", "to JBR", "please downtown", "mall"} {
		assert.False(t, v.IsAcceptable(context.Background(), text, 0.99), text)
	}
}

func TestGeocoderOutcomes(t *testing.T) {
	ctx := context.Background()

	found := newTestValidator(&stubGeocoder{addr: geo.Address{Formatted: "Quiet Lane, Al Safa 2, Dubai"}})
	got := found.Check(ctx, "Quiet Lane Compound", 0.9)
	require.True(t, got.Accepted)
	assert.Equal(t, SourceGeocoder, got.Source)
	assert.Equal(t, "Quiet Lane, Al Safa 2, Dubai", got.Canonical)

	missing := newTestValidator(&stubGeocoder{err: extcall.NotFound("geo", nil)})
	got = missing.Check(ctx, "Quiet Lane Compound", 0.9)
	assert.False(t, got.Accepted)
	assert.Equal(t, ReasonNotFound, got.Reason)

	down := newTestValidator(&stubGeocoder{err: extcall.Timeout("geo", errors.New("deadline"))})
	got = down.Check(ctx, "Quiet Lane Compound", 0.9)
	assert.True(t, got.Accepted)
	assert.Equal(t, SourceGeocoderDown, got.Source)
	assert.Equal(t, "Quiet Lane Compound", got.Canonical)

	denied := newTestValidator(&stubGeocoder{err: errors.New("REQUEST_DENIED")})
	assert.True(t, denied.IsAcceptable(ctx, "Quiet Lane Compound", 0.9))
}

func TestAirportDetection(t *testing.T) {
	v := newTestValidator(nil)
	assert.True(t, v.IsAirport("DXB terminal 3"))
	assert.True(t, v.IsAirport("to the airport"))
	assert.False(t, v.IsAirport("Dubai Marina"))

	verdict := v.Check(context.Background(), "the airport", 0.9)
	assert.False(t, verdict.Accepted)
	assert.True(t, verdict.Airport)

	assert.Equal(t, "Dubai International Airport Terminal 3", v.NormalizeAirport("terminal 3 please"))
	assert.Equal(t, "Al Maktoum International Airport (DWC)", v.NormalizeAirport("DWC"))
	assert.Equal(t, "Dubai International Airport (DXB)", v.NormalizeAirport("airport"))
}

func TestPolicyShouldForceAccept(t *testing.T) {
	p := DefaultPolicy()
	assert.False(t, p.ShouldForceAccept(1))
	assert.True(t, p.ShouldForceAccept(2))
	assert.True(t, p.ShouldForceAccept(3))
}
