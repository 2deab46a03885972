package fleet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestVehicleLadder(t *testing.T) {
	tests := []struct {
		passengers, luggage int
		want                Category
	}{
		{1, 0, Sedan},
		{4, 3, Sedan},
		{4, 4, SUV},
		{6, 6, SUV},
		{7, 5, LuxurySUV},
		{7, 7, Van},
		{8, 2, MiniBus},
		{12, 8, MiniBus},
		{14, 8, Bus},
	}
	for _, tt := range tests {
		got, err := SuggestVehicle(tt.passengers, tt.luggage)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d pax / %d bags", tt.passengers, tt.luggage)
	}
}

func TestSuggestVehicleExceedsCapacity(t *testing.T) {
	_, err := SuggestVehicle(15, 0)
	assert.ErrorIs(t, err, ErrExceedsCapacity)
	_, err = SuggestVehicle(2, 9)
	assert.True(t, IsCapacityError(err))
	_, err = SuggestVehicle(0, 1)
	assert.Error(t, err)
	assert.False(t, IsCapacityError(err))
}

func TestSuggestVehicleIsMonotonic(t *testing.T) {
	for luggage := 0; luggage <= 8; luggage++ {
		prev := -1
		for pax := 1; pax <= 14; pax++ {
			c, err := SuggestVehicle(pax, luggage)
			if err != nil {
				continue
			}
			assert.GreaterOrEqual(t, Rank(c), prev, "pax=%d luggage=%d", pax, luggage)
			prev = Rank(c)
		}
	}
	for pax := 1; pax <= 14; pax++ {
		prev := -1
		for luggage := 0; luggage <= 8; luggage++ {
			c, err := SuggestVehicle(pax, luggage)
			if err != nil {
				continue
			}
			assert.GreaterOrEqual(t, Rank(c), prev, "pax=%d luggage=%d", pax, luggage)
			prev = Rank(c)
		}
	}
}

func TestRateTableFare(t *testing.T) {
	table := DefaultRateTable()

	fare, err := table.Fare(5, Sedan, PointToPoint)
	require.NoError(t, err)
	assert.Equal(t, 50.0, fare)

	fare, err = table.Fare(30, Sedan, PointToPoint)
	require.NoError(t, err)
	assert.Equal(t, 120.0, fare) // 50 + 20*3.5

	fare, err = table.Fare(30, Sedan, AirportTransfer)
	require.NoError(t, err)
	assert.Equal(t, 140.0, fare)

	_, err = table.Fare(10, Category("helicopter"), PointToPoint)
	assert.Error(t, err)
}

func TestLoadRateTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
currency: AED
airport_fee: 25
rates:
  sedan:
    base_fare: 60
    included_km: 8
    per_km: 4
  Mini Bus:
    base_fare: 200
    included_km: 10
    per_km: 6.5
`), 0o600))

	table, err := LoadRateTable(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, table.AirportFee)
	assert.Equal(t, Rate{BaseFare: 60, IncludedKm: 8, PerKm: 4}, table.Rates[Sedan])
	assert.Equal(t, 200.0, table.Rates[MiniBus].BaseFare)
	assert.Equal(t, DefaultRateTable().Rates[SUV], table.Rates[SUV])

	_, err = ParseRateTable([]byte("rates:\n  hovercraft:\n    base_fare: 1\n"))
	assert.Error(t, err)

	table, err = LoadRateTable("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRateTable(), table)
}

type stubFares struct {
	fare float64
	err  error
}

func (s stubFares) QuoteFare(context.Context, float64, Category, BookingType) (float64, error) {
	return s.fare, s.err
}

type stubVehicles struct {
	vehicle Category
	err     error
}

func (s stubVehicles) SuggestVehicle(context.Context, int, int) (Category, error) {
	return s.vehicle, s.err
}

type stubDistance struct {
	km  float64
	err error
}

func (s stubDistance) Distance(context.Context, string, string) (float64, error) {
	return s.km, s.err
}

func TestCalculateFareSanityChecksRemote(t *testing.T) {
	// Local estimate for 30 km in a sedan is 120.
	tests := []struct {
		name       string
		remote     stubFares
		wantFare   float64
		wantSource Source
	}{
		{name: "plausible remote", remote: stubFares{fare: 130}, wantFare: 130, wantSource: SourceRemote},
		{name: "below base fare", remote: stubFares{fare: 30}, wantFare: 120, wantSource: SourceLocal},
		{name: "more than double", remote: stubFares{fare: 260}, wantFare: 120, wantSource: SourceLocal},
		{name: "remote failure", remote: stubFares{err: errors.New("503")}, wantFare: 120, wantSource: SourceLocal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(DefaultRateTable(), ResolverConfig{}, WithFareService(tt.remote))
			fare, src, err := r.CalculateFare(context.Background(), 30, Sedan, PointToPoint)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFare, fare)
			assert.Equal(t, tt.wantSource, src)
		})
	}
}

func TestSuggestVehicleRemoteFallback(t *testing.T) {
	ctx := context.Background()

	r := NewResolver(DefaultRateTable(), ResolverConfig{}, WithVehicleService(stubVehicles{vehicle: SUV}))
	c, src, err := r.SuggestVehicle(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, SUV, c)
	assert.Equal(t, SourceRemote, src)

	r = NewResolver(DefaultRateTable(), ResolverConfig{}, WithVehicleService(stubVehicles{vehicle: Sedan}))
	c, src, err = r.SuggestVehicle(ctx, 6, 5)
	require.NoError(t, err)
	assert.Equal(t, SUV, c, "remote sedan cannot carry six")
	assert.Equal(t, SourceLocal, src)

	r = NewResolver(DefaultRateTable(), ResolverConfig{}, WithVehicleService(stubVehicles{err: errors.New("down")}))
	c, src, err = r.SuggestVehicle(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, Sedan, c)
	assert.Equal(t, SourceLocal, src)

	_, _, err = r.SuggestVehicle(ctx, 20, 1)
	assert.ErrorIs(t, err, ErrExceedsCapacity)
}

func TestQuote(t *testing.T) {
	r := NewResolver(DefaultRateTable(), ResolverConfig{DefaultDistanceKm: 25},
		WithDistanceService(stubDistance{err: errors.New("quota")}))

	q, err := r.Quote(context.Background(), QuoteRequest{
		Pickup: "Dubai Marina", Dropoff: "DXB", Passengers: 2, Luggage: 1, BookingType: AirportTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, Sedan, q.Vehicle)
	assert.Equal(t, 25.0, q.DistanceKm)
	assert.Equal(t, SourceDefault, q.DistanceSource)
	assert.Equal(t, 123.0, q.FareAED) // 50 + 15*3.5 + 20 = 122.5, rounded

	r = NewResolver(DefaultRateTable(), ResolverConfig{}, WithDistanceService(stubDistance{km: 33.27}))
	q, err = r.Quote(context.Background(), QuoteRequest{Pickup: "a", Dropoff: "b", Passengers: 1})
	require.NoError(t, err)
	assert.Equal(t, 33.3, q.DistanceKm)
	assert.Equal(t, SourceRemote, q.DistanceSource)
}

func TestAlternatives(t *testing.T) {
	r := NewResolver(DefaultRateTable(), ResolverConfig{})
	base := Quote{Vehicle: Sedan, FareAED: 120, DistanceKm: 30}

	alts := r.Alternatives(base, 2, 1, PointToPoint, 3)
	require.Len(t, alts, 3)
	for i, a := range alts {
		assert.NotEqual(t, Sedan, a.Vehicle)
		assert.Greater(t, a.FareAED, base.FareAED)
		if i > 0 {
			assert.GreaterOrEqual(t, a.FareAED, alts[i-1].FareAED)
		}
	}
	assert.Equal(t, SUV, alts[0].Vehicle) // 80 + 20*4.5 = 170

	// A party of six only fits the larger upgrades.
	alts = r.Alternatives(Quote{Vehicle: SUV, FareAED: 170, DistanceKm: 30}, 6, 4, PointToPoint, 3)
	for _, a := range alts {
		capacity, _ := CapacityOf(a.Vehicle)
		assert.True(t, capacity.Fits(6, 4))
	}
	assert.NotEmpty(t, alts)
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Mini Bus")
	assert.True(t, ok)
	assert.Equal(t, MiniBus, c)
	c, ok = ParseCategory("LUXURY-SUV")
	assert.True(t, ok)
	assert.Equal(t, LuxurySUV, c)
	_, ok = ParseCategory("tuk tuk")
	assert.False(t, ok)
	assert.Equal(t, "Luxury SUV", LuxurySUV.DisplayName())
}
