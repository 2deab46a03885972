package fleet

import (
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BookingType distinguishes airport transfers, which carry a surcharge.
type BookingType string

const (
	PointToPoint    BookingType = "point_to_point"
	AirportTransfer BookingType = "airport_transfer"
)

// Rate prices one category: base fare covers IncludedKm, then PerKm applies.
type Rate struct {
	BaseFare   float64 `yaml:"base_fare"`
	IncludedKm float64 `yaml:"included_km"`
	PerKm      float64 `yaml:"per_km"`
}

// RateTable maps categories to rates plus trip-level surcharges.
type RateTable struct {
	Currency   string            `yaml:"currency"`
	AirportFee float64           `yaml:"airport_fee"`
	Rates      map[Category]Rate `yaml:"rates"`
}

// DefaultRateTable is used when no rate file is configured.
func DefaultRateTable() RateTable {
	return RateTable{
		Currency:   "AED",
		AirportFee: 20,
		Rates: map[Category]Rate{
			Sedan:       {BaseFare: 50, IncludedKm: 10, PerKm: 3.5},
			LuxurySedan: {BaseFare: 100, IncludedKm: 10, PerKm: 5.5},
			SUV:         {BaseFare: 80, IncludedKm: 10, PerKm: 4.5},
			LuxurySUV:   {BaseFare: 120, IncludedKm: 10, PerKm: 6.5},
			Van:         {BaseFare: 100, IncludedKm: 10, PerKm: 4.5},
			MiniBus:     {BaseFare: 180, IncludedKm: 10, PerKm: 6.0},
			Bus:         {BaseFare: 250, IncludedKm: 10, PerKm: 7.5},
		},
	}
}

// LoadRateTable reads a YAML rate file. Categories missing from the file keep
// their default rate.
func LoadRateTable(path string) (RateTable, error) {
	table := DefaultRateTable()
	if strings.TrimSpace(path) == "" {
		return table, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return RateTable{}, fmt.Errorf("fleet: read rate file: %w", err)
	}
	return ParseRateTable(raw)
}

// ParseRateTable decodes YAML over the default table.
func ParseRateTable(raw []byte) (RateTable, error) {
	table := DefaultRateTable()
	var file RateTable
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return RateTable{}, fmt.Errorf("fleet: parse rate file: %w", err)
	}
	if file.Currency != "" {
		table.Currency = file.Currency
	}
	if file.AirportFee > 0 {
		table.AirportFee = file.AirportFee
	}
	for c, r := range file.Rates {
		cat, ok := ParseCategory(string(c))
		if !ok {
			return RateTable{}, fmt.Errorf("fleet: unknown category %q in rate file", c)
		}
		if r.BaseFare <= 0 || r.PerKm < 0 || r.IncludedKm < 0 {
			return RateTable{}, fmt.Errorf("fleet: invalid rate for %s", cat)
		}
		table.Rates[cat] = r
	}
	return table, nil
}

// Rate returns the rate for c.
func (t RateTable) Rate(c Category) (Rate, bool) {
	r, ok := t.Rates[c]
	return r, ok
}

// Fare computes base + max(0, km-included)*perKm, plus the airport fee for
// airport transfers, rounded to whole dirhams.
func (t RateTable) Fare(distanceKm float64, c Category, bt BookingType) (float64, error) {
	r, ok := t.Rates[c]
	if !ok {
		return 0, fmt.Errorf("fleet: no rate for category %q", c)
	}
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		distanceKm = 0
	}
	fare := r.BaseFare + math.Max(0, distanceKm-r.IncludedKm)*r.PerKm
	if bt == AirportTransfer {
		fare += t.AirportFee
	}
	return math.Round(fare), nil
}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}
