// Package fleet picks a vehicle for a party and prices the trip.
package fleet

import (
	"errors"
	"fmt"
)

// Category is a vehicle class offered to customers.
type Category string

const (
	Sedan     Category = "sedan"
	SUV       Category = "suv"
	LuxurySUV Category = "luxury_suv"
	Van       Category = "van"
	MiniBus   Category = "mini_bus"
	Bus       Category = "bus"
)

// LuxurySedan is never suggested; it is only offered as an upgrade.
const LuxurySedan Category = "luxury_sedan"

// ErrExceedsCapacity is returned when no vehicle fits the party.
var ErrExceedsCapacity = errors.New("fleet: party exceeds maximum vehicle capacity")

// Capacity is the most a category can carry.
type Capacity struct {
	Passengers int
	Luggage    int
}

// Fits reports whether c can carry the party.
func (c Capacity) Fits(passengers, luggage int) bool {
	return passengers <= c.Passengers && luggage <= c.Luggage
}

// Ladder lists categories in the order they are tried. A party gets the first
// category whose capacity covers both counts.
var Ladder = []Category{Sedan, SUV, LuxurySUV, Van, MiniBus, Bus}

var capacities = map[Category]Capacity{
	Sedan:       {Passengers: 4, Luggage: 3},
	LuxurySedan: {Passengers: 3, Luggage: 2},
	SUV:         {Passengers: 6, Luggage: 6},
	LuxurySUV:   {Passengers: 7, Luggage: 5},
	Van:         {Passengers: 7, Luggage: 7},
	MiniBus:     {Passengers: 12, Luggage: 8},
	Bus:         {Passengers: 14, Luggage: 8},
}

var displayNames = map[Category]string{
	Sedan:       "Sedan",
	LuxurySedan: "Luxury Sedan",
	SUV:         "SUV",
	LuxurySUV:   "Luxury SUV",
	Van:         "Van",
	MiniBus:     "Mini Bus",
	Bus:         "Bus",
}

// CapacityOf returns the capacity of c.
func CapacityOf(c Category) (Capacity, bool) {
	capacity, ok := capacities[c]
	return capacity, ok
}

// DisplayName is how the category is read out to callers.
func (c Category) DisplayName() string {
	if n, ok := displayNames[c]; ok {
		return n
	}
	return string(c)
}

// Rank orders categories along the ladder; unknown categories rank last.
func Rank(c Category) int {
	for i, l := range Ladder {
		if l == c {
			return i
		}
	}
	if c == LuxurySedan {
		return 1
	}
	return len(Ladder)
}

// ParseCategory accepts backend and spoken spellings.
func ParseCategory(s string) (Category, bool) {
	switch normalizeKey(s) {
	case "sedan", "car", "saloon", "standard":
		return Sedan, true
	case "suv":
		return SUV, true
	case "luxury_suv", "luxurysuv", "premium_suv":
		return LuxurySUV, true
	case "luxury_sedan", "luxury", "premium_sedan", "executive":
		return LuxurySedan, true
	case "van", "minivan":
		return Van, true
	case "mini_bus", "minibus", "mini_coach":
		return MiniBus, true
	case "bus", "coach":
		return Bus, true
	}
	return "", false
}

// SuggestVehicle walks the ladder and returns the first category that fits.
func SuggestVehicle(passengers, luggage int) (Category, error) {
	if passengers < 1 {
		return "", fmt.Errorf("fleet: passengers must be at least 1, got %d", passengers)
	}
	if luggage < 0 {
		return "", fmt.Errorf("fleet: luggage cannot be negative, got %d", luggage)
	}
	for _, c := range Ladder {
		if capacities[c].Fits(passengers, luggage) {
			return c, nil
		}
	}
	return "", ErrExceedsCapacity
}
