// Package geo resolves free-text places to canonical addresses and
// measures driving distance between them.
package geo

import "context"

// Address is a geocoded place.
type Address struct {
	Formatted string  `json:"formatted"`
	PlaceID   string  `json:"place_id,omitempty"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// Service is implemented by geocoding providers. Errors carry an
// extcall.Kind; a place with no match is extcall.KindNotFound.
type Service interface {
	Resolve(ctx context.Context, text string) (Address, error)
	Distance(ctx context.Context, from, to string) (float64, error)
}
