package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"

	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/pkg/logging"
)

const dependency = "google_maps"

// mapsAPI is the subset of *maps.Client used here.
type mapsAPI interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// GoogleMaps implements Service with the Google Maps Geocoding and
// Distance Matrix APIs, biased to the UAE.
type GoogleMaps struct {
	client  mapsAPI
	limiter *rate.Limiter
	timeout time.Duration
	region  string
	logger  *logging.Logger
}

// NewGoogleMaps creates a Google Maps backed Service. ratePerSecond <= 0
// disables client-side throttling.
func NewGoogleMaps(apiKey string, timeout time.Duration, ratePerSecond float64, logger *logging.Logger) (*GoogleMaps, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("geo: google maps api key is required")
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("geo: create maps client: %w", err)
	}
	return newGoogleMaps(client, timeout, ratePerSecond, logger), nil
}

func newGoogleMaps(client mapsAPI, timeout time.Duration, ratePerSecond float64, logger *logging.Logger) *GoogleMaps {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}
	return &GoogleMaps{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		region:  "ae",
		logger:  logger,
	}
}

// Resolve geocodes text to a canonical address.
func (g *GoogleMaps) Resolve(ctx context.Context, text string) (Address, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Address{}, extcall.NotFound(dependency, errors.New("empty query"))
	}
	return extcall.Do(ctx, dependency, g.timeout, func(ctx context.Context) (Address, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return Address{}, extcall.Timeout(dependency, err)
		}
		results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
			Address:    text,
			Region:     g.region,
			Components: map[maps.Component]string{maps.ComponentCountry: "AE"},
		})
		if err != nil {
			return Address{}, classifyMapsError(err)
		}
		if len(results) == 0 {
			return Address{}, extcall.NotFound(dependency, fmt.Errorf("no results for %q", text))
		}
		r := results[0]
		return Address{
			Formatted: r.FormattedAddress,
			PlaceID:   r.PlaceID,
			Lat:       r.Geometry.Location.Lat,
			Lng:       r.Geometry.Location.Lng,
		}, nil
	})
}

// Distance returns the driving distance in kilometres.
func (g *GoogleMaps) Distance(ctx context.Context, from, to string) (float64, error) {
	return extcall.Do(ctx, dependency, g.timeout, func(ctx context.Context) (float64, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return 0, extcall.Timeout(dependency, err)
		}
		resp, err := g.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
			Origins:      []string{from},
			Destinations: []string{to},
			Mode:         maps.TravelModeDriving,
		})
		if err != nil {
			return 0, classifyMapsError(err)
		}
		if resp == nil || len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
			return 0, extcall.Invalid(dependency, errors.New("empty distance matrix"))
		}
		el := resp.Rows[0].Elements[0]
		if el.Status != "OK" {
			return 0, extcall.NotFound(dependency, fmt.Errorf("distance element status %s", el.Status))
		}
		if el.Distance.Meters <= 0 {
			return 0, extcall.Invalid(dependency, fmt.Errorf("non-positive distance %d", el.Distance.Meters))
		}
		return float64(el.Distance.Meters) / 1000, nil
	})
}

func classifyMapsError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "ZERO_RESULTS"), strings.Contains(msg, "NOT_FOUND"):
		return extcall.NotFound(dependency, err)
	case strings.Contains(msg, "INVALID_REQUEST"):
		return extcall.Invalid(dependency, err)
	default:
		return extcall.Classify(dependency, err)
	}
}
