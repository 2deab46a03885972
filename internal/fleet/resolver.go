package fleet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/pkg/logging"
)

// VehicleService is a remote vehicle recommender.
type VehicleService interface {
	SuggestVehicle(ctx context.Context, passengers, luggage int) (Category, error)
}

// FareService is a remote fare calculator.
type FareService interface {
	QuoteFare(ctx context.Context, distanceKm float64, vehicle Category, bt BookingType) (float64, error)
}

// DistanceService measures driving distance between two places.
type DistanceService interface {
	Distance(ctx context.Context, from, to string) (float64, error)
}

// Source says where a number in a quote came from.
type Source string

const (
	SourceRemote  Source = "remote"
	SourceLocal   Source = "local"
	SourceDefault Source = "default"
)

// Quote is a priced vehicle proposal.
type Quote struct {
	Vehicle        Category
	FareAED        float64
	DistanceKm     float64
	VehicleSource  Source
	FareSource     Source
	DistanceSource Source
}

// QuoteRequest describes the trip to price.
type QuoteRequest struct {
	Pickup      string
	Dropoff     string
	Passengers  int
	Luggage     int
	BookingType BookingType
}

// ResolverConfig tunes the resolver.
type ResolverConfig struct {
	DefaultDistanceKm float64
	// MaxDeviation is the largest accepted relative gap between a remote
	// fare and the local estimate.
	MaxDeviation float64
	Timeout      time.Duration
}

// Resolver prefers remote services and falls back to the local ladder and
// rate table. Any remote collaborator may be nil.
type Resolver struct {
	rates    RateTable
	vehicles VehicleService
	fares    FareService
	distance DistanceService
	cfg      ResolverConfig
	logger   *logging.Logger
	metrics  *metrics.ConversationMetrics
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

func WithVehicleService(v VehicleService) ResolverOption {
	return func(r *Resolver) { r.vehicles = v }
}

func WithFareService(f FareService) ResolverOption {
	return func(r *Resolver) { r.fares = f }
}

func WithDistanceService(d DistanceService) ResolverOption {
	return func(r *Resolver) { r.distance = d }
}

func WithMetrics(m *metrics.ConversationMetrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

func WithLogger(l *logging.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewResolver(rates RateTable, cfg ResolverConfig, opts ...ResolverOption) *Resolver {
	if len(rates.Rates) == 0 {
		rates = DefaultRateTable()
	}
	if cfg.DefaultDistanceKm <= 0 {
		cfg.DefaultDistanceKm = 20
	}
	if cfg.MaxDeviation <= 0 {
		cfg.MaxDeviation = 1.0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	r := &Resolver{rates: rates, cfg: cfg, logger: logging.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rates returns the local rate table.
func (r *Resolver) Rates() RateTable { return r.rates }

// SuggestVehicle asks the remote service first. A remote answer that is
// unknown or too small for the party is discarded in favour of the ladder.
func (r *Resolver) SuggestVehicle(ctx context.Context, passengers, luggage int) (Category, Source, error) {
	local, err := SuggestVehicle(passengers, luggage)
	if err != nil {
		return "", SourceLocal, err
	}
	if r.vehicles == nil {
		return local, SourceLocal, nil
	}

	start := time.Now()
	remote, err := extcall.Do(ctx, "vehicle_service", r.cfg.Timeout, func(ctx context.Context) (Category, error) {
		return r.vehicles.SuggestVehicle(ctx, passengers, luggage)
	})
	r.metrics.ObserveExternalCall("vehicle_service", err, start)
	if err != nil {
		r.logger.Warn("remote vehicle suggestion failed, using ladder", "error", err, "kind", extcall.KindOf(err).String())
		return local, SourceLocal, nil
	}
	capacity, ok := CapacityOf(remote)
	if !ok || !capacity.Fits(passengers, luggage) {
		r.logger.Warn("remote vehicle suggestion rejected", "vehicle", remote, "passengers", passengers, "luggage", luggage)
		return local, SourceLocal, nil
	}
	return remote, SourceRemote, nil
}

// CalculateFare always returns a fare for a known category. A remote fare is
// used only when it is at least the base fare and within MaxDeviation of the
// local estimate.
func (r *Resolver) CalculateFare(ctx context.Context, distanceKm float64, vehicle Category, bt BookingType) (float64, Source, error) {
	local, err := r.rates.Fare(distanceKm, vehicle, bt)
	if err != nil {
		return 0, SourceLocal, err
	}
	if r.fares == nil {
		r.metrics.ObserveFareQuote(string(SourceLocal))
		return local, SourceLocal, nil
	}

	start := time.Now()
	remote, err := extcall.Do(ctx, "fare_service", r.cfg.Timeout, func(ctx context.Context) (float64, error) {
		return r.fares.QuoteFare(ctx, distanceKm, vehicle, bt)
	})
	r.metrics.ObserveExternalCall("fare_service", err, start)
	if err != nil {
		r.logger.Warn("remote fare failed, using local rate", "error", err, "kind", extcall.KindOf(err).String())
		r.metrics.ObserveFareQuote(string(SourceLocal))
		return local, SourceLocal, nil
	}
	if reason := r.implausible(remote, local, vehicle); reason != "" {
		r.logger.Warn("remote fare rejected", "remote", remote, "local", local, "vehicle", vehicle, "reason", reason)
		r.metrics.ObserveFareQuote(string(SourceLocal))
		return local, SourceLocal, nil
	}
	r.metrics.ObserveFareQuote(string(SourceRemote))
	return math.Round(remote), SourceRemote, nil
}

func (r *Resolver) implausible(remote, local float64, vehicle Category) string {
	rate, _ := r.rates.Rate(vehicle)
	switch {
	case math.IsNaN(remote) || math.IsInf(remote, 0):
		return "not a number"
	case remote < rate.BaseFare:
		return "below base fare"
	case local > 0 && math.Abs(remote-local)/local > r.cfg.MaxDeviation:
		return "deviates from local estimate"
	}
	return ""
}

// Distance returns driving km between pickup and dropoff, or the configured
// default when the distance service is missing or fails.
func (r *Resolver) Distance(ctx context.Context, from, to string) (float64, Source) {
	if r.distance == nil || from == "" || to == "" {
		return r.cfg.DefaultDistanceKm, SourceDefault
	}
	start := time.Now()
	km, err := r.distance.Distance(ctx, from, to)
	r.metrics.ObserveExternalCall("distance", err, start)
	if err != nil || km <= 0 {
		r.logger.Warn("distance lookup failed, using default", "error", err, "default_km", r.cfg.DefaultDistanceKm)
		return r.cfg.DefaultDistanceKm, SourceDefault
	}
	return km, SourceRemote
}

// Quote runs distance, vehicle and fare resolution for a trip. The only error
// is a party that no vehicle can carry.
func (r *Resolver) Quote(ctx context.Context, req QuoteRequest) (Quote, error) {
	vehicle, vsrc, err := r.SuggestVehicle(ctx, req.Passengers, req.Luggage)
	if err != nil {
		return Quote{}, err
	}
	km, dsrc := r.Distance(ctx, req.Pickup, req.Dropoff)
	fare, fsrc, err := r.CalculateFare(ctx, km, vehicle, req.BookingType)
	if err != nil {
		return Quote{}, fmt.Errorf("fleet: price %s: %w", vehicle, err)
	}
	return Quote{
		Vehicle:        vehicle,
		FareAED:        fare,
		DistanceKm:     math.Round(km*10) / 10,
		VehicleSource:  vsrc,
		FareSource:     fsrc,
		DistanceSource: dsrc,
	}, nil
}

var upgradeOrder = []Category{LuxurySedan, SUV, LuxurySUV, Van, MiniBus}

// Alternatives lists up to limit upgrade options for the party, priced from the
// local table, cheapest first. The base vehicle is never included.
func (r *Resolver) Alternatives(base Quote, passengers, luggage int, bt BookingType, limit int) []Quote {
	if limit <= 0 {
		limit = 3
	}
	var out []Quote
	for _, c := range upgradeOrder {
		if c == base.Vehicle {
			continue
		}
		capacity, _ := CapacityOf(c)
		if !capacity.Fits(passengers, luggage) {
			continue
		}
		if c != LuxurySedan && Rank(c) < Rank(base.Vehicle) {
			continue
		}
		fare, err := r.rates.Fare(base.DistanceKm, c, bt)
		if err != nil || fare <= base.FareAED {
			continue
		}
		out = append(out, Quote{
			Vehicle:        c,
			FareAED:        fare,
			DistanceKm:     base.DistanceKm,
			VehicleSource:  SourceLocal,
			FareSource:     SourceLocal,
			DistanceSource: base.DistanceSource,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FareAED < out[j].FareAED })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// IsCapacityError reports whether err means the party cannot be carried.
func IsCapacityError(err error) bool {
	return errors.Is(err, ErrExceedsCapacity)
}
