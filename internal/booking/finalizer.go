package booking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/starskyline/bareerah/internal/extcall"
	"github.com/starskyline/bareerah/internal/notify"
	"github.com/starskyline/bareerah/internal/observability/metrics"
	"github.com/starskyline/bareerah/pkg/logging"
)

const dependencyBooking = "booking_service"

// Service is the external booking system.
type Service interface {
	Create(ctx context.Context, d Draft) (string, error)
}

// Repository keeps a local copy of every finalized booking.
type Repository interface {
	Save(ctx context.Context, r Record) error
	ListPending(ctx context.Context, limit int) ([]Record, error)
}

// Notifier is satisfied by *notify.Service.
type Notifier interface {
	NotifyAsync(kind notify.Kind, p notify.Payload)
}

// Record is a Draft with its sync state.
type Record struct {
	Draft
	Status           Status
	BackendReference string
	SyncError        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Outcome is what the customer is told.
type Outcome struct {
	Status    Status
	Reference string
}

// Finalizer creates bookings remotely and degrades to a local pending record.
type Finalizer struct {
	service  Service
	repo     Repository
	notifier Notifier
	timeout  time.Duration
	now      func() time.Time
	logger   *logging.Logger
	metrics  *metrics.ConversationMetrics
}

// NewFinalizer builds a Finalizer. Any collaborator may be nil; the customer
// still gets a reference.
func NewFinalizer(service Service, repo Repository, notifier Notifier, timeout time.Duration, m *metrics.ConversationMetrics, logger *logging.Logger) *Finalizer {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Finalizer{
		service:  service,
		repo:     repo,
		notifier: notifier,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
		metrics:  m,
	}
}

// Finalize never fails. A remote error leaves the booking pending locally,
// and operations are notified either way.
func (f *Finalizer) Finalize(ctx context.Context, d Draft) Outcome {
	now := f.now()
	if d.Reference == "" {
		d.Reference = NewReference(now)
	}
	rec := Record{Draft: d, Status: StatusPending, CreatedAt: now, UpdatedAt: now}
	logger := f.logger.WithSession(d.SessionID)

	if f.service != nil {
		backendRef, err := f.create(ctx, d)
		if err != nil {
			rec.SyncError = err.Error()
			logger.Warn("booking create failed, keeping pending", "error", err, "kind", extcall.KindOf(err).String(), "reference", d.Reference)
		} else {
			rec.Status = StatusConfirmed
			rec.BackendReference = backendRef
		}
	} else {
		rec.SyncError = "booking service not configured"
	}

	reference := d.Reference
	if rec.BackendReference != "" {
		reference = rec.BackendReference
	}

	if f.repo != nil {
		if err := f.repo.Save(ctx, rec); err != nil {
			logger.Error("local booking save failed", "error", err, "reference", reference)
		}
	}

	kind := notify.KindBookingConfirmed
	if rec.Status == StatusPending {
		kind = notify.KindBookingPending
	}
	if f.notifier != nil {
		f.notifier.NotifyAsync(kind, Payload(rec, reference))
	}
	f.metrics.ObserveBooking(string(rec.Status))
	logger.Info("booking finalized", "status", rec.Status, "reference", reference, "follow_up", d.NeedsFollowUp)
	return Outcome{Status: rec.Status, Reference: reference}
}

// RetryPending re-sends pending bookings to the booking service and returns
// how many were confirmed.
func (f *Finalizer) RetryPending(ctx context.Context, limit int) (int, error) {
	if f.service == nil || f.repo == nil {
		return 0, nil
	}
	pending, err := f.repo.ListPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("booking: list pending: %w", err)
	}
	confirmed := 0
	for _, rec := range pending {
		backendRef, err := f.create(ctx, rec.Draft)
		rec.UpdatedAt = f.now()
		if err != nil {
			rec.SyncError = err.Error()
		} else {
			rec.Status = StatusConfirmed
			rec.BackendReference = backendRef
			rec.SyncError = ""
			confirmed++
		}
		if err := f.repo.Save(ctx, rec); err != nil {
			return confirmed, fmt.Errorf("booking: save %s: %w", rec.Reference, err)
		}
	}
	return confirmed, nil
}

func (f *Finalizer) create(ctx context.Context, d Draft) (string, error) {
	start := f.now()
	ref, err := extcall.Do(ctx, dependencyBooking, f.timeout, func(ctx context.Context) (string, error) {
		return f.service.Create(ctx, d)
	})
	f.metrics.ObserveExternalCall(dependencyBooking, err, start)
	return ref, err
}

// Payload renders a record for operations.
func Payload(rec Record, reference string) notify.Payload {
	summary := fmt.Sprintf("%s, %s to %s at %s", rec.CustomerName, rec.Pickup, rec.Dropoff, rec.PickupTime)
	if rec.Status == StatusPending {
		summary = "NOT synced to the booking system. " + summary
	}
	return notify.Payload{
		SessionID:    rec.SessionID,
		Reference:    reference,
		Channel:      rec.Channel,
		CallerNumber: rec.ContactNumber,
		Summary:      summary,
		Fields: []notify.Field{
			{Name: "Status", Value: string(rec.Status)},
			{Name: "Customer", Value: rec.CustomerName},
			{Name: "Phone", Value: rec.ContactNumber},
			{Name: "Email", Value: rec.Email},
			{Name: "Pickup", Value: rec.Pickup},
			{Name: "Dropoff", Value: rec.Dropoff},
			{Name: "Pickup time", Value: rec.PickupTime},
			{Name: "Flight", Value: rec.FlightNumber},
			{Name: "Passengers", Value: strconv.Itoa(rec.Passengers)},
			{Name: "Luggage", Value: strconv.Itoa(rec.Luggage)},
			{Name: "Vehicle", Value: rec.VehicleType.DisplayName()},
			{Name: "Fare", Value: fmt.Sprintf("AED %.0f (%s)", rec.FareAED, rec.FareSource)},
			{Name: "Distance", Value: fmt.Sprintf("%.1f km", rec.DistanceKm)},
			{Name: "Notes", Value: rec.Notes},
			{Name: "Sync error", Value: rec.SyncError},
		},
		Reasons:    rec.FollowUpReasons,
		OccurredAt: rec.UpdatedAt,
	}
}
