package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var bookingTracer = otel.Tracer("bareerah.booking")

type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores bookings in the pending_bookings table. Confirmed
// bookings are kept too, for reconciliation.
type PostgresRepository struct {
	db pgxDB
}

// NewPostgresRepository accepts a *pgxpool.Pool or anything with the same
// Exec/Query methods.
func NewPostgresRepository(db pgxDB) *PostgresRepository {
	if db == nil {
		panic("booking: postgres db required")
	}
	return &PostgresRepository{db: db}
}

const upsertBookingSQL = `
INSERT INTO pending_bookings (
	reference, status, session_id, channel, customer_name, contact_number, email,
	pickup, dropoff, pickup_time, passengers, luggage, vehicle_type, fare_aed,
	distance_km, booking_type, flight_number, notes, needs_follow_up,
	follow_up_reasons, backend_reference, sync_error, payload, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
ON CONFLICT (reference) DO UPDATE SET
	status = EXCLUDED.status,
	backend_reference = EXCLUDED.backend_reference,
	sync_error = EXCLUDED.sync_error,
	payload = EXCLUDED.payload,
	updated_at = EXCLUDED.updated_at`

// Save inserts or updates a booking by reference.
func (r *PostgresRepository) Save(ctx context.Context, rec Record) error {
	ctx, span := bookingTracer.Start(ctx, "booking.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking.reference", rec.Reference),
		attribute.String("booking.status", string(rec.Status)),
	)

	payload, err := json.Marshal(rec.Draft)
	if err != nil {
		return fmt.Errorf("booking: marshal draft: %w", err)
	}
	reasons := rec.FollowUpReasons
	if reasons == nil {
		reasons = []string{}
	}
	_, err = r.db.Exec(ctx, upsertBookingSQL,
		rec.Reference, string(rec.Status), rec.SessionID, rec.Channel, rec.CustomerName,
		rec.ContactNumber, rec.Email, rec.Pickup, rec.Dropoff, rec.PickupTime,
		rec.Passengers, rec.Luggage, string(rec.VehicleType), rec.FareAED,
		rec.DistanceKm, string(rec.BookingType), rec.FlightNumber, rec.Notes, rec.NeedsFollowUp,
		reasons, rec.BackendReference, rec.SyncError, payload, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: upsert %s: %w", rec.Reference, err)
	}
	return nil
}

const listPendingSQL = `
SELECT payload, status, backend_reference, sync_error, created_at, updated_at
FROM pending_bookings
WHERE status = 'pending'
ORDER BY created_at
LIMIT $1`

// ListPending returns the oldest bookings that never reached the booking service.
func (r *PostgresRepository) ListPending(ctx context.Context, limit int) ([]Record, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.list_pending")
	defer span.End()
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, listPendingSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("booking: list pending: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			payload []byte
			status  string
			rec     Record
		)
		if err := rows.Scan(&payload, &status, &rec.BackendReference, &rec.SyncError, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("booking: scan pending: %w", err)
		}
		if err := json.Unmarshal(payload, &rec.Draft); err != nil {
			return nil, fmt.Errorf("booking: decode payload: %w", err)
		}
		rec.Status = Status(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: iterate pending: %w", err)
	}
	span.SetAttributes(attribute.Int("booking.pending", len(out)))
	return out, nil
}

var _ Repository = (*PostgresRepository)(nil)
