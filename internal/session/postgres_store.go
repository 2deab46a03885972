package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
)

type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps sessions in the call_sessions table as JSONB.
type PostgresStore struct {
	db pgxDB
}

func NewPostgresStore(db pgxDB) *PostgresStore {
	if db == nil {
		panic("session: postgres db required")
	}
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	ctx, span := sessionTracer.Start(ctx, "session.postgres.load")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", id))

	var data []byte
	err := p.db.QueryRow(ctx, `SELECT state FROM call_sessions WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}
	return decode(data)
}

const upsertSessionSQL = `
INSERT INTO call_sessions (id, channel, status, flow_step, state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	flow_step = EXCLUDED.flow_step,
	state = EXCLUDED.state,
	updated_at = EXCLUDED.updated_at`

func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	ctx, span := sessionTracer.Start(ctx, "session.postgres.save")
	defer span.End()

	data, err := encode(s)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("session.id", s.ID))
	if _, err := p.db.Exec(ctx, upsertSessionSQL, s.ID, s.Channel, string(s.Status), string(s.FlowStep), data, s.CreatedAt, s.UpdatedAt); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: save %s: %w", s.ID, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	ctx, span := sessionTracer.Start(ctx, "session.postgres.delete")
	defer span.End()

	if _, err := p.db.Exec(ctx, `DELETE FROM call_sessions WHERE id = $1`, id); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: delete %s: %w", id, err)
	}
	return nil
}

func (p *PostgresStore) ListIdle(ctx context.Context, before time.Time, limit int) ([]string, error) {
	ctx, span := sessionTracer.Start(ctx, "session.postgres.list_idle")
	defer span.End()
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.db.Query(ctx, `
		SELECT id FROM call_sessions
		WHERE status = 'active' AND updated_at < $1
		ORDER BY updated_at
		LIMIT $2`, before, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: list idle: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("session: scan idle: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
