package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// SQLStore appends call logs to the call_logs table. It runs on database/sql
// so the migrate binary and the API can share one *sql.DB opened with the
// pgx stdlib driver.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	if db == nil {
		panic("archive: sql db required")
	}
	return &SQLStore{db: db}
}

// Put records the unredacted call log for operations follow-up.
func (s *SQLStore) Put(ctx context.Context, log *CallLog) error {
	slots, err := json.Marshal(log.Slots)
	if err != nil {
		return fmt.Errorf("archive: marshal slots: %w", err)
	}
	transcript, err := json.Marshal(log.Messages)
	if err != nil {
		return fmt.Errorf("archive: marshal transcript: %w", err)
	}

	query := `
		INSERT INTO call_logs (
			session_id, channel, caller_number, language, outcome, last_step,
			reference, slots, skipped_slots, follow_ups, vehicle, fare_aed,
			turns, transcript, started_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (session_id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		log.SessionID,
		log.Channel,
		nullString(log.CallerNumber),
		log.Language,
		log.Outcome,
		log.LastStep,
		nullString(log.Reference),
		slots,
		pq.Array(log.SkippedSlots),
		pq.Array(log.FollowUps),
		nullString(log.Vehicle),
		log.FareAED,
		log.Turns,
		transcript,
		log.StartedAt,
		log.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("archive: insert call log %s: %w", log.SessionID, err)
	}
	return nil
}

// FollowUpCount returns how many archived calls still need a human.
func (s *SQLStore) FollowUpCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM call_logs WHERE cardinality(follow_ups) > 0 AND outcome <> 'completed'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("archive: count follow-ups: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
