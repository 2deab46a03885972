package archive

import "time"

// CallLog is the archived record of one finished conversation.
type CallLog struct {
	Version         string            `json:"version"`
	SessionID       string            `json:"session_id"`
	Channel         string            `json:"channel"`
	CallerNumber    string            `json:"caller_number,omitempty"`
	PhoneHash       string            `json:"phone_hash,omitempty"`
	Language        string            `json:"language"`
	Outcome         string            `json:"outcome"`
	LastStep        string            `json:"last_step"`
	Reference       string            `json:"reference,omitempty"`
	Slots           map[string]string `json:"slots"`
	SkippedSlots    []string          `json:"skipped_slots,omitempty"`
	FollowUps       []string          `json:"follow_ups,omitempty"`
	Vehicle         string            `json:"vehicle,omitempty"`
	FareAED         float64           `json:"fare_aed,omitempty"`
	Turns           int               `json:"turns"`
	StartedAt       time.Time         `json:"started_at"`
	EndedAt         time.Time         `json:"ended_at"`
	DurationSeconds int               `json:"duration_seconds"`
	Messages        []Message         `json:"messages"`
}

// Message is a single transcript line.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	SessionID    string `json:"session_id"`
	S3Key        string `json:"s3_key"`
	Channel      string `json:"channel"`
	Outcome      string `json:"outcome"`
	Language     string `json:"language"`
	FollowUp     bool   `json:"follow_up"`
	ArchivedAt   string `json:"archived_at"`
	MessageCount int    `json:"message_count"`
}
