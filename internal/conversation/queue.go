package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// turnQueue moves turn jobs from the webhook handlers to the workers.
type turnQueue interface {
	Send(ctx context.Context, env envelope) error
	Receive(ctx context.Context, max int, wait time.Duration) ([]delivery, error)
	Ack(ctx context.Context, receipt string) error
}

// envelope is one outgoing job. Group keeps turns of one session in order
// on queues that support it; Delay holds a requeued turn back.
type envelope struct {
	Body    string
	Group   string
	DedupID string
	Delay   time.Duration
}

type delivery struct {
	ID      string
	Body    string
	Receipt string
}

// turnJob is the JSON body carried on the queue.
type turnJob struct {
	ID       string      `json:"id"`
	Turn     TurnRequest `json:"turn"`
	Attempt  int         `json:"attempt,omitempty"`
	QueuedAt time.Time   `json:"queued_at"`
}

var errMalformedJob = errors.New("conversation: malformed turn job")

func newTurnJob(turn TurnRequest, now time.Time) turnJob {
	return turnJob{ID: uuid.NewString(), Turn: turn, QueuedAt: now.UTC()}
}

func (j turnJob) envelope(delay time.Duration) (envelope, error) {
	body, err := json.Marshal(j)
	if err != nil {
		return envelope{}, fmt.Errorf("conversation: encode turn job: %w", err)
	}
	return envelope{
		Body:    string(body),
		Group:   j.Turn.SessionID,
		DedupID: fmt.Sprintf("%s-%d", j.ID, j.Attempt),
		Delay:   delay,
	}, nil
}

func decodeTurnJob(body string) (turnJob, error) {
	var job turnJob
	if err := json.Unmarshal([]byte(body), &job); err != nil {
		return turnJob{}, fmt.Errorf("%w: %v", errMalformedJob, err)
	}
	if job.ID == "" || job.Turn.SessionID == "" {
		return turnJob{}, errMalformedJob
	}
	return job, nil
}
