package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/starskyline/bareerah/pkg/logging"
)

// Publisher hands inbound turns to the queue so webhooks can acknowledge
// Twilio before the reply is ready.
type Publisher struct {
	queue  turnQueue
	now    func() time.Time
	logger *logging.Logger
}

func NewPublisher(queue turnQueue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, now: time.Now, logger: logger}
}

// EnqueueTurn queues req and returns the job id.
func (p *Publisher) EnqueueTurn(ctx context.Context, req TurnRequest) (string, error) {
	if req.SessionID == "" {
		return "", fmt.Errorf("conversation: enqueue turn: session id is required")
	}
	job := newTurnJob(req, p.now())
	env, err := job.envelope(0)
	if err != nil {
		return "", err
	}
	if err := p.queue.Send(ctx, env); err != nil {
		return "", fmt.Errorf("conversation: enqueue turn %s: %w", req.SessionID, err)
	}
	p.logger.Debug("turn queued", "job_id", job.ID, "session_id", req.SessionID, "channel", req.Channel)
	return job.ID, nil
}
