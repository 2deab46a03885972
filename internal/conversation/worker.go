package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

// TurnHandler is satisfied by *Service.
type TurnHandler interface {
	HandleTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error)
}

var _ TurnHandler = (*Service)(nil)

// Worker drains queued turns, runs them through the handler and sends each
// reply back on the channel the customer wrote from.
type Worker struct {
	handler TurnHandler
	queue   turnQueue
	sender  ReplySender
	logger  *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers      int
	receiveWait  time.Duration
	batchSize    int
	maxRequeues  int
	requeueDelay time.Duration
	sendTimeout  time.Duration
}

const (
	maxReceiveWait = 20 * time.Second
	maxBatchSize   = 10
	ackTimeout     = 5 * time.Second
	maxPollBackoff = 8 * time.Second
	fallbackReply  = "Sorry - I'm having trouble responding right now. Please send your message again in a moment."
)

// WorkerOption customizes a Worker.
type WorkerOption func(*workerConfig)

func WithWorkerCount(n int) WorkerOption {
	return func(cfg *workerConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithReceiveWait sets the long-poll wait, capped at 20 seconds.
func WithReceiveWait(d time.Duration) WorkerOption {
	return func(cfg *workerConfig) {
		if d >= 0 {
			cfg.receiveWait = min(d, maxReceiveWait)
		}
	}
}

func WithBatchSize(n int) WorkerOption {
	return func(cfg *workerConfig) {
		if n > 0 {
			cfg.batchSize = min(n, maxBatchSize)
		}
	}
}

// WithMaxRequeues bounds how often a turn goes back on the queue while its
// session is locked by another turn.
func WithMaxRequeues(n int) WorkerOption {
	return func(cfg *workerConfig) {
		if n >= 0 {
			cfg.maxRequeues = n
		}
	}
}

// WithRequeueDelay sets the base delay before a busy turn is retried. The
// delay grows with each attempt.
func WithRequeueDelay(d time.Duration) WorkerOption {
	return func(cfg *workerConfig) {
		if d >= 0 {
			cfg.requeueDelay = d
		}
	}
}

// NewWorker builds a consumer for queue. A nil sender logs replies instead
// of sending them.
func NewWorker(handler TurnHandler, queue turnQueue, sender ReplySender, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if handler == nil {
		panic("conversation: turn handler cannot be nil")
	}
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:      2,
		receiveWait:  2 * time.Second,
		batchSize:    5,
		maxRequeues:  3,
		requeueDelay: 2 * time.Second,
		sendTimeout:  15 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	w := &Worker{handler: handler, queue: queue, sender: sender, logger: logger, cfg: cfg}
	if dn, ok := queue.(dropNotifier); ok {
		dn.setDropHandler(w.dropped)
	}
	return w
}

// Start launches the consumer goroutines. They exit when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 1; i <= w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.poll(ctx, i)
	}
}

// Wait blocks until every consumer has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) poll(ctx context.Context, id int) {
	defer w.wg.Done()
	logger := w.logger.With("worker_id", id)
	logger.Debug("turn worker started")

	backoff := time.Second
	for ctx.Err() == nil {
		batch, err := w.queue.Receive(ctx, w.cfg.batchSize, w.cfg.receiveWait)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("turn queue receive failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxPollBackoff)
			continue
		}
		backoff = time.Second
		for _, d := range batch {
			w.process(ctx, d)
		}
	}
	logger.Debug("turn worker stopped")
}

// process handles one delivery and always acknowledges it; a busy turn is
// re-sent as a new job rather than left for redelivery.
func (w *Worker) process(ctx context.Context, d delivery) {
	defer w.ack(d.Receipt)

	job, err := decodeTurnJob(d.Body)
	if err != nil {
		w.logger.Error("dropping turn job", "error", err, "msg_id", d.ID)
		return
	}
	turn := job.Turn
	w.logger.Info("turn dequeued", "job_id", job.ID, "session_id", turn.SessionID, "channel", turn.Channel, "attempt", job.Attempt)

	resp, err := w.handler.HandleTurn(ctx, turn)
	if errors.Is(err, session.ErrLocked) && job.Attempt < w.cfg.maxRequeues {
		if err := w.requeue(ctx, job); err != nil {
			w.logger.Error("requeue of busy turn failed", "error", err, "job_id", job.ID)
		}
		return
	}
	if err != nil {
		w.logger.Error("turn failed", "error", err, "job_id", job.ID, "session_id", turn.SessionID)
		w.reply(ctx, turn, fallbackReply)
		return
	}
	w.reply(ctx, turn, resp.Reply)
}

func (w *Worker) requeue(ctx context.Context, job turnJob) error {
	job.Attempt++
	env, err := job.envelope(time.Duration(job.Attempt) * w.cfg.requeueDelay)
	if err != nil {
		return err
	}
	if err := w.queue.Send(ctx, env); err != nil {
		return err
	}
	w.logger.Info("session busy, turn requeued", "job_id", job.ID, "attempt", job.Attempt, "delay", env.Delay)
	return nil
}

func (w *Worker) reply(ctx context.Context, turn TurnRequest, body string) {
	if body == "" {
		return
	}
	if w.sender == nil {
		w.logger.Warn("no reply sender configured; reply dropped", "session_id", turn.SessionID)
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.sendTimeout)
	defer cancel()
	out := OutboundReply{Channel: turn.Channel, To: turn.From, From: turn.To, Body: body}
	if err := w.sender.SendReply(sendCtx, out); err != nil {
		w.logger.Error("reply send failed", "error", err, "session_id", turn.SessionID, "channel", turn.Channel)
	}
}

// dropped answers a turn the queue lost so the customer is not left waiting.
func (w *Worker) dropped(d delivery) {
	job, err := decodeTurnJob(d.Body)
	if err != nil {
		w.logger.Error("dropped turn job is unreadable", "error", err, "msg_id", d.ID)
		return
	}
	w.logger.Warn("turn dropped by queue", "job_id", job.ID, "session_id", job.Turn.SessionID, "attempt", job.Attempt)
	w.reply(context.Background(), job.Turn, fallbackReply)
}

func (w *Worker) ack(receipt string) {
	ctx, cancel := context.WithTimeout(context.Background(), ackTimeout)
	defer cancel()
	if err := w.queue.Ack(ctx, receipt); err != nil {
		w.logger.Error("turn ack failed", "error", err)
	}
}
