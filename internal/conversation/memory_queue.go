package conversation

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starskyline/bareerah/pkg/logging"
)

// MemoryQueue is an in-process turnQueue for single-instance deployments.
// Delivery is at-most-once and Ack does nothing.
type MemoryQueue struct {
	ch     chan delivery
	seq    atomic.Uint64
	logger *logging.Logger

	mu     sync.Mutex
	onDrop func(delivery)
}

func NewMemoryQueue(capacity int, logger *logging.Logger) *MemoryQueue {
	if capacity <= 0 {
		capacity = 128
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryQueue{ch: make(chan delivery, capacity), logger: logger}
}

// dropNotifier is implemented by queues that can lose a job after Send has
// returned, so the consumer can still answer the customer.
type dropNotifier interface {
	setDropHandler(fn func(delivery))
}

var _ dropNotifier = (*MemoryQueue)(nil)

func (q *MemoryQueue) setDropHandler(fn func(delivery)) {
	q.mu.Lock()
	q.onDrop = fn
	q.mu.Unlock()
}

// Send buffers env. A delayed envelope is buffered once its delay passes;
// the caller does not wait for it.
func (q *MemoryQueue) Send(ctx context.Context, env envelope) error {
	d := delivery{ID: "mem-" + strconv.FormatUint(q.seq.Add(1), 10), Body: env.Body}
	d.Receipt = d.ID
	if env.Delay > 0 {
		time.AfterFunc(env.Delay, func() {
			select {
			case q.ch <- d:
			default:
				q.dropped(d)
			}
		})
		return nil
	}
	select {
	case q.ch <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive waits up to wait for the first job, then drains whatever else is
// already buffered up to max. A zero wait blocks until ctx is done.
func (q *MemoryQueue) Receive(ctx context.Context, max int, wait time.Duration) ([]delivery, error) {
	if max <= 0 {
		max = 1
	}
	var expired <-chan time.Time
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		expired = t.C
	}

	var first delivery
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-expired:
		return nil, nil
	case first = <-q.ch:
	}

	out := []delivery{first}
	for len(out) < max {
		select {
		case d := <-q.ch:
			out = append(out, d)
		default:
			return out, nil
		}
	}
	return out, nil
}

func (q *MemoryQueue) Ack(context.Context, string) error { return nil }

// dropped reports a delayed job that found the buffer full.
func (q *MemoryQueue) dropped(d delivery) {
	q.logger.Warn("memory queue full; delayed turn dropped", "msg_id", d.ID, "capacity", cap(q.ch))
	q.mu.Lock()
	fn := q.onDrop
	q.mu.Unlock()
	if fn != nil {
		fn(d)
	}
}
