package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/starskyline/bareerah/internal/session"
	"github.com/starskyline/bareerah/pkg/logging"
)

func TestWorkerSendsReplies(t *testing.T) {
	queue := newScriptedQueue()
	handler := &scriptedHandler{reply: "Where should we pick you up?"}
	sender := &stubSender{}
	worker := NewWorker(handler, queue, sender, logging.Default(), WithWorkerCount(1), WithBatchSize(1), WithReceiveWait(0))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker.Start(ctx)

	queue.deliver(jobDelivery(t, "msg-1", turnJob{
		ID:   "job-1",
		Turn: TurnRequest{SessionID: "wa:+971501112233", Channel: ChannelWhatsApp, From: "+971501112233", To: "+97140000000", Text: "airport please"},
	}))

	waitFor(func() bool { return sender.count() > 0 }, time.Second, t)
	cancel()
	worker.Wait()

	last := sender.last()
	if last.Body != "Where should we pick you up?" {
		t.Fatalf("unexpected body %q", last.Body)
	}
	if last.To != "+971501112233" || last.From != "+97140000000" || last.Channel != ChannelWhatsApp {
		t.Fatalf("unexpected routing %#v", last)
	}
	if queue.ackCount() != 1 {
		t.Fatalf("expected one ack, got %d", queue.ackCount())
	}
}

func TestWorkerSendsFallbackOnError(t *testing.T) {
	queue := newScriptedQueue()
	sender := &stubSender{}
	worker := NewWorker(&scriptedHandler{err: errors.New("store down")}, queue, sender, nil)

	worker.process(context.Background(), jobDelivery(t, "msg-2", turnJob{ID: "job-2", Turn: TurnRequest{SessionID: "wa:1", Channel: ChannelWhatsApp, From: "+1"}}))

	if sender.count() != 1 || sender.last().Body != fallbackReply {
		t.Fatalf("expected fallback reply, got %#v", sender.sent)
	}
	if queue.ackCount() != 1 {
		t.Fatalf("failed turns are still acknowledged")
	}
}

func TestWorkerRequeuesBusySessionWithGrowingDelay(t *testing.T) {
	queue := newScriptedQueue()
	handler := &scriptedHandler{err: session.ErrLocked}
	worker := NewWorker(handler, queue, &stubSender{}, nil, WithMaxRequeues(2), WithRequeueDelay(time.Second))

	worker.process(context.Background(), jobDelivery(t, "msg-3", turnJob{ID: "job-3", Attempt: 1, Turn: TurnRequest{SessionID: "wa:1"}}))

	sent := queue.sentEnvelopes()
	if len(sent) != 1 {
		t.Fatalf("expected one requeue, got %d", len(sent))
	}
	env := sent[0]
	if env.Group != "wa:1" || env.Delay != 2*time.Second || env.DedupID != "job-3-2" {
		t.Fatalf("unexpected requeue envelope %#v", env)
	}
	var job turnJob
	if err := json.Unmarshal([]byte(env.Body), &job); err != nil {
		t.Fatal(err)
	}
	if job.Attempt != 2 || job.ID != "job-3" {
		t.Fatalf("unexpected requeued job %#v", job)
	}

	// Out of requeues: the customer gets the fallback instead.
	sender := &stubSender{}
	worker = NewWorker(handler, queue, sender, nil, WithMaxRequeues(2))
	worker.process(context.Background(), jobDelivery(t, "msg-4", job))
	if len(queue.sentEnvelopes()) != 1 {
		t.Fatalf("should not requeue past the limit")
	}
	if sender.count() != 1 || sender.last().Body != fallbackReply {
		t.Fatalf("expected fallback reply")
	}
}

func TestWorkerDropsMalformedJobs(t *testing.T) {
	queue := newScriptedQueue()
	handler := &scriptedHandler{}
	worker := NewWorker(handler, queue, nil, nil)

	worker.process(context.Background(), delivery{ID: "bad", Body: "{not json", Receipt: "rh-bad"})
	worker.process(context.Background(), jobDelivery(t, "anon", turnJob{ID: "job-x"}))

	if handler.count() != 0 {
		t.Fatalf("malformed jobs must not reach the handler")
	}
	if queue.ackCount() != 2 {
		t.Fatalf("malformed jobs should be acknowledged, got %d", queue.ackCount())
	}
}

func TestWorkerOptionsAreCapped(t *testing.T) {
	w := NewWorker(&scriptedHandler{}, newScriptedQueue(), nil, nil,
		WithWorkerCount(4), WithReceiveWait(time.Minute), WithBatchSize(50), WithMaxRequeues(0))
	if w.cfg.workers != 4 || w.cfg.receiveWait != maxReceiveWait || w.cfg.batchSize != maxBatchSize || w.cfg.maxRequeues != 0 {
		t.Fatalf("unexpected config %#v", w.cfg)
	}
}

func TestPublisherEnqueueTurn(t *testing.T) {
	queue := newScriptedQueue()
	publisher := NewPublisher(queue, logging.Default())
	publisher.now = func() time.Time { return time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC) }

	id, err := publisher.EnqueueTurn(context.Background(), TurnRequest{SessionID: "wa:1", Text: "hello"})
	if err != nil {
		t.Fatalf("enqueue returned error: %v", err)
	}
	sent := queue.sentEnvelopes()
	if len(sent) != 1 || sent[0].Group != "wa:1" || sent[0].Delay != 0 {
		t.Fatalf("unexpected envelopes %#v", sent)
	}
	job, err := decodeTurnJob(sent[0].Body)
	if err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	if job.ID != id || job.Turn.Text != "hello" || !job.QueuedAt.Equal(publisher.now()) {
		t.Fatalf("unexpected job %#v", job)
	}

	if _, err := publisher.EnqueueTurn(context.Background(), TurnRequest{Text: "no session"}); err == nil {
		t.Fatalf("expected error without a session id")
	}
}

func TestMemoryQueueBatchesAndDelays(t *testing.T) {
	q := NewMemoryQueue(4, nil)
	ctx := context.Background()
	for _, body := range []string{"a", "b", "c"} {
		if err := q.Send(ctx, envelope{Body: body}); err != nil {
			t.Fatal(err)
		}
	}
	batch, err := q.Receive(ctx, 2, 0)
	if err != nil || len(batch) != 2 || batch[0].Body != "a" || batch[1].Body != "b" {
		t.Fatalf("unexpected receive %#v %v", batch, err)
	}
	batch, _ = q.Receive(ctx, 10, 0)
	if len(batch) != 1 || batch[0].Body != "c" || batch[0].Receipt == "" {
		t.Fatalf("unexpected receive %#v", batch)
	}

	if err := q.Send(ctx, envelope{Body: "later", Delay: 30 * time.Millisecond}); err != nil {
		t.Fatal(err)
	}
	if batch, _ := q.Receive(ctx, 1, 5*time.Millisecond); len(batch) != 0 {
		t.Fatalf("delayed job delivered early")
	}
	batch, _ = q.Receive(ctx, 1, time.Second)
	if len(batch) != 1 || batch[0].Body != "later" {
		t.Fatalf("delayed job not delivered: %#v", batch)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := q.Receive(cctx, 1, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestMemoryQueueFullAnswersDelayedTurn(t *testing.T) {
	q := NewMemoryQueue(1, nil)
	sender := &stubSender{}
	NewWorker(&scriptedHandler{reply: "unused"}, q, sender, nil)

	ctx := context.Background()
	if err := q.Send(ctx, envelope{Body: "occupying"}); err != nil {
		t.Fatal(err)
	}
	job := turnJob{ID: "job-9", Attempt: 2, Turn: TurnRequest{SessionID: "wa:+971501112233", Channel: ChannelWhatsApp, From: "+971501112233", To: "+97140000000"}}
	env, err := job.envelope(10 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Send(ctx, env); err != nil {
		t.Fatal(err)
	}

	waitFor(func() bool { return sender.count() > 0 }, time.Second, t)
	last := sender.last()
	if last.Body != fallbackReply || last.To != "+971501112233" || last.Channel != ChannelWhatsApp {
		t.Fatalf("unexpected reply for dropped turn %#v", last)
	}
	if batch, _ := q.Receive(ctx, 5, 5*time.Millisecond); len(batch) != 1 || batch[0].Body != "occupying" {
		t.Fatalf("expected only the original job buffered, got %#v", batch)
	}
}

func jobDelivery(t *testing.T, id string, job turnJob) delivery {
	t.Helper()
	body, err := json.Marshal(job)
	if err != nil {
		t.Fatal(err)
	}
	return delivery{ID: id, Body: string(body), Receipt: "rh-" + id}
}

type scriptedHandler struct {
	mu    sync.Mutex
	reply string
	err   error
	turns []TurnRequest
}

func (h *scriptedHandler) HandleTurn(_ context.Context, req TurnRequest) (*TurnResponse, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, req)
	if h.err != nil {
		return nil, h.err
	}
	return &TurnResponse{SessionID: req.SessionID, Reply: h.reply}, nil
}

func (h *scriptedHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

type stubSender struct {
	mu   sync.Mutex
	sent []OutboundReply
}

func (s *stubSender) SendReply(_ context.Context, msg OutboundReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *stubSender) last() OutboundReply {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		return OutboundReply{}
	}
	return s.sent[len(s.sent)-1]
}

type scriptedQueue struct {
	ch    chan delivery
	mu    sync.Mutex
	acked int
	sent  []envelope
}

func newScriptedQueue() *scriptedQueue {
	return &scriptedQueue{ch: make(chan delivery, 10)}
}

func (s *scriptedQueue) deliver(d delivery) {
	s.ch <- d
}

func (s *scriptedQueue) Send(_ context.Context, env envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, env)
	return nil
}

func (s *scriptedQueue) Receive(ctx context.Context, _ int, _ time.Duration) ([]delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d := <-s.ch:
		return []delivery{d}, nil
	case <-time.After(50 * time.Millisecond):
		return nil, nil
	}
}

func (s *scriptedQueue) Ack(context.Context, string) error {
	s.mu.Lock()
	s.acked++
	s.mu.Unlock()
	return nil
}

func (s *scriptedQueue) ackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acked
}

func (s *scriptedQueue) sentEnvelopes() []envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]envelope(nil), s.sent...)
}

func waitFor(cond func() bool, timeout time.Duration, t *testing.T) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
