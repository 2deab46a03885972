package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
)

var sessionTracer = otel.Tracer("bareerah.session")

// ErrLocked is returned when another turn holds the session lock.
var ErrLocked = errors.New("session: locked by another turn")

// Store persists sessions between turns. Load returns nil, nil for an
// unknown id.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	ListIdle(ctx context.Context, before time.Time, limit int) ([]string, error)
}

// Locker serializes turns of one session across processes.
type Locker interface {
	Acquire(ctx context.Context, id string, ttl time.Duration) (release func(), err error)
}

// MemoryStore keeps sessions in process. Values are copied through JSON so
// callers never share a *Session with the store.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	updated  map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]byte), updated: make(map[string]time.Time)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	data, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decode(data)
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = data
	m.updated[s.ID] = s.UpdatedAt
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.updated, id)
	return nil
}

func (m *MemoryStore) ListIdle(_ context.Context, before time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, at := range m.updated {
		if at.Before(before) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return m.updated[ids[i]].Before(m.updated[ids[j]]) })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// MemoryLocker is a Locker for a single process.
type MemoryLocker struct {
	mu     sync.Mutex
	held   map[string]time.Time
	poll   time.Duration
	nowFn  func() time.Time
	waitFn func(context.Context, time.Duration) error
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time), poll: 25 * time.Millisecond, nowFn: time.Now, waitFn: wait}
}

// Acquire waits until the lock is free or ctx is done.
func (l *MemoryLocker) Acquire(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	for {
		l.mu.Lock()
		now := l.nowFn()
		if exp, ok := l.held[id]; !ok || now.After(exp) {
			expiry := now.Add(ttl)
			l.held[id] = expiry
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				if l.held[id].Equal(expiry) {
					delete(l.held, id)
				}
				l.mu.Unlock()
			}, nil
		}
		l.mu.Unlock()
		if err := l.waitFn(ctx, l.poll); err != nil {
			return nil, ErrLocked
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Locker = (*MemoryLocker)(nil)
)
