package booking

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is used when no database is configured and in tests.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]Record)}
}

func (m *MemoryRepository) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.records[rec.Reference]; ok && !existing.CreatedAt.IsZero() {
		rec.CreatedAt = existing.CreatedAt
	}
	m.records[rec.Reference] = rec
	return nil
}

func (m *MemoryRepository) ListPending(_ context.Context, limit int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, rec := range m.records {
		if rec.Status == StatusPending {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns a stored record by reference.
func (m *MemoryRepository) Get(reference string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[reference]
	return rec, ok
}

var _ Repository = (*MemoryRepository)(nil)
