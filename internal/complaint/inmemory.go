package complaint

import (
	"context"
	"sync"
)

// InMemoryStore keeps records in process, for local/dev use and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Insert(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of everything inserted so far.
func (s *InMemoryStore) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *InMemoryStore) Name() string { return "memory" }

func (s *InMemoryStore) Close() error { return nil }
