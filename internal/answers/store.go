// Package answers holds the answer keys of generated question batches in
// memory until they expire. The quiz service is stateless apart from this:
// nothing survives a restart, and nothing needs to.
package answers

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/probquiz/probquiz/internal/quiz"
)

// DefaultTTL is how long a batch stays checkable after generation.
const DefaultTTL = 30 * time.Minute

type batch struct {
	items     map[string]quiz.Record
	createdAt time.Time
}

// MemoryStore is an in-memory quiz.AnswerStore with per-batch expiry.
// Expiry is absolute from creation time; reads do not extend it.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]batch
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithTTL overrides the batch lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Tests use this to control expiry.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty store with DefaultTTL unless overridden.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		batches: make(map[string]batch),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores the items under a fresh batch ID and returns it.
func (s *MemoryStore) Put(items map[string]quiz.Record) string {
	id := uuid.NewString()

	copied := make(map[string]quiz.Record, len(items))
	for k, v := range items {
		copied[k] = v
	}

	s.mu.Lock()
	s.batches[id] = batch{items: copied, createdAt: s.now()}
	s.mu.Unlock()

	return id
}

// Get returns the record for (batchID, questionID). A missing batch, an
// expired batch and a missing question all look the same to the caller.
// Expired batches encountered here are removed.
func (s *MemoryStore) Get(batchID, questionID string) (quiz.Record, bool) {
	s.mu.RLock()
	b, ok := s.batches[batchID]
	s.mu.RUnlock()

	if !ok {
		return quiz.Record{}, false
	}

	if s.expired(b) {
		s.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the ID in between. UUIDs make that collision moot, but
		// the check is free.
		if cur, ok := s.batches[batchID]; ok && s.expired(cur) {
			delete(s.batches, batchID)
		}
		s.mu.Unlock()
		return quiz.Record{}, false
	}

	rec, ok := b.items[questionID]
	return rec, ok
}

// Sweep removes every expired batch and returns how many were removed.
// Intended to run on a ticker so abandoned batches do not pile up.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, b := range s.batches {
		if s.expired(b) {
			delete(s.batches, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live batches, counting expired ones not yet
// swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.batches)
}

func (s *MemoryStore) expired(b batch) bool {
	return s.now().Sub(b.createdAt) >= s.ttl
}
