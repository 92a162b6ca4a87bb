package api

import (
	"sync"
	"time"

	"github.com/inkhorn/inkhorn/internal/ngram"
	"github.com/inkhorn/inkhorn/internal/trainer"
)

// ModelStore holds the model currently being served. Training swaps in a
// complete replacement under the write lock; request handlers read the
// snapshot and never mutate it, so generation stays lock-free after the
// pointer read.
type ModelStore struct {
	mu        sync.RWMutex
	model     *ngram.Model
	stats     trainer.Stats
	trainedAt time.Time
}

// NewModelStore returns a store serving the untrained placeholder model.
func NewModelStore() *ModelStore {
	return &ModelStore{model: ngram.Dumb()}
}

// Current returns the model being served. The result is never nil.
func (s *ModelStore) Current() *ngram.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Swap replaces the served model after a successful training run.
func (s *ModelStore) Swap(m *ngram.Model, stats trainer.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
	s.stats = stats
	s.trainedAt = time.Now().UTC()
}

// Snapshot returns the served model together with its training record.
func (s *ModelStore) Snapshot() (*ngram.Model, trainer.Stats, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model, s.stats, s.trainedAt
}
