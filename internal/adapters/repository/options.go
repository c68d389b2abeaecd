package repository

import (
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithRetention keeps finished jobs for d before Sweep removes them.
// Zero keeps them forever.
func WithRetention(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// WithSweepInterval sets how often Start runs Sweep.
func WithSweepInterval(d time.Duration) Option {
	return func(s *MemoryStore) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithEvictHook is called for every job removed by Sweep.
func WithEvictHook(fn func(model.Job)) Option {
	return func(s *MemoryStore) { s.onEvict = fn }
}

// WithClock sets the time source used by Sweep.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
