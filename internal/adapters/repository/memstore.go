package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
)

const (
	defaultRetention     = 24 * time.Hour
	defaultSweepInterval = time.Minute
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job

	retention     time.Duration
	sweepInterval time.Duration
	onEvict       func(model.Job)
	now           func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		jobs:          make(map[string]*model.Job),
		retention:     defaultRetention,
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Create(_ context.Context, job model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, job.ID)
	}
	job.Status = model.StatusPending
	s.jobs[job.ID] = &job
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *j, nil
}

func (s *MemoryStore) MarkRunning(_ context.Context, id string, at time.Time) error {
	return s.transition(id, func(j *model.Job) error {
		if j.Status != model.StatusPending {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, model.StatusRunning)
		}
		j.Status = model.StatusRunning
		j.StartedAt = at
		return nil
	})
}

func (s *MemoryStore) Complete(_ context.Context, id string, result model.Result, at time.Time) error {
	return s.transition(id, func(j *model.Job) error {
		if j.Status != model.StatusRunning {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, model.StatusCompleted)
		}
		j.Status = model.StatusCompleted
		j.Result = &result
		j.FinishedAt = at
		return nil
	})
}

func (s *MemoryStore) Fail(_ context.Context, id string, reason string, at time.Time) error {
	return s.transition(id, func(j *model.Job) error {
		if j.Status.Terminal() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, model.StatusFailed)
		}
		j.Status = model.StatusFailed
		j.Error = reason
		j.FinishedAt = at
		return nil
	})
}

func (s *MemoryStore) transition(id string, apply func(*model.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return apply(j)
}

func (s *MemoryStore) Counts(_ context.Context) map[model.Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[model.Status]int{
		model.StatusPending:   0,
		model.StatusRunning:   0,
		model.StatusCompleted: 0,
		model.StatusFailed:    0,
	}
	for _, j := range s.jobs {
		out[j.Status]++
	}
	return out
}

// Sweep removes finished jobs older than the retention period and returns
// how many were removed.
func (s *MemoryStore) Sweep(_ context.Context) int {
	if s.retention == 0 {
		return 0
	}
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	var evicted []model.Job
	for id, j := range s.jobs {
		if j.Status.Terminal() && j.FinishedAt.Before(cutoff) {
			evicted = append(evicted, *j)
			delete(s.jobs, id)
		}
	}
	s.mu.Unlock()

	if s.onEvict != nil {
		for _, j := range evicted {
			s.onEvict(j)
		}
	}
	return len(evicted)
}

// Start runs Sweep periodically until ctx is done.
func (s *MemoryStore) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}
