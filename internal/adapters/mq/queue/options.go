package queue

import "github.com/vitazok/exercise-analyzer-backend/internal/domain/model"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of waiting jobs.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithDropHook is called for a dequeued job that could neither be delivered
// nor put back, so its owner can mark it failed.
func WithDropHook(fn func(model.Job)) Option {
	return func(q *InMemoryQueue) { q.onDrop = fn }
}
