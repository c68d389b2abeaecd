package worker

import (
	"time"

	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithJobTimeout bounds each analysis. Zero disables the limit.
func WithJobTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d >= 0 {
			w.timeout = d
		}
	}
}

// WithNotifier publishes every job that reaches a terminal status.
func WithNotifier(n Notifier) Option {
	return func(w *InMemoryWorker) {
		if n != nil {
			w.notifier = n
		}
	}
}
