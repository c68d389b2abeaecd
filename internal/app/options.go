package service

import (
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/notify"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many upload digests are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDirs sets where uploads and annotation files are written.
func WithDirs(uploads, processed string) Option {
	return func(s *Service) {
		if uploads != "" {
			s.uploadDir = uploads
		}
		if processed != "" {
			s.processedDir = processed
		}
	}
}

// WithDetectorCommand sets the command that turns videos into landmarks.
func WithDetectorCommand(cmd string) Option {
	return func(s *Service) { s.detectorCommand = cmd }
}

// WithMinVisibility drops landmarks below v.
func WithMinVisibility(v float64) Option {
	return func(s *Service) { s.minVisibility = v }
}

// WithTopFeedback sets how many ranked entries each report keeps.
func WithTopFeedback(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topFeedback = n
		}
	}
}

// WithOverlay toggles reference skeleton overlays.
func WithOverlay(enabled bool) Option {
	return func(s *Service) { s.overlay = enabled }
}

// WithStandards replaces the built-in form standards.
func WithStandards(t *standards.Table) Option {
	return func(s *Service) { s.table = t }
}

// WithJobTimeout bounds a single analysis. Zero disables the limit.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.jobTimeout = d
		}
	}
}

// WithRetention sets how long finished jobs stay queryable. Zero keeps them.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retention = d
		}
	}
}

// WithNotifier publishes finished jobs.
func WithNotifier(p notify.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.notifier = p
		}
	}
}
