package detector

import "github.com/vitazok/exercise-analyzer-backend/pkg/logger"

// Option configures a Reader or Process.
type Option func(*settings)

type settings struct {
	minVisibility float64
	logger        logger.Logger
}

func defaults() settings {
	return settings{logger: logger.Nop()}
}

// WithMinVisibility drops landmarks whose visibility is below v.
// Zero keeps every landmark.
func WithMinVisibility(v float64) Option {
	return func(s *settings) {
		if v >= 0 {
			s.minVisibility = v
		}
	}
}

// WithLogger sets the logger used for skipped joints and detector stderr.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
