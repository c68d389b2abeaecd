package service

import (
	"errors"

	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/repository"
)

// Sentinel errors returned by Service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("job queue is full")
	ErrEmptyUpload  = errors.New("empty upload")

	// ErrNotFound is returned by Status for unknown or expired jobs.
	ErrNotFound = repository.ErrNotFound
)
