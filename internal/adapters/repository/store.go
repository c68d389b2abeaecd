// Package repository stores analysis jobs and enforces their status
// transitions.
package repository

import (
	"context"
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
)

// Store provides read/write access to job state.
type Store interface {
	// Create stores a new pending job.
	Create(ctx context.Context, job model.Job) error
	// Get returns a copy of the job. Returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (model.Job, error)
	// MarkRunning moves a pending job to running.
	MarkRunning(ctx context.Context, id string, at time.Time) error
	// Complete moves a running job to completed with its result.
	Complete(ctx context.Context, id string, result model.Result, at time.Time) error
	// Fail moves a pending or running job to failed.
	Fail(ctx context.Context, id string, reason string, at time.Time) error
	// Counts returns the number of jobs per status.
	Counts(ctx context.Context) map[model.Status]int
}
