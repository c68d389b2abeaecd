// Package model contains the job types passed between the HTTP, queue,
// worker and store layers.
package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
)

// Status is a job's position in its lifecycle.
type Status string

// Job statuses. Completed and Failed are terminal.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// InputKind tells the worker how to obtain landmarks for an upload.
type InputKind string

// Input kinds.
const (
	// InputLandmarks is an already-extracted landmark stream.
	InputLandmarks InputKind = "landmarks"
	// InputVideo must go through the external detector first.
	InputVideo InputKind = "video"
)

// KindOf picks the input kind from a file name.
func KindOf(filename string) InputKind {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jsonl", ".ndjson":
		return InputLandmarks
	default:
		return InputVideo
	}
}

// Job is one submitted video analysis.
type Job struct {
	ID         string
	Digest     string // sha256 of the upload, hex encoded
	Filename   string // client-supplied name, informational only
	UploadPath string
	Kind       InputKind
	Status     Status
	Error      string
	Result     *Result

	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Result is the payload of a completed job.
type Result struct {
	report.Report
	ProcessedFile string `json:"processed_file,omitempty"`
}
