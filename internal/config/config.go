// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - Load layers a YAML file and EXERCISE_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps how many upload digests are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// UploadDir and ProcessedDir hold uploads and annotation output.
	UploadDir    string `koanf:"upload_dir"`
	ProcessedDir string `koanf:"processed_dir"`

	// MaxUploadMB caps the size of POST /analyze bodies.
	MaxUploadMB int `koanf:"max_upload_mb"`

	// DetectorCommand turns a video into landmark JSONL on stdout.
	// "{input}" is replaced by the upload path.
	DetectorCommand string `koanf:"detector_command"`

	// MinVisibility drops landmarks the detector is unsure about.
	MinVisibility float64 `koanf:"min_visibility"`

	// TopFeedback is how many ranked feedback entries a report keeps.
	TopFeedback int `koanf:"top_feedback"`

	// OverlayEnabled writes reference skeleton overlays.
	OverlayEnabled bool `koanf:"overlay_enabled"`

	// StandardsFile replaces the built-in form standards when set.
	StandardsFile string `koanf:"standards_file"`

	// NATSURL enables job events. "embedded" starts an in-process server.
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`

	// JobTimeoutSec bounds one analysis. Zero disables the limit.
	JobTimeoutSec int `koanf:"job_timeout_sec"`

	// JobRetentionMin is how long finished jobs stay queryable. Zero keeps them.
	JobRetentionMin int `koanf:"job_retention_min"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":8000",
		QueueSize:       64,
		WorkerCount:     runtime.NumCPU(),
		DedupeSize:      10_000,
		UploadDir:       "uploads",
		ProcessedDir:    "processed",
		MaxUploadMB:     200,
		MinVisibility:   0.5,
		TopFeedback:     5,
		OverlayEnabled:  true,
		NATSSubject:     "exercise.jobs",
		JobTimeoutSec:   600,
		JobRetentionMin: 24 * 60,
	}
}

// JobTimeout returns JobTimeoutSec as a duration.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.JobTimeoutSec) * time.Second
}

// JobRetention returns JobRetentionMin as a duration.
func (c *Config) JobRetention() time.Duration {
	return time.Duration(c.JobRetentionMin) * time.Minute
}

// MaxUploadBytes returns MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Validate checks values that would otherwise fail deep inside the service.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.MaxUploadMB <= 0:
		return fmt.Errorf("%w: max_upload_mb must be positive, got %d", ErrInvalidConfig, c.MaxUploadMB)
	case c.MinVisibility < 0 || c.MinVisibility > 1:
		return fmt.Errorf("%w: min_visibility must be within [0,1], got %g", ErrInvalidConfig, c.MinVisibility)
	case c.TopFeedback <= 0:
		return fmt.Errorf("%w: top_feedback must be positive, got %d", ErrInvalidConfig, c.TopFeedback)
	case c.UploadDir == "" || c.ProcessedDir == "":
		return fmt.Errorf("%w: upload_dir and processed_dir must not be empty", ErrInvalidConfig)
	case c.JobTimeoutSec < 0 || c.JobRetentionMin < 0:
		return fmt.Errorf("%w: job_timeout_sec and job_retention_min must not be negative", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
