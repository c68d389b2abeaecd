// Package service wires the job store, queue, worker pool and analyzer into
// the operations the HTTP API and CLI depend on.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/mq/queue"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/mq/worker"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/notify"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/repository"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/dedupe"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
	"github.com/vitazok/exercise-analyzer-backend/pkg/metrics"
)

// Submission is the outcome of Submit.
type Submission struct {
	JobID     string
	Duplicate bool
}

// Service implements the API dependencies for the analysis backend.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    *repository.MemoryStore
	index    dedupe.Index
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	analyzer *Analyzer
	notifier notify.Publisher

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	uploadDir       string
	processedDir    string
	detectorCommand string
	minVisibility   float64
	topFeedback     int
	overlay         bool
	table           *standards.Table
	jobTimeout      time.Duration
	retention       time.Duration

	// State
	started bool
	cancel  context.CancelFunc
	now     func() time.Time

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     64,
		dedupeSize:    10_000,
		uploadDir:     "uploads",
		processedDir:  "processed",
		minVisibility: 0.5,
		topFeedback:   5,
		overlay:       true,
		jobTimeout:    10 * time.Minute,
		retention:     24 * time.Hour,
		notifier:      notify.Nop{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the working directories and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	for _, dir := range []string{s.uploadDir, s.processedDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	s.index = dedupe.NewInMemoryIndex(dedupe.WithMaxSize(s.dedupeSize))
	s.store = repository.NewMemoryStore(
		repository.WithRetention(s.retention),
		repository.WithEvictHook(s.forget),
	)
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithDropHook(s.abandon),
	)
	s.analyzer = &Analyzer{
		ProcessedDir:    s.processedDir,
		DetectorCommand: s.detectorCommand,
		MinVisibility:   s.minVisibility,
		TopFeedback:     s.topFeedback,
		Overlay:         s.overlay,
		Standards:       s.table,
		Logger:          s.logger,
	}
	s.pool = worker.NewPool(s.workerCount, s.queue, s.analyzer, s.store,
		worker.WithLogger(s.logger),
		worker.WithJobTimeout(s.jobTimeout),
		worker.WithNotifier(s.notifier),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.store.Start(runCtx)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Bool("detector", s.detectorCommand != ""),
	)
	return nil
}

// Stop lets queued jobs finish until ctx expires, then cancels the rest.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping analysis service...")

	err := s.pool.Shutdown(ctx)
	s.cancel()
	if cerr := s.notifier.Close(); cerr != nil {
		s.logger.Warn(ctx, "closing notifier", logger.Error(cerr))
	}

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
	return err
}

// Submit stores an upload and queues it for analysis. An upload identical
// to one already pending, running or completed returns that job instead.
func (s *Service) Submit(ctx context.Context, filename string, r io.Reader) (Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return Submission{}, ErrNotStarted
	}

	tmp, digest, err := s.receive(r)
	if err != nil {
		return Submission{}, err
	}

	id := uuid.NewString()
	owner, seen := s.claim(ctx, digest, id)
	if seen {
		_ = os.Remove(tmp)
		metrics.RecordJobDuplicate()
		s.logger.Info(ctx, "duplicate upload", logger.String("job_id", owner), logger.String("filename", filename))
		return Submission{JobID: owner, Duplicate: true}, nil
	}

	path := filepath.Join(s.uploadDir, id+"_"+safeName(filename))
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		s.index.Release(ctx, digest)
		return Submission{}, fmt.Errorf("store upload: %w", err)
	}

	job := model.Job{
		ID:          id,
		Digest:      digest,
		Filename:    filename,
		UploadPath:  path,
		Kind:        model.KindOf(filename),
		SubmittedAt: s.now(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		_ = os.Remove(path)
		s.index.Release(ctx, digest)
		return Submission{}, err
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		_ = s.store.Fail(ctx, id, err.Error(), s.now())
		s.index.Release(ctx, digest)
		_ = os.Remove(path)
		s.logger.Warn(ctx, "job rejected", logger.String("job_id", id), logger.Error(err))
		if errors.Is(err, queue.ErrFull) {
			return Submission{}, fmt.Errorf("%w: %d jobs waiting", ErrBackpressure, s.queue.Len(ctx))
		}
		return Submission{}, err
	}

	metrics.RecordJobSubmitted(string(job.Kind))
	s.logger.Info(ctx, "job submitted",
		logger.String("job_id", id),
		logger.String("filename", filename),
		logger.String("kind", string(job.Kind)),
	)
	return Submission{JobID: id}, nil
}

// claim resolves digest to its owning job. An owner not yet in the store is
// still being submitted and counts as a duplicate. Only a failed owner is
// replaced so the upload gets analyzed again; expired owners are released by
// the evict hook.
func (s *Service) claim(ctx context.Context, digest, id string) (string, bool) {
	owner, seen := s.index.Claim(ctx, digest, id)
	if !seen {
		return id, false
	}
	job, err := s.store.Get(ctx, owner)
	if err != nil || job.Status != model.StatusFailed {
		return owner, true
	}
	if got, ok := s.index.Transfer(ctx, digest, owner, id); !ok {
		return got, true
	}
	return id, false
}

// receive copies r into a temporary file in the upload directory while
// hashing it.
func (s *Service) receive(r io.Reader) (string, string, error) {
	f, err := os.CreateTemp(s.uploadDir, ".upload-*")
	if err != nil {
		return "", "", fmt.Errorf("create upload: %w", err)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = ErrEmptyUpload
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", "", fmt.Errorf("receive upload: %w", err)
	}
	return f.Name(), hex.EncodeToString(h.Sum(nil)), nil
}

// forget releases the digest of an expired job and deletes its files.
func (s *Service) forget(job model.Job) { //nolint:gocritic // evict hook signature
	ctx := context.Background()
	if owner, ok := s.index.Lookup(ctx, job.Digest); ok && owner == job.ID {
		s.index.Release(ctx, job.Digest)
	}
	_ = os.Remove(job.UploadPath)
	if job.Result != nil && job.Result.ProcessedFile != "" {
		_ = os.Remove(job.Result.ProcessedFile)
	}
}

const abandonedReason = "service stopped before the job was processed"

// abandon fails a job the queue could not hand to a worker during shutdown,
// so it reaches a terminal state and is swept like any other.
func (s *Service) abandon(job model.Job) { //nolint:gocritic // drop hook signature
	ctx := context.Background()
	if err := s.store.Fail(ctx, job.ID, abandonedReason, s.now()); err != nil {
		s.logger.Warn(ctx, "failing abandoned job", logger.String("job_id", job.ID), logger.Error(err))
	}
}

// Status returns the job with id.
func (s *Service) Status(ctx context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Job{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// Started reports whether Start has completed.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["workerCount"] = s.pool.Size()
	stats["uniqueUploads"] = s.index.Size()
	jobs := map[string]int{}
	for status, n := range s.store.Counts(ctx) {
		jobs[string(status)] = n
	}
	stats["jobs"] = jobs

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}

func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "upload"
	}
	return name
}
