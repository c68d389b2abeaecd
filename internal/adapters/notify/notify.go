// Package notify publishes job completion events.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
	"github.com/vitazok/exercise-analyzer-backend/pkg/metrics"
)

// DefaultSubject prefixes every event subject.
const DefaultSubject = "exercise.jobs"

var (
	// ErrNotConnected is returned when publishing on a closed connection.
	ErrNotConnected = errors.New("notifier not connected")
	// ErrEmbeddedStart is returned when the embedded server does not come up.
	ErrEmbeddedStart = errors.New("embedded nats server failed to start")
)

// Publisher announces finished jobs.
type Publisher interface {
	Publish(ctx context.Context, job model.Job) error
	Close() error
}

// Event is the JSON body of a job event.
type Event struct {
	JobID       string        `json:"job_id"`
	Status      model.Status  `json:"status"`
	Filename    string        `json:"filename,omitempty"`
	Digest      string        `json:"digest,omitempty"`
	Error       string        `json:"error,omitempty"`
	Result      *model.Result `json:"result,omitempty"`
	SubmittedAt time.Time     `json:"submitted_at"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// EventOf builds the event for job.
func EventOf(job model.Job) Event { //nolint:gocritic // jobs travel by value
	return Event{
		JobID:       job.ID,
		Status:      job.Status,
		Filename:    job.Filename,
		Digest:      job.Digest,
		Error:       job.Error,
		Result:      job.Result,
		SubmittedAt: job.SubmittedAt,
		StartedAt:   job.StartedAt,
		FinishedAt:  job.FinishedAt,
	}
}

// Subject returns the subject a job with status is published on.
func Subject(prefix string, status model.Status) string {
	return prefix + "." + string(status)
}

// NATSPublisher publishes events as JSON on "<subject>.<status>".
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	owned   bool
	logger  logger.Logger
}

// Option configures a NATSPublisher.
type Option func(*NATSPublisher)

// WithSubject overrides DefaultSubject.
func WithSubject(s string) Option {
	return func(p *NATSPublisher) {
		if s != "" {
			p.subject = s
		}
	}
}

// WithLogger sets the publisher's logger.
func WithLogger(l logger.Logger) Option {
	return func(p *NATSPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewNATSPublisher publishes on an existing connection. Close does not
// close conn.
func NewNATSPublisher(conn *nats.Conn, opts ...Option) *NATSPublisher {
	p := &NATSPublisher{conn: conn, subject: DefaultSubject, logger: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("notify")
	return p
}

// Connect dials url and returns a publisher owning the connection.
func Connect(url string, opts ...Option) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("exercise-analyzer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	p := NewNATSPublisher(conn, opts...)
	p.owned = true
	return p, nil
}

// Publish implements the worker's Notifier.
func (p *NATSPublisher) Publish(ctx context.Context, job model.Job) error { //nolint:gocritic // jobs travel by value
	if p.conn == nil || p.conn.IsClosed() {
		metrics.RecordNotificationError()
		return ErrNotConnected
	}

	data, err := json.Marshal(EventOf(job))
	if err != nil {
		metrics.RecordNotificationError()
		return fmt.Errorf("marshal job event: %w", err)
	}
	subject := Subject(p.subject, job.Status)
	if err := p.conn.Publish(subject, data); err != nil {
		metrics.RecordNotificationError()
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	metrics.RecordNotificationPublished(string(job.Status))
	p.logger.Debug(ctx, "job event published", logger.String("subject", subject), logger.String("job_id", job.ID))
	return nil
}

// Close drains the connection when the publisher opened it.
func (p *NATSPublisher) Close() error {
	if !p.owned || p.conn == nil || p.conn.IsClosed() {
		return nil
	}
	return p.conn.Drain()
}

// Nop discards events.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, model.Job) error { return nil }

// Close implements Publisher.
func (Nop) Close() error { return nil }

// StartEmbedded runs an in-process NATS server on a random local port.
// Callers shut it down with Shutdown.
func StartEmbedded(timeout time.Duration) (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(timeout) {
		ns.Shutdown()
		return nil, ErrEmbeddedStart
	}
	return ns, nil
}
