package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitazok/exercise-analyzer-backend/pkg/metrics"
)

// Readiness reports whether the backend accepts jobs.
type Readiness interface {
	Started() bool
}

// StatsProvider exposes queue, worker and job counters.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]any
}

// monitor serves the operational endpoints: health, metrics and stats.
type monitor struct {
	ready   Readiness
	stats   StatsProvider
	started time.Time
	metrics http.Handler
}

func newMonitor(ready Readiness, stats StatsProvider) *monitor {
	return &monitor{
		ready:   ready,
		stats:   stats,
		started: time.Now(),
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// health answers 503 until the service has started.
func (m *monitor) health(w http.ResponseWriter, _ *http.Request) {
	if m.ready != nil && !m.ready.Started() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (m *monitor) serveStats(w http.ResponseWriter, r *http.Request) {
	out := m.stats.GetStats(r.Context())
	out["uptimeSeconds"] = int64(time.Since(m.started).Seconds())
	writeJSON(w, http.StatusOK, out)
}
