// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	service "github.com/vitazok/exercise-analyzer-backend/internal/app"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Readiness
	StatsProvider

	// Submit stores an upload and queues it. Errors wrapping
	// service.ErrBackpressure mean the queue is full.
	Submit(ctx context.Context, filename string, r io.Reader) (service.Submission, error)

	// Status returns a job or an error wrapping service.ErrNotFound.
	Status(ctx context.Context, id string) (model.Job, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	monitor        *monitor
	analyzeHandler *AnalyzeHandler
	statusHandler  *StatusHandler
}

// NewServer creates a new API server with all handlers. maxUploadBytes caps
// POST /analyze bodies; zero means no limit.
func NewServer(deps Dependencies, maxUploadBytes int64) *Server {
	return &Server{
		monitor:        newMonitor(deps, deps),
		analyzeHandler: NewAnalyzeHandler(deps, maxUploadBytes),
		statusHandler:  NewStatusHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", instrument("root", handleRoot))
	mux.HandleFunc("GET /healthz", instrument("healthz", s.monitor.health))
	mux.HandleFunc("GET /metrics", s.monitor.metrics.ServeHTTP)
	mux.HandleFunc("GET /stats", instrument("stats", s.monitor.serveStats))
	mux.HandleFunc("POST /analyze", instrument("analyze", s.analyzeHandler.HandleAnalyze))
	mux.HandleFunc("GET /status/{job_id}", instrument("status", s.statusHandler.HandleStatus))
}

type messageResponse struct {
	Message string `json:"message"`
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Exercise API Backend is running"})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
