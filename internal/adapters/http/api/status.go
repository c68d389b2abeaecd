package api

import (
	"errors"
	"net/http"

	service "github.com/vitazok/exercise-analyzer-backend/internal/app"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
)

type statusResponse struct {
	Status model.Status  `json:"status"`
	Result *model.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// StatusHandler reports job progress.
type StatusHandler struct {
	deps Dependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps Dependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

// HandleStatus handles GET /status/{job_id}. Only completed jobs carry a
// result and only failed jobs carry an error.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.status"
	id := r.PathValue("job_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	job, err := h.deps.Status(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	resp := statusResponse{Status: job.Status}
	switch job.Status {
	case model.StatusCompleted:
		resp.Result = job.Result
	case model.StatusFailed:
		resp.Error = job.Error
	}
	writeJSON(w, http.StatusOK, resp)
}
