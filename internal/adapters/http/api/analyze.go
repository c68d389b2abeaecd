package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	service "github.com/vitazok/exercise-analyzer-backend/internal/app"
)

// UploadField is the multipart field holding the video.
const UploadField = "file"

var errMissingFile = errors.New(`missing multipart field "file"`)

type submitResponse struct {
	Message   string `json:"message"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// AnalyzeHandler accepts video uploads.
type AnalyzeHandler struct {
	deps     Dependencies
	maxBytes int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies, maxBytes int64) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, maxBytes: maxBytes}
}

// HandleAnalyze handles POST /analyze. The upload is streamed to the
// service without buffering the whole body in memory.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	part, err := uploadPart(r)
	if err != nil {
		writeUploadError(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = part.Close() }()

	sub, err := h.deps.Submit(r.Context(), part.FileName(), part)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
		return
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	default:
		writeUploadError(w, op, err)
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{Message: "Job submitted", JobID: sub.JobID, Duplicate: sub.Duplicate})
}

// uploadPart finds the file part of a multipart request.
func uploadPart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errMissingFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == UploadField {
			return part, nil
		}
		_ = part.Close()
	}
}

func writeUploadError(w http.ResponseWriter, op string, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrTooLarge, tooLarge))
	case errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrEmptyUpload):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
