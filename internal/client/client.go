// Package client talks to a running analyzer over HTTP: it uploads videos
// and polls their status.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
)

// Sentinel errors.
var (
	ErrJobFailed = errors.New("job failed")
	ErrStatus    = errors.New("unexpected response status")
)

const defaultTimeout = 30 * time.Second

// Submitted is the body of a successful POST /analyze.
type Submitted struct {
	Message   string `json:"message"`
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// Status is the body of GET /status/{job_id}.
type Status struct {
	Status model.Status  `json:"status"`
	Result *model.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Client wraps http.Client with the API base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL, e.g. "http://localhost:8000".
// The timeout applies per request; uploads of large videos may need more.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SubmitFile uploads the file at path.
func (c *Client) SubmitFile(ctx context.Context, path string) (Submitted, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided upload
	if err != nil {
		return Submitted{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = f.Close() }()
	return c.Submit(ctx, filepath.Base(path), f)
}

// Submit streams r as the multipart "file" field of POST /analyze.
func (c *Client) Submit(ctx context.Context, filename string, r io.Reader) (Submitted, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(fw, r)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", pr)
	if err != nil {
		_ = pr.Close()
		return Submitted{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out Submitted
	if err := c.do(req, &out); err != nil {
		return Submitted{}, err
	}
	return out, nil
}

// Status fetches the current status of id.
func (c *Client) Status(ctx context.Context, id string) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+id, http.NoBody)
	if err != nil {
		return Status{}, fmt.Errorf("failed to create request: %w", err)
	}
	var out Status
	if err := c.do(req, &out); err != nil {
		return Status{}, err
	}
	return out, nil
}

// Wait polls id every interval until it completes or fails. A failed job
// is returned together with an error wrapping ErrJobFailed.
func (c *Client) Wait(ctx context.Context, id string, interval time.Duration) (Status, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		st, err := c.Status(ctx, id)
		if err != nil {
			return Status{}, err
		}
		switch st.Status {
		case model.StatusCompleted:
			return st, nil
		case model.StatusFailed:
			return st, fmt.Errorf("%w: %s", ErrJobFailed, st.Error)
		}
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &e)
		return fmt.Errorf("%w: %s %s: %d %s", ErrStatus, req.Method, req.URL.Path, resp.StatusCode, e.Message)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
