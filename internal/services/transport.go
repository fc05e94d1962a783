package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vishwambharaRH/Resume-Analyzer/internal/models"
)

const (
	parsePath    = "/api/v1/parse"
	resultsPath  = "/api/v1/results/"
	comparePath  = "/api/v1/compare"
	healthPath   = "/api/v1/health"
	downloadPath = "/api/v1/download/"
)

// ProgressFunc receives transport progress as a percentage in 0..100.
type ProgressFunc func(percent int)

// Transport talks to the analysis backend over HTTP.
type Transport struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewTransport(baseURL string, timeout time.Duration, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// BaseURL returns the backend root the transport was configured with.
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// Upload posts the file as multipart field "file" and resolves to the job the
// backend created for it. onProgress may be nil.
func (t *Transport) Upload(ctx context.Context, name string, content []byte, onProgress ProgressFunc) (models.UploadJob, error) {
	body, contentType, err := multipartBody(name, content, nil)
	if err != nil {
		return models.UploadJob{}, fmt.Errorf("upload: %w", err)
	}

	progress := newProgressReader(body, onProgress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+parsePath, progress)
	if err != nil {
		return models.UploadJob{}, fmt.Errorf("upload: %w", err)
	}
	req.ContentLength = int64(body.Len())
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	progress.report(0)
	respBody, err := t.do(req, "upload")
	if err != nil {
		return models.UploadJob{}, err
	}
	progress.report(100)

	var raw map[string]any
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return models.UploadJob{}, fmt.Errorf("upload: invalid response: %w", err)
	}

	jobID := firstString(raw, "jobId", "job_id")
	if jobID == "" {
		return models.UploadJob{}, fmt.Errorf("upload: %w", ErrMissingJobID)
	}

	t.logger.Info("upload accepted", "job_id", jobID, "file", name, "size", len(content))

	return models.UploadJob{
		JobID:     jobID,
		File:      models.FileMeta{Name: name, SizeBytes: int64(len(content))},
		CreatedAt: time.Now(),
	}, nil
}

// FetchResult retrieves the current result document for jobID. The payload is
// returned undecoded beyond generic JSON values; its shape is not trusted.
func (t *Transport) FetchResult(ctx context.Context, jobID string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+resultsPath+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch result: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	respBody, err := t.do(req, "fetch result")
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("fetch result: invalid JSON: %w", err)
	}
	return raw, nil
}

// Compare submits the resume together with a job description and returns the
// backend's fit payload.
func (t *Transport) Compare(ctx context.Context, name string, content []byte, jobDescription string) (any, error) {
	body, contentType, err := multipartBody(name, content, map[string]string{"job_description": jobDescription})
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+comparePath, body)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	respBody, err := t.do(req, "compare")
	if err != nil {
		return nil, err
	}

	var raw any
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("compare: invalid JSON: %w", err)
	}
	return raw, nil
}

func (t *Transport) Health(ctx context.Context) (models.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+healthPath, nil)
	if err != nil {
		return models.HealthResponse{}, fmt.Errorf("health: %w", err)
	}

	respBody, err := t.do(req, "health")
	if err != nil {
		return models.HealthResponse{}, err
	}

	var health models.HealthResponse
	if err := json.Unmarshal(respBody, &health); err != nil {
		return models.HealthResponse{}, fmt.Errorf("health: invalid response: %w", err)
	}
	return health, nil
}

// DownloadURL is the opaque link to the backend's report export.
func (t *Transport) DownloadURL(jobID string) string {
	return t.baseURL + downloadPath + url.PathEscape(jobID)
}

func (t *Transport) do(req *http.Request, op string) ([]byte, error) {
	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn("request failed", "op", op, "url", req.URL.String(), "error", err)
		return nil, newConnectError(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newConnectError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		t.logger.Warn("unexpected status", "op", op, "status", resp.StatusCode)
		return nil, newStatusError(op, resp.StatusCode, errorDetail(respBody))
	}
	return respBody, nil
}

func multipartBody(name string, content []byte, fields map[string]string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	part, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// errorDetail pulls a human readable message out of an error body. Both the
// {"detail": ...} and {"error": ...} forms are understood.
func errorDetail(body []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return strings.TrimSpace(string(body))
	}
	for _, key := range []string{"detail", "error", "message"} {
		switch v := parsed[key].(type) {
		case string:
			return v
		case nil:
		default:
			b, _ := json.Marshal(v)
			return string(b)
		}
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// progressReader reports how much of the request body has been consumed.
// The HTTP client reads the body on its own goroutine.
type progressReader struct {
	r          io.Reader
	total      int64
	onProgress ProgressFunc

	mu   sync.Mutex
	read int64
	last int
}

func newProgressReader(body *bytes.Buffer, onProgress ProgressFunc) *progressReader {
	return &progressReader{
		r:          bytes.NewReader(body.Bytes()),
		total:      int64(body.Len()),
		onProgress: onProgress,
		last:       -1,
	}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.read += int64(n)
		read := p.read
		p.mu.Unlock()
		if p.total > 0 {
			p.report(int(read * 100 / p.total))
		}
	}
	return n, err
}

func (p *progressReader) report(percent int) {
	if p.onProgress == nil {
		return
	}
	p.mu.Lock()
	if percent <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = percent
	p.mu.Unlock()
	p.onProgress(percent)
}
