package models

import "time"

// FileMeta describes the file submitted for analysis.
type FileMeta struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Pages     int    `json:"pages,omitempty"`
}

// UploadJob is created once the transport resolves with a job identifier.
// It is never modified afterwards.
type UploadJob struct {
	JobID     string    `json:"job_id"`
	File      FileMeta  `json:"file"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadResponse is the body of a 202 from POST /api/v1/parse.
type UploadResponse struct {
	JobID            string `json:"jobId"`
	Status           string `json:"status"`
	Message          string `json:"message"`
	OriginalFilename string `json:"originalFilename"`
	FileSize         int64  `json:"fileSize"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse mirrors the error body produced by the backend.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   int    `json:"code,omitempty"`
}
