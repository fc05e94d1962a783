package services

import (
	"errors"
	"fmt"
)

// Rejection reasons, checked before any network traffic happens.
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("file is empty")
	ErrInvalidContent  = errors.New("file content does not match its type")
)

var ErrMissingJobID = errors.New("response did not contain a job id")

// RejectionError is a field-level validation failure. No job is created.
type RejectionError struct {
	Field  string
	Reason string
	Err    error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

func newRejection(err error, format string, args ...any) *RejectionError {
	return &RejectionError{
		Field:  "file",
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// TransportError is a failed exchange with the backend. Status is the HTTP
// status code, or 0 when the server could not be reached at all.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Unreachable reports whether the request never got a response.
func (e *TransportError) Unreachable() bool {
	return e.Status == 0
}

func newConnectError(op string, err error) *TransportError {
	return &TransportError{
		Op:      op,
		Message: "cannot connect to server, check that the backend is running",
		Err:     err,
	}
}

func newStatusError(op string, status int, detail string) *TransportError {
	if detail == "" {
		detail = "server error occurred"
	}
	return &TransportError{
		Op:      op,
		Status:  status,
		Message: detail,
	}
}
