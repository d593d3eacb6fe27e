package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
)

// InvocationError is returned when the initial workflow invocation fails with
// a non-2xx response or a malformed body. It is never retried.
type InvocationError struct {
	StatusCode int
	Message    string
}

func (e *InvocationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invocation failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("invocation failed with status %d: %s", e.StatusCode, e.Message)
}

// WorkflowError is returned when the server reports a failed operation.
// The message is the server's error verbatim.
type WorkflowError struct {
	OperationID string
	Message     string
}

func (e *WorkflowError) Error() string { return e.Message }

// UnknownStatusError is returned when the server reports a status value
// outside the recognized set. Polling stops when it is observed.
type UnknownStatusError struct {
	OperationID string
	Status      string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("operation %s reported unknown status %q", e.OperationID, e.Status)
}

// UploadError is returned when a single file transfer fails, either with a
// network error or a non-2xx response.
type UploadError struct {
	FileID   string
	FileName string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed: %v", e.FileName, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// BatchUploadError is the fail-fast wrapper for a multi-file upload: it
// carries the first failing file's error and says nothing about the state of
// the sibling transfers.
type BatchUploadError struct {
	FileID   string
	FileName string
	Err      error
}

func (e *BatchUploadError) Error() string {
	return fmt.Sprintf("batch upload failed on %q: %v", e.FileName, e.Err)
}

func (e *BatchUploadError) Unwrap() error { return e.Err }
