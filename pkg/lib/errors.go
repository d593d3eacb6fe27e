package lib

import (
	"errors"

	"github.com/slok/flowctl/internal/model"
)

var (
	// ErrNotFound is returned when a resource or operation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when an input is not valid.
	ErrNotValid = errors.New("not valid")
)

// Typed errors returned by the SDK. They are aliases of the internal types so
// [errors.As] keeps working across the SDK boundary.
type (
	// InvocationError is returned when the initial workflow invocation fails
	// with a non-2xx response or a malformed body.
	InvocationError = model.InvocationError
	// WorkflowError is returned when the server reports a failed operation.
	// Its message is the server's error verbatim.
	WorkflowError = model.WorkflowError
	// UnknownStatusError is returned when the server reports a status value
	// outside the recognized set.
	UnknownStatusError = model.UnknownStatusError
	// UploadError is returned when a single file transfer fails.
	UploadError = model.UploadError
	// BatchUploadError is returned by fail-fast batches, carrying the first
	// failing file's error.
	BatchUploadError = model.BatchUploadError
)

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

// mappedError keeps the original error chain while also matching the public
// sentinel on errors.Is.
type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
