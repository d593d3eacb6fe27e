package model

import (
	"encoding/json"
	"fmt"
)

// OperationMode tells how the backend decided to execute an operation.
//
// The mode is fixed at invocation time from the shape of the server's first
// response and never changes afterwards. The synchronous hint sent on invoke
// is advisory only, the response shape is authoritative.
type OperationMode string

const (
	// OperationModeSync means the server executed the operation inline and the
	// result is already available on the handle.
	OperationModeSync OperationMode = "sync"
	// OperationModeAsync means the server accepted the operation and returned
	// an identifier to poll for completion.
	OperationModeAsync OperationMode = "async"
)

// OperationStatus represents the status of an asynchronous operation.
type OperationStatus string

const (
	// OperationStatusPending indicates the operation was accepted but not started.
	OperationStatusPending OperationStatus = "pending"
	// OperationStatusRunning indicates the operation is executing.
	OperationStatusRunning OperationStatus = "running"
	// OperationStatusCompleted indicates the operation finished successfully. Terminal.
	OperationStatusCompleted OperationStatus = "completed"
	// OperationStatusFailed indicates the operation finished with an error. Terminal.
	OperationStatusFailed OperationStatus = "failed"
)

// Terminal returns true when no further status transitions can happen.
func (s OperationStatus) Terminal() bool {
	return s == OperationStatusCompleted || s == OperationStatusFailed
}

// Known returns true when the status is one of the recognized values.
func (s OperationStatus) Known() bool {
	switch s {
	case OperationStatusPending, OperationStatusRunning, OperationStatusCompleted, OperationStatusFailed:
		return true
	}
	return false
}

// OperationHandle is the result of invoking a workflow.
//
// A sync handle already carries the operation result in Data. An async handle
// carries the server-assigned operation ID and the URL to poll for status.
type OperationHandle struct {
	Mode OperationMode

	// Async mode only.
	OperationID string
	StatusURL   string

	// Sync mode only.
	Data json.RawMessage
}

// Validate validates the handle shape against its mode.
func (h *OperationHandle) Validate() error {
	switch h.Mode {
	case OperationModeAsync:
		if h.OperationID == "" {
			return fmt.Errorf("async handle requires an operation ID: %w", ErrNotValid)
		}
	case OperationModeSync:
		if h.OperationID != "" {
			return fmt.Errorf("sync handle can't carry an operation ID: %w", ErrNotValid)
		}
	default:
		return fmt.Errorf("unknown operation mode %q: %w", h.Mode, ErrNotValid)
	}

	return nil
}

// OperationProgress is the optional progress payload reported by the server
// while an operation is pending or running.
type OperationProgress struct {
	Percent float64
	Message string
}

// StatusUpdate is one observation of an asynchronous operation's state.
//
// Field presence is tied to the status: Result is only set on completed,
// Error is only set on failed, Progress is only set while non-terminal.
// Validate enforces the pairing so callers can branch on Status alone.
type StatusUpdate struct {
	Status   OperationStatus
	Progress *OperationProgress
	Result   json.RawMessage
	Error    string
}

// Terminal returns true when the update carries a terminal status.
func (u StatusUpdate) Terminal() bool {
	return u.Status.Terminal()
}

// Validate validates the status/field pairing invariants.
func (u StatusUpdate) Validate() error {
	if !u.Status.Known() {
		return fmt.Errorf("unknown operation status %q: %w", u.Status, ErrNotValid)
	}

	switch u.Status {
	case OperationStatusCompleted:
		if u.Error != "" {
			return fmt.Errorf("completed update can't carry an error: %w", ErrNotValid)
		}
	case OperationStatusFailed:
		if u.Error == "" {
			return fmt.Errorf("failed update requires an error message: %w", ErrNotValid)
		}
		if u.Result != nil {
			return fmt.Errorf("failed update can't carry a result: %w", ErrNotValid)
		}
	default:
		if u.Result != nil || u.Error != "" {
			return fmt.Errorf("non-terminal update can't carry a result or error: %w", ErrNotValid)
		}
	}

	return nil
}
