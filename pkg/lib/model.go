package lib

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/flowctl/internal/api"
	"github.com/slok/flowctl/internal/model"
)

// OperationMode tells how the backend decided to execute an operation. The
// mode is fixed by the shape of the server's first response and never changes
// afterwards.
type OperationMode string

const (
	// OperationModeSync means the server executed the operation inline.
	OperationModeSync OperationMode = "sync"
	// OperationModeAsync means the server accepted the operation for
	// asynchronous execution.
	OperationModeAsync OperationMode = "async"
)

// OperationStatus represents the status of an asynchronous operation.
//
// The lifecycle is:
//
//	pending -> running -> {completed | failed}
//
// Completed and failed are terminal, no further transitions occur after
// either is observed.
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

// OperationHandle is the result of invoking a workflow.
type OperationHandle struct {
	// Mode tells whether the invocation resolved inline or asynchronously.
	Mode OperationMode
	// OperationID is the server-assigned identifier. Async mode only.
	OperationID string
	// StatusURL is the status polling URL the server announced. Async mode only.
	StatusURL string
	// Data is the already-resolved result. Sync mode only.
	Data json.RawMessage
}

// OperationProgress is the progress payload reported by the server while an
// operation is pending or running.
type OperationProgress struct {
	Percent float64
	Message string
}

// StatusUpdate is one observation of an asynchronous operation's state.
// Result is only set on completed, Error only on failed, Progress only while
// non-terminal.
type StatusUpdate struct {
	Status   OperationStatus
	Progress *OperationProgress
	Result   json.RawMessage
	Error    string
}

// Terminal returns true when the update carries a terminal status.
func (u StatusUpdate) Terminal() bool {
	return u.Status == OperationStatusCompleted || u.Status == OperationStatusFailed
}

// InvokeOpts configures a workflow invocation.
//
// Pass nil to [Client.Invoke] to use defaults (no hint).
type InvokeOpts struct {
	// Synchronous hints the server to execute inline when it can. The hint is
	// advisory: the response shape decides the actual mode.
	Synchronous bool
}

// WaitOpts configures waiting for an asynchronous operation.
//
// Pass nil to [Client.Wait] or [Client.InvokeAndWait] to use defaults.
type WaitOpts struct {
	// OnProgress receives the server's progress payload on every non-terminal
	// poll response that carries one.
	OnProgress func(OperationProgress)
}

// --- Upload types ---

// UploadStatus represents the status of a single file transfer.
type UploadStatus string

const (
	// UploadStatusPending indicates the transfer has not sent bytes yet.
	UploadStatusPending UploadStatus = "pending"
	// UploadStatusUploading indicates bytes are being transferred.
	UploadStatusUploading UploadStatus = "uploading"
	// UploadStatusProcessing indicates the server is doing post-transfer work.
	UploadStatusProcessing UploadStatus = "processing"
	// UploadStatusCompleted indicates the transfer finished successfully. Terminal.
	UploadStatusCompleted UploadStatus = "completed"
	// UploadStatusFailed indicates the transfer failed. Terminal.
	UploadStatusFailed UploadStatus = "failed"
)

// UploadFile describes a single file to transfer.
type UploadFile struct {
	// ID identifies the transfer. Optional, generated when empty.
	ID string
	// Name is the file name sent to the server. Required.
	Name string
	// SizeBytes is the total size of Content, used for percent and ETA.
	SizeBytes int64
	// Content is the file data. Read exactly once.
	Content io.Reader
}

// UploadProgress is a snapshot of one in-flight or settled file transfer.
type UploadProgress struct {
	FileID      string
	FileName    string
	TotalBytes  int64
	LoadedBytes int64
	// Percent is 0-100, monotonically non-decreasing while uploading.
	Percent float64
	Status  UploadStatus
	// SpeedBPS is the observed throughput in bytes per second.
	SpeedBPS float64
	// ETASeconds is the estimated seconds remaining, negative when unknown.
	ETASeconds float64
	// Error is set iff Status is failed.
	Error string
}

// FailedUpload pairs a failed transfer's last progress entry with its error.
type FailedUpload struct {
	Progress UploadProgress
	Err      error
}

// BatchResult is the settled outcome of [Client.UploadAll]: every transfer
// was waited for, success or failure, each set in original file order.
type BatchResult struct {
	Succeeded []FileResource
	Failed    []FailedUpload
}

// --- File types ---

// FileResource represents a file tracked by the backend.
type FileResource struct {
	ID          string
	Name        string
	Path        string
	SizeBytes   int64
	ContentType string
	CreatedAt   time.Time
}

// ShareLink is a time-limited grant to access a file without credentials.
type ShareLink struct {
	URL       string
	Token     string
	ExpiresAt time.Time
}

// PermissionAccess is the access level granted on a file.
type PermissionAccess string

const (
	PermissionAccessRead  PermissionAccess = "read"
	PermissionAccessWrite PermissionAccess = "write"
	PermissionAccessOwner PermissionAccess = "owner"
)

// --- Internal conversion helpers ---

func fromInternalHandle(h *model.OperationHandle) *OperationHandle {
	if h == nil {
		return nil
	}

	return &OperationHandle{
		Mode:        OperationMode(h.Mode),
		OperationID: h.OperationID,
		StatusURL:   h.StatusURL,
		Data:        h.Data,
	}
}

func fromInternalStatusUpdate(u *model.StatusUpdate) *StatusUpdate {
	if u == nil {
		return nil
	}

	out := &StatusUpdate{
		Status: OperationStatus(u.Status),
		Result: u.Result,
		Error:  u.Error,
	}
	if u.Progress != nil {
		out.Progress = &OperationProgress{
			Percent: u.Progress.Percent,
			Message: u.Progress.Message,
		}
	}

	return out
}

func toInternalUploadFile(f UploadFile) api.UploadFile {
	return api.UploadFile{
		ID:        f.ID,
		Name:      f.Name,
		SizeBytes: f.SizeBytes,
		Content:   f.Content,
	}
}

func toInternalUploadFiles(fs []UploadFile) []api.UploadFile {
	out := make([]api.UploadFile, len(fs))
	for i, f := range fs {
		out[i] = toInternalUploadFile(f)
	}
	return out
}

func fromInternalUploadProgress(p model.UploadProgress) UploadProgress {
	return UploadProgress{
		FileID:      p.FileID,
		FileName:    p.FileName,
		TotalBytes:  p.TotalBytes,
		LoadedBytes: p.LoadedBytes,
		Percent:     p.Percent,
		Status:      UploadStatus(p.Status),
		SpeedBPS:    p.SpeedBPS,
		ETASeconds:  p.ETASeconds,
		Error:       p.Error,
	}
}

func fromInternalUploadProgressList(ps []model.UploadProgress) []UploadProgress {
	out := make([]UploadProgress, len(ps))
	for i, p := range ps {
		out[i] = fromInternalUploadProgress(p)
	}
	return out
}

func fromInternalFileResource(r *model.FileResource) *FileResource {
	if r == nil {
		return nil
	}

	return &FileResource{
		ID:          r.ID,
		Name:        r.Name,
		Path:        r.Path,
		SizeBytes:   r.SizeBytes,
		ContentType: r.ContentType,
		CreatedAt:   r.CreatedAt,
	}
}

func fromInternalFileResourceList(rs []model.FileResource) []FileResource {
	out := make([]FileResource, len(rs))
	for i := range rs {
		out[i] = *fromInternalFileResource(&rs[i])
	}
	return out
}

func fromInternalBatchResult(r *model.BatchResult) *BatchResult {
	if r == nil {
		return nil
	}

	out := &BatchResult{
		Succeeded: fromInternalFileResourceList(r.Succeeded),
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, FailedUpload{
			Progress: fromInternalUploadProgress(f.Progress),
			Err:      f.Err,
		})
	}

	return out
}

func fromInternalShareLink(l *model.ShareLink) *ShareLink {
	if l == nil {
		return nil
	}

	return &ShareLink{
		URL:       l.URL,
		Token:     l.Token,
		ExpiresAt: l.ExpiresAt,
	}
}
