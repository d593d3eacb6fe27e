package model

// UploadStatus represents the status of a single file transfer.
//
// The transfer lifecycle is:
//
//	pending -> uploading -> {completed | failed}
//
// Processing is an optional server-driven state for post-transfer work
// (e.g. scanning), reported through the same progress channel when the
// backend chooses to report it.
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

// UploadProgress is a snapshot of one in-flight or settled file transfer.
type UploadProgress struct {
	// FileID is a client-generated identifier, stable for the transfer's lifetime.
	FileID   string
	FileName string

	TotalBytes  int64
	LoadedBytes int64
	// Percent is LoadedBytes over TotalBytes, 0-100. Monotonically
	// non-decreasing while the transfer is uploading.
	Percent float64

	Status UploadStatus

	// SpeedBPS is the observed throughput in bytes per second. Zero before
	// the first progress tick.
	SpeedBPS float64
	// ETASeconds is the estimated seconds remaining derived from SpeedBPS.
	// Negative when unknown (no throughput observed yet).
	ETASeconds float64

	// Error is set iff Status is failed.
	Error string
}

// ETAUnknown is the ETASeconds value used when throughput is not known yet.
const ETAUnknown = -1

// FailedUpload pairs a failed transfer's progress entry with its error.
type FailedUpload struct {
	Progress UploadProgress
	Err      error
}

// BatchResult is the settled outcome of a multi-file upload where every
// transfer was waited for, success or failure.
type BatchResult struct {
	// Succeeded holds the created resources of the transfers that resolved,
	// in original file order.
	Succeeded []FileResource
	// Failed holds the transfers that rejected, in original file order.
	Failed []FailedUpload
}
