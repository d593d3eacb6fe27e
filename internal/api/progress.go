package api

import (
	"io"
	"sync"
	"time"

	"github.com/slok/flowctl/internal/model"
)

// ProgressFunc receives transfer progress snapshots. Snapshots are values,
// callers can keep them without racing the transfer.
type ProgressFunc func(model.UploadProgress)

// progressTracker accounts the bytes of a single transfer and derives
// percent, throughput and ETA on each tick.
type progressTracker struct {
	fileID     string
	fileName   string
	total      int64
	onProgress ProgressFunc
	nowFn      func() time.Time

	mu      sync.Mutex
	loaded  int64
	started time.Time
}

func newProgressTracker(fileID, fileName string, total int64, onProgress ProgressFunc, nowFn func() time.Time) *progressTracker {
	if nowFn == nil {
		nowFn = time.Now
	}
	t := &progressTracker{
		fileID:     fileID,
		fileName:   fileName,
		total:      total,
		onProgress: onProgress,
		nowFn:      nowFn,
	}
	t.started = t.nowFn()
	return t
}

// add accounts n transferred bytes and emits an uploading snapshot.
func (t *progressTracker) add(n int) {
	t.mu.Lock()
	t.loaded += int64(n)
	snap := t.snapshotLocked(model.UploadStatusUploading)
	t.mu.Unlock()

	t.emit(snap)
}

// complete emits the final snapshot of a successful transfer: completed
// status and a full bar regardless of how the byte accounting rounded.
func (t *progressTracker) complete() {
	t.mu.Lock()
	t.loaded = t.total
	snap := t.snapshotLocked(model.UploadStatusCompleted)
	t.mu.Unlock()

	snap.Percent = 100
	snap.ETASeconds = 0
	t.emit(snap)
}

// fail emits the terminal snapshot of a failed transfer.
func (t *progressTracker) fail(err error) {
	t.mu.Lock()
	snap := t.snapshotLocked(model.UploadStatusFailed)
	t.mu.Unlock()

	snap.Error = err.Error()
	t.emit(snap)
}

func (t *progressTracker) emit(snap model.UploadProgress) {
	if t.onProgress != nil {
		t.onProgress(snap)
	}
}

func (t *progressTracker) snapshotLocked(status model.UploadStatus) model.UploadProgress {
	snap := model.UploadProgress{
		FileID:      t.fileID,
		FileName:    t.fileName,
		TotalBytes:  t.total,
		LoadedBytes: t.loaded,
		Status:      status,
		ETASeconds:  model.ETAUnknown,
	}

	if t.total > 0 {
		snap.Percent = float64(t.loaded) / float64(t.total) * 100
	}

	// Throughput needs elapsed wall time, a zero elapsed tick keeps speed and
	// ETA unknown instead of dividing by zero.
	elapsed := t.nowFn().Sub(t.started).Seconds()
	if elapsed > 0 {
		snap.SpeedBPS = float64(t.loaded) / elapsed
	}
	if snap.SpeedBPS > 0 {
		snap.ETASeconds = float64(t.total-t.loaded) / snap.SpeedBPS
	}

	return snap
}

// progressReader wraps the transfer body so every read of the multipart
// stream ticks the tracker.
type progressReader struct {
	r       io.Reader
	tracker *progressTracker
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.tracker.add(n)
	}
	return n, err
}
