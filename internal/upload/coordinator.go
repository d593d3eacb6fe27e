// Package upload implements multi-file upload orchestration: concurrent
// fan-out of single-file transfers with an aggregated, consistently ordered
// progress view.
package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/slok/flowctl/internal/api"
	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
)

// Transport performs one single-file transfer.
type Transport interface {
	Upload(ctx context.Context, file api.UploadFile, destinationPath string, onProgress api.ProgressFunc) (*model.FileResource, error)
}

// BatchProgressFunc receives the whole batch's progress on every change of
// any file: a fresh slice ordered by original file position, never mutated
// after delivery. Entries can mix progress generations across files, the
// snapshot is consistent per entry, not across entries.
type BatchProgressFunc func([]model.UploadProgress)

// CoordinatorConfig is the configuration for the upload coordinator.
type CoordinatorConfig struct {
	Transport Transport
	Logger    log.Logger
}

func (c *CoordinatorConfig) defaults() error {
	if c.Transport == nil {
		return fmt.Errorf("transport is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "upload.Coordinator"})
	return nil
}

// Coordinator fans out file uploads concurrently and aggregates their
// progress into one ordered view.
type Coordinator struct {
	transport Transport
	logger    log.Logger
}

// NewCoordinator creates a new upload coordinator.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Coordinator{
		transport: cfg.Transport,
		logger:    cfg.Logger,
	}, nil
}

// UploadMany uploads all files concurrently and resolves with the created
// resources in original file order once every transfer succeeded.
//
// The policy is fail fast: the first transfer that fails rejects the whole
// batch with a *model.BatchUploadError. In-flight siblings are not aborted,
// they keep uploading on their own and keep ticking onBatchProgress until
// they settle.
func (c *Coordinator) UploadMany(ctx context.Context, files []api.UploadFile, destinationPath string, onBatchProgress BatchProgressFunc) ([]model.FileResource, error) {
	batch, err := c.start(ctx, files, destinationPath, onBatchProgress)
	if err != nil {
		return nil, err
	}

	results := make([]model.FileResource, len(files))
	for range files {
		s := <-batch.settled
		if s.err != nil {
			return nil, &model.BatchUploadError{
				FileID:   batch.files[s.idx].ID,
				FileName: batch.files[s.idx].Name,
				Err:      s.err,
			}
		}
		results[s.idx] = *s.resource
	}

	return results, nil
}

// UploadAll uploads all files concurrently and always waits for every
// transfer to settle, success or failure. The returned batch result holds
// the created resources and the failed transfers, each in original file
// order, so callers see partial progress instead of an opaque first error.
func (c *Coordinator) UploadAll(ctx context.Context, files []api.UploadFile, destinationPath string, onBatchProgress BatchProgressFunc) (*model.BatchResult, error) {
	batch, err := c.start(ctx, files, destinationPath, onBatchProgress)
	if err != nil {
		return nil, err
	}

	errs := make([]error, len(files))
	resources := make([]*model.FileResource, len(files))
	for range files {
		s := <-batch.settled
		errs[s.idx] = s.err
		resources[s.idx] = s.resource
	}

	result := &model.BatchResult{}
	for i := range files {
		if errs[i] != nil {
			result.Failed = append(result.Failed, model.FailedUpload{
				Progress: batch.snapshotOf(i),
				Err:      errs[i],
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, *resources[i])
	}

	return result, nil
}

type settledUpload struct {
	idx      int
	resource *model.FileResource
	err      error
}

// batchState tracks one uploadMany/uploadAll call. It is ephemeral: it lives
// only while the call runs and is never persisted.
type batchState struct {
	files   []api.UploadFile
	settled chan settledUpload

	mu    sync.Mutex
	slots []model.UploadProgress
}

func (b *batchState) snapshotOf(i int) model.UploadProgress {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slots[i]
}

// update replaces one file's slot and returns a copy of the whole array, so
// callers always observe a full ordered snapshot instead of a delta.
func (b *batchState) update(i int, p model.UploadProgress) []model.UploadProgress {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.slots[i] = p
	snapshot := make([]model.UploadProgress, len(b.slots))
	copy(snapshot, b.slots)
	return snapshot
}

func (c *Coordinator) start(ctx context.Context, files []api.UploadFile, destinationPath string, onBatchProgress BatchProgressFunc) (*batchState, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one file is required: %w", model.ErrNotValid)
	}

	batch := &batchState{
		files:   make([]api.UploadFile, len(files)),
		settled: make(chan settledUpload, len(files)),
		slots:   make([]model.UploadProgress, len(files)),
	}

	for i, f := range files {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("file %d: %w", i, err)
		}

		if f.ID == "" {
			f.ID = ulid.Make().String()
		}
		batch.files[i] = f
		batch.slots[i] = model.UploadProgress{
			FileID:     f.ID,
			FileName:   f.Name,
			TotalBytes: f.SizeBytes,
			Status:     model.UploadStatusPending,
			ETASeconds: model.ETAUnknown,
		}
	}

	emit := func(snapshot []model.UploadProgress) {
		if onBatchProgress != nil {
			onBatchProgress(snapshot)
		}
	}

	// Initial snapshot with every file pending.
	emit(batch.update(0, batch.snapshotOf(0)))

	c.logger.Infof("Uploading %d files to %s", len(files), destinationPath)

	// All transfers start concurrently, upload i does not wait for i-1.
	for i := range batch.files {
		i := i
		file := batch.files[i]
		go func() {
			onProgress := func(p model.UploadProgress) {
				emit(batch.update(i, p))
			}

			res, err := c.transport.Upload(ctx, file, destinationPath, onProgress)
			batch.settled <- settledUpload{idx: i, resource: res, err: err}
		}()
	}

	return batch, nil
}
