// Package upload implements the file upload use cases: single transfers and
// concurrent batches with aggregated progress.
package upload

import (
	"context"
	"fmt"

	"github.com/slok/flowctl/internal/api"
	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
	"github.com/slok/flowctl/internal/upload"
)

// ServiceConfig is the configuration for the upload service.
type ServiceConfig struct {
	Transport upload.Transport
	Logger    log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Transport == nil {
		return fmt.Errorf("transport is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Upload"})
	return nil
}

// Service handles file upload business logic.
type Service struct {
	transport   upload.Transport
	coordinator *upload.Coordinator
	logger      log.Logger
}

// NewService creates a new upload service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	coordinator, err := upload.NewCoordinator(upload.CoordinatorConfig{
		Transport: cfg.Transport,
		Logger:    cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create coordinator: %w", err)
	}

	return &Service{
		transport:   cfg.Transport,
		coordinator: coordinator,
		logger:      cfg.Logger,
	}, nil
}

// Upload transfers a single file.
func (s *Service) Upload(ctx context.Context, file api.UploadFile, destinationPath string, onProgress api.ProgressFunc) (*model.FileResource, error) {
	res, err := s.transport.Upload(ctx, file, destinationPath, onProgress)
	if err != nil {
		return nil, fmt.Errorf("could not upload file: %w", err)
	}

	return res, nil
}

// UploadMany transfers all files concurrently with fail-fast semantics: the
// first failure rejects the batch, siblings keep uploading unobserved.
func (s *Service) UploadMany(ctx context.Context, files []api.UploadFile, destinationPath string, onBatchProgress upload.BatchProgressFunc) ([]model.FileResource, error) {
	return s.coordinator.UploadMany(ctx, files, destinationPath, onBatchProgress)
}

// UploadAll transfers all files concurrently and waits for every transfer to
// settle, returning the succeeded and failed sets.
func (s *Service) UploadAll(ctx context.Context, files []api.UploadFile, destinationPath string, onBatchProgress upload.BatchProgressFunc) (*model.BatchResult, error) {
	return s.coordinator.UploadAll(ctx, files, destinationPath, onBatchProgress)
}
