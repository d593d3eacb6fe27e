// Package files implements the file management use cases: rename, move,
// copy, delete, share-link grants and permission updates.
package files

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
)

// Manager drives the backend's file REST verbs.
type Manager interface {
	RenameFile(ctx context.Context, fileID, newName string) (*model.FileResource, error)
	MoveFile(ctx context.Context, fileID, destinationPath string) (*model.FileResource, error)
	CopyFile(ctx context.Context, fileID, destinationPath string) (*model.FileResource, error)
	DeleteFile(ctx context.Context, fileID string) error
	CreateShareLink(ctx context.Context, fileID string, ttl time.Duration) (*model.ShareLink, error)
	UpdatePermissions(ctx context.Context, fileID string, update model.PermissionUpdate) error
}

// ServiceConfig is the configuration for the files service.
type ServiceConfig struct {
	Manager Manager
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Manager == nil {
		return fmt.Errorf("manager is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Files"})
	return nil
}

// Service handles file management business logic.
type Service struct {
	manager Manager
	logger  log.Logger
}

// NewService creates a new files service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		manager: cfg.Manager,
		logger:  cfg.Logger,
	}, nil
}

// Rename renames a file.
func (s *Service) Rename(ctx context.Context, fileID, newName string) (*model.FileResource, error) {
	res, err := s.manager.RenameFile(ctx, fileID, newName)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Renamed file %s to %s", fileID, newName)
	return res, nil
}

// Move moves a file to another path.
func (s *Service) Move(ctx context.Context, fileID, destinationPath string) (*model.FileResource, error) {
	res, err := s.manager.MoveFile(ctx, fileID, destinationPath)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Moved file %s to %s", fileID, destinationPath)
	return res, nil
}

// Copy copies a file to another path.
func (s *Service) Copy(ctx context.Context, fileID, destinationPath string) (*model.FileResource, error) {
	res, err := s.manager.CopyFile(ctx, fileID, destinationPath)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Copied file %s to %s", fileID, destinationPath)
	return res, nil
}

// Delete deletes a file.
func (s *Service) Delete(ctx context.Context, fileID string) error {
	if err := s.manager.DeleteFile(ctx, fileID); err != nil {
		return err
	}

	s.logger.Infof("Deleted file %s", fileID)
	return nil
}

// Share grants time-limited anonymous access to a file.
func (s *Service) Share(ctx context.Context, fileID string, ttl time.Duration) (*model.ShareLink, error) {
	link, err := s.manager.CreateShareLink(ctx, fileID, ttl)
	if err != nil {
		return nil, err
	}

	s.logger.Infof("Created share link for file %s", fileID)
	return link, nil
}

// SetPermission grants or changes a principal's access to a file.
func (s *Service) SetPermission(ctx context.Context, fileID string, update model.PermissionUpdate) error {
	if err := s.manager.UpdatePermissions(ctx, fileID, update); err != nil {
		return err
	}

	s.logger.Infof("Updated permissions of file %s for %s", fileID, update.Principal)
	return nil
}
