// Package apimock contains testify mocks of the BFF API client surface,
// used by the app service and orchestration tests.
package apimock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/slok/flowctl/internal/api"
	"github.com/slok/flowctl/internal/model"
)

// MockClient mocks the BFF API client.
type MockClient struct {
	mock.Mock
}

// Invoke mocks api.Client.Invoke.
func (m *MockClient) Invoke(ctx context.Context, kind string, payload json.RawMessage, opts api.InvokeOpts) (*model.OperationHandle, error) {
	args := m.Called(ctx, kind, payload, opts)
	handle, _ := args.Get(0).(*model.OperationHandle)
	return handle, args.Error(1)
}

// OperationStatus mocks api.Client.OperationStatus.
func (m *MockClient) OperationStatus(ctx context.Context, operationID string) (*model.StatusUpdate, error) {
	args := m.Called(ctx, operationID)
	update, _ := args.Get(0).(*model.StatusUpdate)
	return update, args.Error(1)
}

// CancelOperation mocks api.Client.CancelOperation.
func (m *MockClient) CancelOperation(ctx context.Context, operationID string) error {
	args := m.Called(ctx, operationID)
	return args.Error(0)
}

// Upload mocks api.Client.Upload.
func (m *MockClient) Upload(ctx context.Context, file api.UploadFile, destinationPath string, onProgress api.ProgressFunc) (*model.FileResource, error) {
	args := m.Called(ctx, file, destinationPath, onProgress)
	res, _ := args.Get(0).(*model.FileResource)
	return res, args.Error(1)
}

// RenameFile mocks api.Client.RenameFile.
func (m *MockClient) RenameFile(ctx context.Context, fileID, newName string) (*model.FileResource, error) {
	args := m.Called(ctx, fileID, newName)
	res, _ := args.Get(0).(*model.FileResource)
	return res, args.Error(1)
}

// MoveFile mocks api.Client.MoveFile.
func (m *MockClient) MoveFile(ctx context.Context, fileID, destinationPath string) (*model.FileResource, error) {
	args := m.Called(ctx, fileID, destinationPath)
	res, _ := args.Get(0).(*model.FileResource)
	return res, args.Error(1)
}

// CopyFile mocks api.Client.CopyFile.
func (m *MockClient) CopyFile(ctx context.Context, fileID, destinationPath string) (*model.FileResource, error) {
	args := m.Called(ctx, fileID, destinationPath)
	res, _ := args.Get(0).(*model.FileResource)
	return res, args.Error(1)
}

// DeleteFile mocks api.Client.DeleteFile.
func (m *MockClient) DeleteFile(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

// CreateShareLink mocks api.Client.CreateShareLink.
func (m *MockClient) CreateShareLink(ctx context.Context, fileID string, ttl time.Duration) (*model.ShareLink, error) {
	args := m.Called(ctx, fileID, ttl)
	link, _ := args.Get(0).(*model.ShareLink)
	return link, args.Error(1)
}

// UpdatePermissions mocks api.Client.UpdatePermissions.
func (m *MockClient) UpdatePermissions(ctx context.Context, fileID string, update model.PermissionUpdate) error {
	args := m.Called(ctx, fileID, update)
	return args.Error(0)
}
