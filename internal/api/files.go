package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slok/flowctl/internal/model"
)

// RenameFile renames a file in place.
func (c *Client) RenameFile(ctx context.Context, fileID, newName string) (*model.FileResource, error) {
	if fileID == "" {
		return nil, fmt.Errorf("file ID is required: %w", model.ErrNotValid)
	}
	if newName == "" {
		return nil, fmt.Errorf("new name is required: %w", model.ErrNotValid)
	}

	req := struct {
		NewName string `json:"newName"`
	}{NewName: newName}

	var wire fileResourceJSON
	err := c.doJSON(ctx, http.MethodPost, "/api/files/"+fileID+"/rename", req, &wire)
	if err != nil {
		return nil, fmt.Errorf("could not rename file: %w", err)
	}

	return wire.toModel(), nil
}

// MoveFile moves a file to another path.
func (c *Client) MoveFile(ctx context.Context, fileID, destinationPath string) (*model.FileResource, error) {
	return c.relocateFile(ctx, fileID, destinationPath, "move")
}

// CopyFile copies a file to another path and returns the new resource.
func (c *Client) CopyFile(ctx context.Context, fileID, destinationPath string) (*model.FileResource, error) {
	return c.relocateFile(ctx, fileID, destinationPath, "copy")
}

func (c *Client) relocateFile(ctx context.Context, fileID, destinationPath, action string) (*model.FileResource, error) {
	if fileID == "" {
		return nil, fmt.Errorf("file ID is required: %w", model.ErrNotValid)
	}
	if destinationPath == "" {
		return nil, fmt.Errorf("destination path is required: %w", model.ErrNotValid)
	}

	req := struct {
		DestinationPath string `json:"destinationPath"`
	}{DestinationPath: destinationPath}

	var wire fileResourceJSON
	err := c.doJSON(ctx, http.MethodPost, "/api/files/"+fileID+"/"+action, req, &wire)
	if err != nil {
		return nil, fmt.Errorf("could not %s file: %w", action, err)
	}

	return wire.toModel(), nil
}

// DeleteFile deletes a file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	if fileID == "" {
		return fmt.Errorf("file ID is required: %w", model.ErrNotValid)
	}

	err := c.doJSON(ctx, http.MethodDelete, "/api/files/"+fileID, nil, nil)
	if err != nil {
		return fmt.Errorf("could not delete file: %w", err)
	}

	return nil
}

type shareLinkJSON struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateShareLink grants time-limited anonymous access to a file.
// A zero ttl lets the server pick its default expiry.
func (c *Client) CreateShareLink(ctx context.Context, fileID string, ttl time.Duration) (*model.ShareLink, error) {
	if fileID == "" {
		return nil, fmt.Errorf("file ID is required: %w", model.ErrNotValid)
	}
	if ttl < 0 {
		return nil, fmt.Errorf("ttl can't be negative: %w", model.ErrNotValid)
	}

	req := struct {
		ExpiresInSeconds int64 `json:"expiresInSeconds,omitempty"`
	}{ExpiresInSeconds: int64(ttl.Seconds())}

	var wire shareLinkJSON
	err := c.doJSON(ctx, http.MethodPost, "/api/files/"+fileID+"/share", req, &wire)
	if err != nil {
		return nil, fmt.Errorf("could not create share link: %w", err)
	}

	return &model.ShareLink{
		URL:       wire.URL,
		Token:     wire.Token,
		ExpiresAt: wire.ExpiresAt,
	}, nil
}

// UpdatePermissions grants or changes a principal's access to a file.
func (c *Client) UpdatePermissions(ctx context.Context, fileID string, update model.PermissionUpdate) error {
	if fileID == "" {
		return fmt.Errorf("file ID is required: %w", model.ErrNotValid)
	}
	if err := update.Validate(); err != nil {
		return fmt.Errorf("invalid permission update: %w", err)
	}

	req := struct {
		Principal string `json:"principal"`
		Access    string `json:"access"`
	}{Principal: update.Principal, Access: string(update.Access)}

	err := c.doJSON(ctx, http.MethodPut, "/api/files/"+fileID+"/permissions", req, nil)
	if err != nil {
		return fmt.Errorf("could not update permissions: %w", err)
	}

	return nil
}
