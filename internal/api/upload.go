package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/flowctl/internal/model"
)

// UploadFile describes a single file to transfer.
type UploadFile struct {
	// ID identifies the transfer. Optional, a ULID is generated when empty.
	ID string
	// Name is the file name sent to the server.
	Name string
	// SizeBytes is the total size of Content. Required for percent and ETA.
	SizeBytes int64
	// Content is the file data. Read exactly once.
	Content io.Reader
}

// Validate validates the file descriptor.
func (f *UploadFile) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("file name is required: %w", model.ErrNotValid)
	}
	if f.Content == nil {
		return fmt.Errorf("file content is required: %w", model.ErrNotValid)
	}
	if f.SizeBytes < 0 {
		return fmt.Errorf("file size can't be negative: %w", model.ErrNotValid)
	}
	return nil
}

type fileResourceJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	SizeBytes   int64     `json:"sizeBytes"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (r *fileResourceJSON) toModel() *model.FileResource {
	return &model.FileResource{
		ID:          r.ID,
		Name:        r.Name,
		Path:        r.Path,
		SizeBytes:   r.SizeBytes,
		ContentType: r.ContentType,
		CreatedAt:   r.CreatedAt,
	}
}

// Upload transfers a single file to the BFF as one multipart request and
// returns the created resource.
//
// onProgress (optional) receives an uploading snapshot on every chunk of the
// body that goes out, and a terminal completed or failed snapshot before
// Upload returns. The transfer is one request: no chunking, no resume.
func (c *Client) Upload(ctx context.Context, file UploadFile, destinationPath string, onProgress ProgressFunc) (*model.FileResource, error) {
	return c.upload(ctx, file, destinationPath, onProgress, time.Now)
}

func (c *Client) upload(ctx context.Context, file UploadFile, destinationPath string, onProgress ProgressFunc, nowFn func() time.Time) (*model.FileResource, error) {
	if err := file.Validate(); err != nil {
		return nil, err
	}

	fileID := file.ID
	if fileID == "" {
		fileID = ulid.Make().String()
	}

	tracker := newProgressTracker(fileID, file.Name, file.SizeBytes, onProgress, nowFn)

	fail := func(err error) (*model.FileResource, error) {
		tracker.fail(err)
		return nil, &model.UploadError{FileID: fileID, FileName: file.Name, Err: err}
	}

	// The multipart body is streamed through a pipe so progress ticks while
	// bytes go out instead of after buffering the whole file.
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		err := writeUploadForm(form, file, destinationPath, tracker)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/files/upload", pr)
	if err != nil {
		pr.CloseWithError(err)
		return fail(err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(fmt.Errorf("upload request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := serverMessage(resp)
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		} else {
			msg = fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, msg)
		}
		return fail(fmt.Errorf("%s", msg))
	}

	var wire fileResourceJSON
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return fail(fmt.Errorf("could not decode created resource: %w", err))
	}

	tracker.complete()
	c.logger.Debugf("Uploaded %s (%d bytes) to %s", file.Name, file.SizeBytes, destinationPath)

	return wire.toModel(), nil
}

func writeUploadForm(form *multipart.Writer, file UploadFile, destinationPath string, tracker *progressTracker) error {
	if err := form.WriteField("path", destinationPath); err != nil {
		return fmt.Errorf("could not write path field: %w", err)
	}

	part, err := form.CreateFormFile("file", file.Name)
	if err != nil {
		return fmt.Errorf("could not create file part: %w", err)
	}

	_, err = io.Copy(part, &progressReader{r: file.Content, tracker: tracker})
	if err != nil {
		return fmt.Errorf("could not copy file content: %w", err)
	}

	return nil
}
