package lib

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/slok/flowctl/internal/api"
	appcancel "github.com/slok/flowctl/internal/app/cancel"
	appfiles "github.com/slok/flowctl/internal/app/files"
	appinvoke "github.com/slok/flowctl/internal/app/invoke"
	appupload "github.com/slok/flowctl/internal/app/upload"
	appwatch "github.com/slok/flowctl/internal/app/watch"
	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
	"github.com/slok/flowctl/internal/upload"
)

// TokenProvider supplies the bearer token attached to every request.
type TokenProvider = api.TokenProvider

// StaticToken is a TokenProvider that always returns the same token.
type StaticToken = api.StaticToken

// Config configures the SDK client.
//
// BaseURL, TenantID and Token are required, the rest has sensible defaults.
// The configuration is immutable once the client is created: credentials and
// tenant are never mutated in place, use one client per tenant context.
type Config struct {
	// BaseURL is the BFF base URL (e.g. "https://bff.example.com").
	BaseURL string
	// TenantID is sent as the X-Tenant-ID header on every request.
	TenantID string
	// Token supplies the bearer token for every request.
	Token TokenProvider
	// HTTPClient is the HTTP client used for all requests.
	// Default: http.DefaultClient.
	HTTPClient *http.Client
	// PollInterval is the delay between status requests while waiting for an
	// asynchronous operation. Default: 1s.
	PollInterval time.Duration
	// MaxPollAttempts caps the status requests per wait. 0 (default) means
	// unbounded: only the context ends the wait of a persistently
	// non-terminal operation.
	MaxPollAttempts int
	// TransientPollRetries is how many consecutive status request failures
	// are tolerated per wait before it fails. Default 0: the first network
	// failure ends the wait.
	TransientPollRetries int
	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point for driving backend workflows and file
// transfers. Create one with [New]. A Client is safe for concurrent use.
type Client struct {
	apiClient *api.Client
	logger    log.Logger

	pollInterval         time.Duration
	maxPollAttempts      int
	transientPollRetries int
}

// New creates a new SDK client.
func New(cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	apiClient, err := api.NewClient(api.ClientConfig{
		BaseURL:    cfg.BaseURL,
		TenantID:   cfg.TenantID,
		Token:      cfg.Token,
		HTTPClient: cfg.HTTPClient,
		Logger:     cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create API client: %w", err)
	}

	return &Client{
		apiClient:            apiClient,
		logger:               cfg.Logger,
		pollInterval:         cfg.PollInterval,
		maxPollAttempts:      cfg.MaxPollAttempts,
		transientPollRetries: cfg.TransientPollRetries,
	}, nil
}

// Invoke invokes the named workflow and returns its operation handle.
//
// A handle with [OperationModeSync] already carries the result in Data. A
// handle with [OperationModeAsync] carries the operation ID to pass to
// [Client.Wait]. Two invocations of the same kind and payload are two
// independent operations, the SDK performs no deduplication.
func (c *Client) Invoke(ctx context.Context, kind string, payload json.RawMessage, opts *InvokeOpts) (*OperationHandle, error) {
	svc, err := c.newInvokeService()
	if err != nil {
		return nil, err
	}

	req := appinvoke.Request{Kind: kind, Payload: payload}
	if opts != nil {
		req.Synchronous = opts.Synchronous
	}

	resp, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalHandle(resp.Handle), nil
}

// InvokeAndWait invokes the named workflow and blocks until its result is
// available: immediately for sync invocations, after polling to a terminal
// status for async ones.
func (c *Client) InvokeAndWait(ctx context.Context, kind string, payload json.RawMessage, opts *InvokeOpts) (json.RawMessage, error) {
	return c.invokeAndWait(ctx, kind, payload, opts, nil)
}

// InvokeAndWaitWithProgress behaves like [Client.InvokeAndWait] and forwards
// the server's progress payloads while the operation runs.
func (c *Client) InvokeAndWaitWithProgress(ctx context.Context, kind string, payload json.RawMessage, opts *InvokeOpts, onProgress func(OperationProgress)) (json.RawMessage, error) {
	return c.invokeAndWait(ctx, kind, payload, opts, onProgress)
}

func (c *Client) invokeAndWait(ctx context.Context, kind string, payload json.RawMessage, opts *InvokeOpts, onProgress func(OperationProgress)) (json.RawMessage, error) {
	svc, err := c.newInvokeService()
	if err != nil {
		return nil, err
	}

	req := appinvoke.Request{Kind: kind, Payload: payload, Wait: true}
	if opts != nil {
		req.Synchronous = opts.Synchronous
	}
	if onProgress != nil {
		req.OnProgress = func(p model.OperationProgress) {
			onProgress(OperationProgress{Percent: p.Percent, Message: p.Message})
		}
	}

	resp, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return resp.Result, nil
}

// OperationStatus fetches the current status of an asynchronous operation
// without waiting.
func (c *Client) OperationStatus(ctx context.Context, operationID string) (*StatusUpdate, error) {
	svc, err := c.newWatchService()
	if err != nil {
		return nil, err
	}

	update, err := svc.Status(ctx, operationID)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalStatusUpdate(update), nil
}

// Wait polls the operation until it reaches a terminal status and returns
// the completed result.
//
// A failed operation is returned as a [WorkflowError] carrying the server's
// message verbatim, an unrecognized status as an [UnknownStatusError]. The
// wait holds no deadline of its own: bound it with the context or
// [Config].MaxPollAttempts.
func (c *Client) Wait(ctx context.Context, operationID string, opts *WaitOpts) (json.RawMessage, error) {
	svc, err := c.newWatchService()
	if err != nil {
		return nil, err
	}

	req := appwatch.Request{OperationID: operationID}
	if opts != nil && opts.OnProgress != nil {
		onProgress := opts.OnProgress
		req.OnProgress = func(p model.OperationProgress) {
			onProgress(OperationProgress{Percent: p.Percent, Message: p.Message})
		}
	}

	result, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return result, nil
}

// CancelOperation asks the backend to cancel an in-flight operation.
// Cancellation is acknowledged, not guaranteed: the operation's terminal
// status still arrives through [Client.Wait].
func (c *Client) CancelOperation(ctx context.Context, operationID string) error {
	svc, err := appcancel.NewService(appcancel.ServiceConfig{
		Canceller: c.apiClient,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	return mapError(svc.Run(ctx, appcancel.Request{OperationID: operationID}))
}

// Upload transfers a single file as one multipart request and returns the
// created resource.
//
// onProgress (optional) receives an uploading snapshot on every chunk that
// goes out, with percent, throughput and ETA, and a terminal completed or
// failed snapshot before Upload returns.
func (c *Client) Upload(ctx context.Context, file UploadFile, destinationPath string, onProgress func(UploadProgress)) (*FileResource, error) {
	svc, err := c.newUploadService()
	if err != nil {
		return nil, err
	}

	res, err := svc.Upload(ctx, toInternalUploadFile(file), destinationPath, toInternalProgressFunc(onProgress))
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalFileResource(res), nil
}

// UploadMany transfers all files concurrently and resolves with the created
// resources in original file order once every transfer succeeded.
//
// The policy is fail fast: the first transfer that fails rejects the whole
// batch with a [BatchUploadError]. In-flight siblings are not aborted, they
// keep uploading and keep ticking onBatchProgress until they settle on their
// own.
//
// onBatchProgress (optional) receives the whole batch's progress, ordered by
// original file position, on every change of any file.
func (c *Client) UploadMany(ctx context.Context, files []UploadFile, destinationPath string, onBatchProgress func([]UploadProgress)) ([]FileResource, error) {
	svc, err := c.newUploadService()
	if err != nil {
		return nil, err
	}

	res, err := svc.UploadMany(ctx, toInternalUploadFiles(files), destinationPath, toInternalBatchProgressFunc(onBatchProgress))
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalFileResourceList(res), nil
}

// UploadAll transfers all files concurrently and always waits for every
// transfer to settle, success or failure. The returned [BatchResult] gives
// callers the partial outcome instead of an opaque first error.
func (c *Client) UploadAll(ctx context.Context, files []UploadFile, destinationPath string, onBatchProgress func([]UploadProgress)) (*BatchResult, error) {
	svc, err := c.newUploadService()
	if err != nil {
		return nil, err
	}

	res, err := svc.UploadAll(ctx, toInternalUploadFiles(files), destinationPath, toInternalBatchProgressFunc(onBatchProgress))
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalBatchResult(res), nil
}

// RenameFile renames a file in place.
func (c *Client) RenameFile(ctx context.Context, fileID, newName string) (*FileResource, error) {
	svc, err := c.newFilesService()
	if err != nil {
		return nil, err
	}

	res, err := svc.Rename(ctx, fileID, newName)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalFileResource(res), nil
}

// MoveFile moves a file to another path.
func (c *Client) MoveFile(ctx context.Context, fileID, destinationPath string) (*FileResource, error) {
	svc, err := c.newFilesService()
	if err != nil {
		return nil, err
	}

	res, err := svc.Move(ctx, fileID, destinationPath)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalFileResource(res), nil
}

// CopyFile copies a file to another path and returns the new resource.
func (c *Client) CopyFile(ctx context.Context, fileID, destinationPath string) (*FileResource, error) {
	svc, err := c.newFilesService()
	if err != nil {
		return nil, err
	}

	res, err := svc.Copy(ctx, fileID, destinationPath)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalFileResource(res), nil
}

// DeleteFile deletes a file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	svc, err := c.newFilesService()
	if err != nil {
		return err
	}

	return mapError(svc.Delete(ctx, fileID))
}

// ShareFile grants time-limited anonymous access to a file. A zero ttl lets
// the server pick its default expiry.
func (c *Client) ShareFile(ctx context.Context, fileID string, ttl time.Duration) (*ShareLink, error) {
	svc, err := c.newFilesService()
	if err != nil {
		return nil, err
	}

	link, err := svc.Share(ctx, fileID, ttl)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalShareLink(link), nil
}

// SetFilePermission grants or changes a principal's access to a file.
func (c *Client) SetFilePermission(ctx context.Context, fileID, principal string, access PermissionAccess) error {
	svc, err := c.newFilesService()
	if err != nil {
		return err
	}

	return mapError(svc.SetPermission(ctx, fileID, model.PermissionUpdate{
		Principal: principal,
		Access:    model.PermissionAccess(access),
	}))
}

// --- Service factories ---

func (c *Client) newInvokeService() (*appinvoke.Service, error) {
	svc, err := appinvoke.NewService(appinvoke.ServiceConfig{
		Invoker:          c.apiClient,
		Status:           c.apiClient,
		PollInterval:     c.pollInterval,
		MaxPollAttempts:  c.maxPollAttempts,
		TransientRetries: c.transientPollRetries,
		Logger:           c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}
	return svc, nil
}

func (c *Client) newWatchService() (*appwatch.Service, error) {
	svc, err := appwatch.NewService(appwatch.ServiceConfig{
		Status:           c.apiClient,
		PollInterval:     c.pollInterval,
		MaxPollAttempts:  c.maxPollAttempts,
		TransientRetries: c.transientPollRetries,
		Logger:           c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}
	return svc, nil
}

func (c *Client) newUploadService() (*appupload.Service, error) {
	svc, err := appupload.NewService(appupload.ServiceConfig{
		Transport: c.apiClient,
		Logger:    c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}
	return svc, nil
}

func (c *Client) newFilesService() (*appfiles.Service, error) {
	svc, err := appfiles.NewService(appfiles.ServiceConfig{
		Manager: c.apiClient,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}
	return svc, nil
}

func toInternalProgressFunc(onProgress func(UploadProgress)) api.ProgressFunc {
	if onProgress == nil {
		return nil
	}
	return func(p model.UploadProgress) {
		onProgress(fromInternalUploadProgress(p))
	}
}

func toInternalBatchProgressFunc(onBatchProgress func([]UploadProgress)) upload.BatchProgressFunc {
	if onBatchProgress == nil {
		return nil
	}
	return func(ps []model.UploadProgress) {
		onBatchProgress(fromInternalUploadProgressList(ps))
	}
}
