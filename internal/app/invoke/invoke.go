// Package invoke implements the workflow invocation use case: issue the
// initial request, branch on the sync/async response shape and optionally
// wait for async completion.
package invoke

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slok/flowctl/internal/api"
	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
	"github.com/slok/flowctl/internal/operation"
)

// Invoker issues the initial workflow invocation request.
type Invoker interface {
	Invoke(ctx context.Context, kind string, payload json.RawMessage, opts api.InvokeOpts) (*model.OperationHandle, error)
}

// ServiceConfig is the configuration for the invoke service.
type ServiceConfig struct {
	Invoker Invoker
	// Status fetches async operation status. Required only when waiting.
	Status operation.StatusGetter
	// PollInterval is the delay between status requests when waiting.
	PollInterval time.Duration
	// MaxPollAttempts caps the status requests when waiting. 0 = unbounded.
	MaxPollAttempts int
	// TransientRetries tolerated consecutive status request failures.
	TransientRetries int
	Logger           log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Invoker == nil {
		return fmt.Errorf("invoker is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Invoke"})
	return nil
}

// Service handles workflow invocation business logic.
type Service struct {
	invoker          Invoker
	status           operation.StatusGetter
	pollInterval     time.Duration
	maxPollAttempts  int
	transientRetries int
	logger           log.Logger
}

// NewService creates a new invoke service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		invoker:          cfg.Invoker,
		status:           cfg.Status,
		pollInterval:     cfg.PollInterval,
		maxPollAttempts:  cfg.MaxPollAttempts,
		transientRetries: cfg.TransientRetries,
		logger:           cfg.Logger,
	}, nil
}

// Request represents the invocation request parameters.
type Request struct {
	// Kind is the workflow kind (e.g. "install-module").
	Kind string
	// Payload is the workflow input, passed through as-is.
	Payload json.RawMessage
	// Synchronous hints the server to execute inline. Advisory only.
	Synchronous bool
	// Wait makes async invocations block until the operation is terminal.
	Wait bool
	// OnProgress (optional, Wait only) receives server progress updates.
	OnProgress func(model.OperationProgress)
}

// Response is the invocation outcome.
type Response struct {
	// Handle is the operation handle the server returned.
	Handle *model.OperationHandle
	// Result is the operation result. Set for sync invocations and for async
	// invocations that were waited for.
	Result json.RawMessage
}

// Run invokes the workflow.
//
// Two invocations of the same kind and payload are two independent
// operations: no deduplication happens on this side.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Kind == "" {
		return nil, fmt.Errorf("workflow kind is required: %w", model.ErrNotValid)
	}
	if req.Wait && s.status == nil {
		return nil, fmt.Errorf("waiting requires a status getter: %w", model.ErrNotValid)
	}

	handle, err := s.invoker.Invoke(ctx, req.Kind, req.Payload, api.InvokeOpts{Synchronous: req.Synchronous})
	if err != nil {
		return nil, fmt.Errorf("could not invoke workflow: %w", err)
	}

	if handle.Mode == model.OperationModeSync {
		s.logger.Debugf("Workflow %s completed synchronously", req.Kind)
		return &Response{Handle: handle, Result: handle.Data}, nil
	}

	s.logger.Infof("Workflow %s accepted as operation %s", req.Kind, handle.OperationID)

	if !req.Wait {
		return &Response{Handle: handle}, nil
	}

	// Every wait gets its own poller, they are single use.
	poller, err := operation.NewPoller(operation.PollerConfig{
		Status:           s.status,
		Interval:         s.pollInterval,
		MaxAttempts:      s.maxPollAttempts,
		TransientRetries: s.transientRetries,
		Logger:           s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create poller: %w", err)
	}

	result, err := poller.WaitWithProgress(ctx, handle.OperationID, req.OnProgress)
	if err != nil {
		return nil, err
	}

	return &Response{Handle: handle, Result: result}, nil
}
