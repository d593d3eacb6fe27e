// Package watch implements the wait-for-operation use case over an existing
// operation handle.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
	"github.com/slok/flowctl/internal/operation"
)

// ServiceConfig is the configuration for the watch service.
type ServiceConfig struct {
	Status operation.StatusGetter
	// PollInterval is the delay between status requests.
	PollInterval time.Duration
	// MaxPollAttempts caps the status requests. 0 = unbounded.
	MaxPollAttempts int
	// TransientRetries tolerated consecutive status request failures.
	TransientRetries int
	Logger           log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Status == nil {
		return fmt.Errorf("status getter is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Watch"})
	return nil
}

// Service waits for asynchronous operations.
type Service struct {
	status           operation.StatusGetter
	pollInterval     time.Duration
	maxPollAttempts  int
	transientRetries int
	logger           log.Logger
}

// NewService creates a new watch service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		status:           cfg.Status,
		pollInterval:     cfg.PollInterval,
		maxPollAttempts:  cfg.MaxPollAttempts,
		transientRetries: cfg.TransientRetries,
		logger:           cfg.Logger,
	}, nil
}

// Request represents the watch request parameters.
type Request struct {
	OperationID string
	// OnProgress (optional) receives server progress updates.
	OnProgress func(model.OperationProgress)
}

// Status fetches the operation status once, without waiting.
func (s *Service) Status(ctx context.Context, operationID string) (*model.StatusUpdate, error) {
	if operationID == "" {
		return nil, fmt.Errorf("operation ID is required: %w", model.ErrNotValid)
	}

	return s.status.OperationStatus(ctx, operationID)
}

// Run waits for the operation to reach a terminal status and returns its
// result.
func (s *Service) Run(ctx context.Context, req Request) (json.RawMessage, error) {
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

	return poller.WaitWithProgress(ctx, req.OperationID, req.OnProgress)
}
