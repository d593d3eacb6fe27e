// Package cancel implements the operation cancellation use case.
package cancel

import (
	"context"
	"fmt"

	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
)

// Canceller asks the backend to cancel an in-flight operation.
type Canceller interface {
	CancelOperation(ctx context.Context, operationID string) error
}

// ServiceConfig is the configuration for the cancel service.
type ServiceConfig struct {
	Canceller Canceller
	Logger    log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Canceller == nil {
		return fmt.Errorf("canceller is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Cancel"})
	return nil
}

// Service cancels in-flight operations.
type Service struct {
	canceller Canceller
	logger    log.Logger
}

// NewService creates a new cancel service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		canceller: cfg.Canceller,
		logger:    cfg.Logger,
	}, nil
}

// Request represents the cancel request parameters.
type Request struct {
	OperationID string
}

// Run requests cancellation of the operation. Cancellation is acknowledged,
// not guaranteed: the terminal status still arrives through polling.
func (s *Service) Run(ctx context.Context, req Request) error {
	if req.OperationID == "" {
		return fmt.Errorf("operation ID is required: %w", model.ErrNotValid)
	}

	if err := s.canceller.CancelOperation(ctx, req.OperationID); err != nil {
		return fmt.Errorf("could not cancel operation: %w", err)
	}

	s.logger.Infof("Cancellation requested for operation %s", req.OperationID)

	return nil
}
