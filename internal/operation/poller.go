// Package operation implements the client side wait for asynchronous
// operations: a polling loop modeled as an explicit state machine instead of
// a self-rescheduling timer callback, so callers can cancel deterministically
// through the context and observe where the wait is at.
package operation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/slok/flowctl/internal/log"
	"github.com/slok/flowctl/internal/model"
)

// StatusGetter knows how to fetch the status of an asynchronous operation.
type StatusGetter interface {
	OperationStatus(ctx context.Context, operationID string) (*model.StatusUpdate, error)
}

// State is the poller's lifecycle state.
type State string

const (
	// StateIdle means the wait has not started.
	StateIdle State = "idle"
	// StatePolling means status requests are being issued.
	StatePolling State = "polling"
	// StateSucceeded means a completed status was observed. Terminal.
	StateSucceeded State = "succeeded"
	// StateFailed means the wait ended without a completed status. Terminal.
	StateFailed State = "failed"
)

// ErrMaxAttempts is returned when the configured attempt cap is reached
// before the operation turns terminal.
var ErrMaxAttempts = errors.New("max poll attempts reached")

const defaultInterval = 1 * time.Second

// PollerConfig is the configuration for a Poller.
type PollerConfig struct {
	// Status fetches operation status updates.
	Status StatusGetter
	// Interval is the delay between status requests. Default: 1s.
	Interval time.Duration
	// MaxAttempts caps the number of status requests. 0 means unbounded:
	// a persistently pending or running server is polled indefinitely and
	// only the context can end the wait.
	MaxAttempts int
	// TransientRetries is how many consecutive status request failures are
	// tolerated before the wait fails. Default 0: the first network failure
	// ends the wait even though the operation may still progress server-side.
	TransientRetries int
	// Logger for logging.
	Logger log.Logger
}

func (c *PollerConfig) defaults() error {
	if c.Status == nil {
		return fmt.Errorf("status getter is required")
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max attempts can't be negative")
	}
	if c.TransientRetries < 0 {
		return fmt.Errorf("transient retries can't be negative")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "operation.Poller"})
	return nil
}

// Poller waits for a single asynchronous operation to reach a terminal
// status. A Poller is single use: create one per wait.
type Poller struct {
	status           StatusGetter
	interval         time.Duration
	maxAttempts      int
	transientRetries int
	logger           log.Logger

	mu    sync.Mutex
	state State
}

// NewPoller creates a new poller.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Poller{
		status:           cfg.Status,
		interval:         cfg.Interval,
		maxAttempts:      cfg.MaxAttempts,
		transientRetries: cfg.TransientRetries,
		logger:           cfg.Logger,
	}, nil
}

// State returns the poller's current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == "" {
		return StateIdle
	}
	return p.state
}

func (p *Poller) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Wait polls the operation until it reaches a terminal status and returns the
// completed result.
//
// A failed status is returned as a *model.WorkflowError carrying the server's
// message verbatim, an unrecognized status as a *model.UnknownStatusError.
// Both stop the polling. The wait holds no deadline of its own: bound it with
// the context or MaxAttempts.
func (p *Poller) Wait(ctx context.Context, operationID string) (json.RawMessage, error) {
	return p.WaitWithProgress(ctx, operationID, nil)
}

// WaitWithProgress behaves like Wait and additionally forwards the progress
// payload of every non-terminal update that carries one.
func (p *Poller) WaitWithProgress(ctx context.Context, operationID string, onProgress func(model.OperationProgress)) (json.RawMessage, error) {
	if operationID == "" {
		return nil, fmt.Errorf("operation ID is required: %w", model.ErrNotValid)
	}

	p.mu.Lock()
	if p.state != "" && p.state != StateIdle {
		p.mu.Unlock()
		return nil, fmt.Errorf("poller already used (state %s): %w", p.state, model.ErrNotValid)
	}
	p.state = StatePolling
	p.mu.Unlock()

	result, err := p.loop(ctx, operationID, onProgress)
	if err != nil {
		p.setState(StateFailed)
		return nil, err
	}

	p.setState(StateSucceeded)
	return result, nil
}

func (p *Poller) loop(ctx context.Context, operationID string, onProgress func(model.OperationProgress)) (json.RawMessage, error) {
	logger := p.logger.WithValues(log.Kv{"operation-id": operationID})

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	attempts := 0
	transientFailures := 0
	for {
		attempts++
		update, err := p.status.OperationStatus(ctx, operationID)
		switch {
		case err == nil:
			transientFailures = 0

			switch update.Status {
			case model.OperationStatusCompleted:
				logger.Debugf("Operation completed after %d attempts", attempts)
				return update.Result, nil
			case model.OperationStatusFailed:
				return nil, &model.WorkflowError{OperationID: operationID, Message: update.Error}
			default:
				if onProgress != nil && update.Progress != nil {
					onProgress(*update.Progress)
				}
			}

		case isTerminalStatusErr(err):
			return nil, err

		default:
			// Transient request failure: the operation may still be
			// progressing server-side, retry only within the budget.
			transientFailures++
			if transientFailures > p.transientRetries {
				return nil, fmt.Errorf("status request failed: %w", err)
			}
			logger.Warningf("Status request failed (%d/%d tolerated): %v", transientFailures, p.transientRetries, err)
		}

		if p.maxAttempts > 0 && attempts >= p.maxAttempts {
			return nil, fmt.Errorf("operation %s not terminal after %d attempts: %w", operationID, attempts, ErrMaxAttempts)
		}

		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// isTerminalStatusErr tells errors that must stop the polling from transient
// request failures.
func isTerminalStatusErr(err error) bool {
	var unknownErr *model.UnknownStatusError
	if errors.As(err, &unknownErr) {
		return true
	}

	return errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrNotValid) || errors.Is(err, context.Canceled)
}
