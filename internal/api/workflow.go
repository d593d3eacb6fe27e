package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/slok/flowctl/internal/model"
)

// InvokeOpts are the options for a workflow invocation.
type InvokeOpts struct {
	// Synchronous hints the server to execute inline when it can. The hint is
	// advisory: the response shape decides the actual mode.
	Synchronous bool
}

// --- JSON wire types (private, BFF contract) ---

type invokeRequestJSON struct {
	Payload     json.RawMessage `json:"payload,omitempty"`
	Synchronous bool            `json:"synchronous,omitempty"`
}

type invokeResponseJSON struct {
	// Async shape.
	OperationID string `json:"operationId"`
	StatusURL   string `json:"statusUrl"`

	// Sync shape.
	Data json.RawMessage `json:"data"`
}

func (r *invokeResponseJSON) toModel() *model.OperationHandle {
	// The presence of an operation ID is what decides the mode, not the hint
	// that was sent.
	if r.OperationID != "" {
		return &model.OperationHandle{
			Mode:        model.OperationModeAsync,
			OperationID: r.OperationID,
			StatusURL:   r.StatusURL,
		}
	}

	return &model.OperationHandle{
		Mode: model.OperationModeSync,
		Data: r.Data,
	}
}

type progressJSON struct {
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

type statusResponseJSON struct {
	Status   string          `json:"status"`
	Progress *progressJSON   `json:"progress"`
	Result   json.RawMessage `json:"result"`
	Error    string          `json:"error"`
}

func (r *statusResponseJSON) toModel() model.StatusUpdate {
	u := model.StatusUpdate{
		Status: model.OperationStatus(r.Status),
		Result: r.Result,
		Error:  r.Error,
	}

	if r.Progress != nil {
		u.Progress = &model.OperationProgress{
			Percent: r.Progress.Percent,
			Message: r.Progress.Message,
		}
	}

	return u
}

// Invoke invokes the named workflow on the BFF and returns the resulting
// operation handle.
//
// The handle's mode is decided by the response shape: a body carrying an
// operationId yields an async handle, anything else yields a sync handle with
// the already-resolved data. Non-2xx responses and malformed bodies are
// returned as a *model.InvocationError and are never retried.
func (c *Client) Invoke(ctx context.Context, kind string, payload json.RawMessage, opts InvokeOpts) (*model.OperationHandle, error) {
	if kind == "" {
		return nil, fmt.Errorf("workflow kind is required: %w", model.ErrNotValid)
	}

	reqBody, err := json.Marshal(invokeRequestJSON{
		Payload:     payload,
		Synchronous: opts.Synchronous,
	})
	if err != nil {
		return nil, fmt.Errorf("could not marshal invocation body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/workflows/"+kind, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.InvocationError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(resp),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read invocation response: %w", err)
	}

	var wire invokeResponseJSON
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &model.InvocationError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("malformed response body: %v", err),
		}
	}

	handle := wire.toModel()
	if err := handle.Validate(); err != nil {
		return nil, &model.InvocationError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("invalid operation handle: %v", err),
		}
	}

	c.logger.Debugf("Invoked workflow %s (mode: %s)", kind, handle.Mode)

	return handle, nil
}

// OperationStatus fetches the current status of an asynchronous operation.
//
// Unknown status values are returned as a *model.UnknownStatusError, updates
// violating the status/field pairing as model.ErrNotValid.
func (c *Client) OperationStatus(ctx context.Context, operationID string) (*model.StatusUpdate, error) {
	if operationID == "" {
		return nil, fmt.Errorf("operation ID is required: %w", model.ErrNotValid)
	}

	var wire statusResponseJSON
	err := c.doJSON(ctx, http.MethodGet, "/api/workflows/"+operationID+"/status", nil, &wire)
	if err != nil {
		return nil, fmt.Errorf("could not get operation status: %w", err)
	}

	update := wire.toModel()
	if !update.Status.Known() {
		return nil, &model.UnknownStatusError{OperationID: operationID, Status: wire.Status}
	}
	if err := update.Validate(); err != nil {
		return nil, fmt.Errorf("invalid status update: %w", err)
	}

	return &update, nil
}

// CancelOperation asks the BFF to cancel an in-flight operation.
//
// Cancellation is best effort: a 2xx only acknowledges the request, the
// operation's terminal status is still observed through polling.
func (c *Client) CancelOperation(ctx context.Context, operationID string) error {
	if operationID == "" {
		return fmt.Errorf("operation ID is required: %w", model.ErrNotValid)
	}

	err := c.doJSON(ctx, http.MethodPost, "/api/operations/"+operationID+"/cancel", nil, nil)
	if err != nil {
		return fmt.Errorf("could not cancel operation: %w", err)
	}

	c.logger.Infof("Requested cancellation of operation %s", operationID)

	return nil
}
