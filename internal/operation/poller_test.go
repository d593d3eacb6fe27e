package operation_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/flowctl/internal/api/apimock"
	"github.com/slok/flowctl/internal/model"
	"github.com/slok/flowctl/internal/operation"
)

// Short interval so the waits in the tests settle fast.
const testInterval = 5 * time.Millisecond

func TestPollerWait(t *testing.T) {
	tests := map[string]struct {
		config func() operation.PollerConfig
		mock   func(m *apimock.MockClient)
		expRes json.RawMessage
		expErr func(t *testing.T, err error)
	}{
		"A pending then running then completed operation resolves with its result": {
			mock: func(m *apimock.MockClient) {
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{Status: model.OperationStatusPending}, nil)
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{Status: model.OperationStatusRunning}, nil)
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{
					Status: model.OperationStatusCompleted,
					Result: json.RawMessage(`{"url":"https://files/report.pdf"}`),
				}, nil)
			},
			expRes: json.RawMessage(`{"url":"https://files/report.pdf"}`),
		},
		"A failed operation rejects with the server message verbatim": {
			mock: func(m *apimock.MockClient) {
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{Status: model.OperationStatusRunning}, nil)
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{
					Status: model.OperationStatusFailed,
					Error:  "Disk full",
				}, nil)
			},
			expErr: func(t *testing.T, err error) {
				var wfErr *model.WorkflowError
				require.ErrorAs(t, err, &wfErr)
				assert.Equal(t, "op-42", wfErr.OperationID)
				assert.Equal(t, "Disk full", err.Error())
			},
		},
		"An unknown status ends the wait": {
			mock: func(m *apimock.MockClient) {
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(nil, &model.UnknownStatusError{OperationID: "op-42", Status: "paused"})
			},
			expErr: func(t *testing.T, err error) {
				var unkErr *model.UnknownStatusError
				require.ErrorAs(t, err, &unkErr)
				assert.Equal(t, "paused", unkErr.Status)
			},
		},
		"A missing operation ends the wait": {
			mock: func(m *apimock.MockClient) {
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(nil, model.ErrNotFound)
			},
			expErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, model.ErrNotFound)
			},
		},
		"The first request failure ends the wait when no retries are allowed": {
			mock: func(m *apimock.MockClient) {
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(nil, errors.New("connection refused"))
			},
			expErr: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "connection refused")
			},
		},
		"Request failures within the retry budget don't end the wait": {
			config: func() operation.PollerConfig {
				return operation.PollerConfig{TransientRetries: 2}
			},
			mock: func(m *apimock.MockClient) {
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(nil, errors.New("connection refused"))
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(nil, errors.New("connection refused"))
				m.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{
					Status: model.OperationStatusCompleted,
					Result: json.RawMessage(`{}`),
				}, nil)
			},
			expRes: json.RawMessage(`{}`),
		},
		"A never terminal operation ends the wait at the attempt cap": {
			config: func() operation.PollerConfig {
				return operation.PollerConfig{MaxAttempts: 3}
			},
			mock: func(m *apimock.MockClient) {
				m.On("OperationStatus", mock.Anything, "op-42").Times(3).Return(&model.StatusUpdate{Status: model.OperationStatusPending}, nil)
			},
			expErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, operation.ErrMaxAttempts)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mc := &apimock.MockClient{}
			test.mock(mc)

			cfg := operation.PollerConfig{}
			if test.config != nil {
				cfg = test.config()
			}
			cfg.Status = mc
			cfg.Interval = testInterval

			poller, err := operation.NewPoller(cfg)
			require.NoError(t, err)
			assert.Equal(t, operation.StateIdle, poller.State())

			res, err := poller.Wait(context.TODO(), "op-42")

			if test.expErr != nil {
				require.Error(t, err)
				test.expErr(t, err)
				assert.Equal(t, operation.StateFailed, poller.State())
			} else {
				require.NoError(t, err)
				assert.Equal(t, test.expRes, res)
				assert.Equal(t, operation.StateSucceeded, poller.State())
			}

			mc.AssertExpectations(t)
		})
	}
}

func TestPollerWaitWithProgress(t *testing.T) {
	t.Run("Progress payloads of non-terminal updates are forwarded in order", func(t *testing.T) {
		mc := &apimock.MockClient{}
		mc.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{
			Status:   model.OperationStatusRunning,
			Progress: &model.OperationProgress{Percent: 20, Message: "rendering"},
		}, nil)
		mc.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{
			Status:   model.OperationStatusRunning,
			Progress: &model.OperationProgress{Percent: 80, Message: "uploading"},
		}, nil)
		mc.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{
			Status: model.OperationStatusCompleted,
			Result: json.RawMessage(`{}`),
		}, nil)

		poller, err := operation.NewPoller(operation.PollerConfig{Status: mc, Interval: testInterval})
		require.NoError(t, err)

		var progress []model.OperationProgress
		_, err = poller.WaitWithProgress(context.TODO(), "op-42", func(p model.OperationProgress) {
			progress = append(progress, p)
		})
		require.NoError(t, err)

		assert.Equal(t, []model.OperationProgress{
			{Percent: 20, Message: "rendering"},
			{Percent: 80, Message: "uploading"},
		}, progress)
		mc.AssertExpectations(t)
	})
}

func TestPollerCancellation(t *testing.T) {
	t.Run("Cancelling the context ends the wait between attempts", func(t *testing.T) {
		mc := &apimock.MockClient{}
		mc.On("OperationStatus", mock.Anything, "op-42").Return(&model.StatusUpdate{Status: model.OperationStatusPending}, nil)

		poller, err := operation.NewPoller(operation.PollerConfig{Status: mc, Interval: 50 * time.Millisecond})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err = poller.Wait(ctx, "op-42")

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, operation.StateFailed, poller.State())
	})
}

func TestPollerSingleUse(t *testing.T) {
	t.Run("A finished poller rejects a second wait", func(t *testing.T) {
		mc := &apimock.MockClient{}
		mc.On("OperationStatus", mock.Anything, "op-42").Once().Return(&model.StatusUpdate{
			Status: model.OperationStatusCompleted,
			Result: json.RawMessage(`{}`),
		}, nil)

		poller, err := operation.NewPoller(operation.PollerConfig{Status: mc, Interval: testInterval})
		require.NoError(t, err)

		_, err = poller.Wait(context.TODO(), "op-42")
		require.NoError(t, err)

		_, err = poller.Wait(context.TODO(), "op-42")
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotValid)
		mc.AssertExpectations(t)
	})
}

func TestPollerConfig(t *testing.T) {
	tests := map[string]struct {
		config operation.PollerConfig
		expErr bool
	}{
		"A config without a status getter is invalid": {
			config: operation.PollerConfig{},
			expErr: true,
		},
		"A negative attempt cap is invalid": {
			config: operation.PollerConfig{Status: &apimock.MockClient{}, MaxAttempts: -1},
			expErr: true,
		},
		"A negative retry budget is invalid": {
			config: operation.PollerConfig{Status: &apimock.MockClient{}, TransientRetries: -1},
			expErr: true,
		},
		"A status getter alone is enough": {
			config: operation.PollerConfig{Status: &apimock.MockClient{}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := operation.NewPoller(test.config)

			if test.expErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
