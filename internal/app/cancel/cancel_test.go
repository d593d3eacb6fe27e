package cancel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/flowctl/internal/api/apimock"
	"github.com/slok/flowctl/internal/app/cancel"
	"github.com/slok/flowctl/internal/model"
)

func TestServiceRun(t *testing.T) {
	tests := map[string]struct {
		req    cancel.Request
		mock   func(m *apimock.MockClient)
		expErr func(t *testing.T, err error)
	}{
		"A cancellation request is forwarded to the backend": {
			req: cancel.Request{OperationID: "op-42"},
			mock: func(m *apimock.MockClient) {
				m.On("CancelOperation", mock.Anything, "op-42").Once().Return(nil)
			},
		},
		"A backend rejection is surfaced": {
			req: cancel.Request{OperationID: "op-42"},
			mock: func(m *apimock.MockClient) {
				m.On("CancelOperation", mock.Anything, "op-42").Once().Return(errors.New("operation already finished"))
			},
			expErr: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "operation already finished")
			},
		},
		"A missing operation ID is rejected without a request": {
			req:  cancel.Request{},
			mock: func(m *apimock.MockClient) {},
			expErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, model.ErrNotValid)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mc := &apimock.MockClient{}
			test.mock(mc)

			svc, err := cancel.NewService(cancel.ServiceConfig{Canceller: mc})
			require.NoError(t, err)

			err = svc.Run(context.TODO(), test.req)

			if test.expErr != nil {
				require.Error(t, err)
				test.expErr(t, err)
			} else {
				require.NoError(t, err)
			}

			mc.AssertExpectations(t)
		})
	}
}
