package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"property-chat/internal/common/errors"
	"property-chat/internal/common/logger"
	"property-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Retry behaviour
// ==========================

func newRetryClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		RequestTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	c := newRetryClient(3)
	calls := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return int64(42), nil
	}, "create-instance")

	require.NoError(t, err)
	assert.Equal(t, int64(42), result)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_StopsOnPermanentError(t *testing.T) {
	c := newRetryClient(3)
	calls := 0

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, stderrors.New("rpc error: code = NotFound desc = process 'lead-followup' not found")
	}, "create-instance")

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeExternalServiceError, stdErr.Code)
}

func TestExecuteWithRetry_MapsTimeouts(t *testing.T) {
	c := newRetryClient(1)

	_, err := c.ExecuteWithRetry(context.Background(), func(ctx context.Context) (interface{}, error) {
		return nil, stderrors.New("context deadline exceeded")
	}, "create-instance")

	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecuteWithRetry_HonoursCancellation(t *testing.T) {
	c := newRetryClient(5)
	c.config.RetryConfig.BaseDelay = time.Hour
	c.config.RetryConfig.MaxDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, stderrors.New("connection reset by peer")
	}, "create-instance")

	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Lead follow-up
// ==========================

type mockCreator struct {
	mock.Mock
}

func (m *mockCreator) CreateInstance(ctx context.Context, bpmnProcessID string, variables map[string]interface{}) (int64, error) {
	args := m.Called(ctx, bpmnProcessID, variables)
	return args.Get(0).(int64), args.Error(1)
}

func TestLeadFollowup_StartsProcessWithLeadVariables(t *testing.T) {
	creator := new(mockCreator)
	lead := &models.Lead{
		ID:        "l-1",
		SessionID: "s-1",
		Source:    models.LeadSourceChat,
		Phone:     "9876543210",
		Context:   map[string]interface{}{"location": "gomti nagar"},
	}

	creator.On("CreateInstance", mock.Anything, "lead-followup", mock.MatchedBy(func(vars map[string]interface{}) bool {
		return vars["leadId"] == "l-1" && vars["phone"] == "9876543210" && vars["sessionId"] == "s-1"
	})).Return(int64(2251799813685249), nil)

	f := NewLeadFollowup(creator, "lead-followup", logger.NewNoOpLogger())
	require.NoError(t, f.StartLeadFollowup(context.Background(), lead))
	creator.AssertExpectations(t)
}

func TestLeadFollowup_PropagatesErrors(t *testing.T) {
	creator := new(mockCreator)
	creator.On("CreateInstance", mock.Anything, "lead-followup", mock.Anything).
		Return(int64(0), errors.NewExternalServiceError("zeebe", stderrors.New("unavailable")))

	f := NewLeadFollowup(creator, "lead-followup", logger.NewNoOpLogger())
	err := f.StartLeadFollowup(context.Background(), &models.Lead{ID: "l-2"})
	assert.Error(t, err)
}
