package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"message required", NewMessageRequiredError(), http.StatusBadRequest},
		{"invalid action", NewInvalidSessionActionError("action: reopen"), http.StatusBadRequest},
		{"wrapped session not found", fmt.Errorf("load: %w", NewSessionNotFoundError("s-1")), http.StatusNotFound},
		{"persistence", NewPersistenceError("append_message", stderrors.New("conn reset")), http.StatusInternalServerError},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestMessageRequiredText(t *testing.T) {
	assert.Equal(t, "Message required.", NewMessageRequiredError().Message)
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewCRMSyncFailedError(stderrors.New("zoho 503"))
	bpmnErr := ConvertToBPMNError(stdErr)

	assert.Equal(t, "CRM_SYNC_FAILED", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "CRM_SYNC_FAILED", vars["errorCode"])
	assert.Equal(t, "CRM_SYNC_FAILED", vars["originalErrorCode"])
	assert.Equal(t, "zoho 503", vars["errorDetails"])
}

func TestConvertToBPMNError_NonRetryableHasNoRetries(t *testing.T) {
	stdErr := NewPersistenceError("create_lead", stderrors.New("x"))
	stdErr.Retryable = false

	assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
	assert.Equal(t, 0, ConvertToBPMNError(NewInvalidJobInputError("leadId missing")).Retries)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CHAT", GetErrorCategory(ErrCodeMessageRequired))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodePersistenceFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchTimeout))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "CRM", GetErrorCategory(ErrCodeCRMSyncFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidJobInput))
	assert.True(t, IsRetryableErrorCode(ErrCodeListingSearchFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeLeadNotFound))
}

func TestNormalizeError(t *testing.T) {
	wrapped := fmt.Errorf("notify: %w", NewNotificationSendFailedError("sms", stderrors.New("throttled")))
	got := normalizeError(wrapped)
	assert.Equal(t, ErrCodeNotificationSendFailed, got.Code)

	plain := normalizeError(stderrors.New("nil map"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), plain.Code)
	assert.False(t, plain.Retryable)
}

func TestRemainingRetries(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: 2}}
	require.Equal(t, int32(1), remainingRetries(job, 3))

	job.Retries = 10
	assert.Equal(t, int32(3), remainingRetries(job, 3))
}
