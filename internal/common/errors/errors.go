// Package errors provides the structured error model shared by the HTTP API
// and the Zeebe job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Chat turn errors
const (
	ErrCodeMessageRequired      ErrorCode = "MESSAGE_REQUIRED"
	ErrCodeInvalidSessionAction ErrorCode = "INVALID_SESSION_ACTION"
	ErrCodeSessionNotFound      ErrorCode = "SESSION_NOT_FOUND"
	ErrCodePersistenceFailed    ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeCatalogInvalid       ErrorCode = "CATALOG_INVALID"
)

// Infrastructure errors
const (
	ErrCodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout              ErrorCode = "TIMEOUT"
)

// Lead follow-up errors
const (
	ErrCodeInvalidJobInput        ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeLeadNotFound           ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeListingSearchFailed    ErrorCode = "LISTING_SEARCH_FAILED"
	ErrCodeSearchTimeout          ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound          ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCRMSyncFailed          ErrorCode = "CRM_SYNC_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewMessageRequiredError is returned for an empty chat message.
func NewMessageRequiredError() *StandardError {
	return newError(ErrCodeMessageRequired, "Message required.", "", false)
}

func NewInvalidSessionActionError(details string) *StandardError {
	return newError(ErrCodeInvalidSessionAction, "Invalid session action", details, false)
}

func NewSessionNotFoundError(sessionID string) *StandardError {
	return newError(ErrCodeSessionNotFound, "Session not found", fmt.Sprintf("sessionId: %s", sessionID), false)
}

// NewPersistenceError wraps a store failure for the named operation.
func NewPersistenceError(operation string, err error) *StandardError {
	e := newError(ErrCodePersistenceFailed, "Failed to persist chat state", fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewCatalogInvalidError(details string) *StandardError {
	return newError(ErrCodeCatalogInvalid, "Intent catalog is invalid", details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	e := newError(ErrCodeExternalServiceError, "External service call failed", fmt.Sprintf("%s: %v", service, err), true)
	e.Metadata = map[string]interface{}{"service": service}
	return e
}

func NewTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeTimeout, "Operation timed out", fmt.Sprintf("%s: %v", operation, err), true)
}

func NewInvalidJobInputError(details string) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Invalid job input", details, false)
}

func NewLeadNotFoundError(leadID string) *StandardError {
	return newError(ErrCodeLeadNotFound, "Lead not found", fmt.Sprintf("leadId: %s", leadID), false)
}

func NewListingSearchFailedError(err error) *StandardError {
	return newError(ErrCodeListingSearchFailed, "Listing search failed", err.Error(), true)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("index: %s", index), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed", fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewCRMSyncFailedError(err error) *StandardError {
	return newError(ErrCodeCRMSyncFailed, "CRM lead sync failed", err.Error(), true)
}

// ==========================
// 4. Error Conversion
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodePersistenceFailed,
		ErrCodeExternalServiceError,
		ErrCodeListingSearchFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeCRMSyncFailed:
		return 3
	case ErrCodeTimeout,
		ErrCodeSearchTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// HTTPStatus maps an error to the status code the chat API answers with.
func HTTPStatus(err error) int {
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		return http.StatusInternalServerError
	}

	switch stdErr.Code {
	case ErrCodeMessageRequired, ErrCodeInvalidSessionAction:
		return http.StatusBadRequest
	case ErrCodeSessionNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AsStandard unwraps err into a StandardError when one is in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MESSAGE") || strings.Contains(codeStr, "SESSION") || strings.Contains(codeStr, "CATALOG"):
		return "CHAT"
	case strings.Contains(codeStr, "PERSISTENCE"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CRM") || strings.Contains(codeStr, "LEAD"):
		return "CRM"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
