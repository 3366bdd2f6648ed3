package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the edge runtime.
type ErrorCode string

// Session error codes
const (
	ErrAlreadyActive      ErrorCode = "ALREADY_ACTIVE"
	ErrNotActive          ErrorCode = "NOT_ACTIVE"
	ErrNoEnabledAgent     ErrorCode = "NO_ENABLED_AGENT"
	ErrAgentOutputMissing ErrorCode = "AGENT_OUTPUT_MISSING"
)

// Collaborator error codes
const (
	ErrCaptureFailed       ErrorCode = "CAPTURE_FAILED"
	ErrPlaybackFailed      ErrorCode = "PLAYBACK_FAILED"
	ErrTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	ErrSynthesisFailed     ErrorCode = "SYNTHESIS_FAILED"
	ErrRetrievalFailed     ErrorCode = "RETRIEVAL_FAILED"
	ErrOCRFailed           ErrorCode = "OCR_FAILED"
	ErrDetectorTimeout     ErrorCode = "DETECTOR_TIMEOUT"
	ErrVisionDisabled      ErrorCode = "VISION_DISABLED"
)

// General error codes
const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"
	ErrUpstreamError   ErrorCode = "UPSTREAM_ERROR"
	ErrUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
	ErrNotConfigured   ErrorCode = "NOT_CONFIGURED"
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// AsError finds the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCode reports whether err's chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// HTTPStatusFor maps an error code onto an HTTP status for the API layer.
func HTTPStatusFor(code ErrorCode) int {
	switch code {
	case ErrAlreadyActive, ErrNotActive:
		return http.StatusConflict
	case ErrInvalidRequest:
		return http.StatusBadRequest
	case ErrVisionDisabled, ErrNotConfigured:
		return http.StatusServiceUnavailable
	case ErrUpstreamTimeout:
		return http.StatusGatewayTimeout
	case ErrUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
