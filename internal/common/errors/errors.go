// Package errors provides standardized error handling for the submission pipeline.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodePayloadTooLarge    ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrCodeDocumentLoadFailed ErrorCode = "DOCUMENT_LOAD_FAILED"
	ErrCodeAssetMissing       ErrorCode = "ASSET_MISSING"
	ErrCodeTransportFailed    ErrorCode = "TRANSPORT_FAILED"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
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

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError creates a non-retryable input validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submission validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPayloadTooLargeError creates a non-retryable upload size error.
func NewPayloadTooLargeError(limitBytes int64) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadTooLarge,
		Message:   "Upload exceeds the configured size limit",
		Details:   fmt.Sprintf("limitBytes: %d", limitBytes),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDocumentLoadFailedError creates a non-retryable PDF parse error.
func NewDocumentLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDocumentLoadFailed,
		Message:   "Uploaded document is not a valid PDF",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssetMissingError creates a non-retryable decoration asset error.
func NewAssetMissingError(asset string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAssetMissing,
		Message:   "Required decoration asset was not supplied",
		Details:   fmt.Sprintf("asset: %s", asset),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTransportFailedError creates a retryable mail transport error.
func NewTransportFailedError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailed,
		Message:   "Mail delivery failed",
		Details:   fmt.Sprintf("provider: %s, error: %s", provider, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError creates a non-retryable session/login error.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Authentication required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps anything that escaped the more specific constructors.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal server error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// httpStatusMapping maps internal error codes to HTTP response codes.
var httpStatusMapping = map[ErrorCode]int{
	ErrCodeValidationFailed:   http.StatusBadRequest,
	ErrCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeDocumentLoadFailed: http.StatusBadRequest,
	ErrCodeAssetMissing:       http.StatusBadRequest,
	ErrCodeTransportFailed:    http.StatusInternalServerError,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// HTTPStatus returns the response code for an error. Unknown errors map to 500.
func HTTPStatus(err error) int {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		if status, ok := httpStatusMapping[stdErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// ClientMessage returns the message safe to echo to the caller. Transport and
// internal failures never expose details (credentials, stack traces).
func ClientMessage(err error) string {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return "Internal server error"
	}
	switch stdErr.Code {
	case ErrCodeTransportFailed, ErrCodeInternal:
		return "Failed to send email"
	default:
		return stdErr.Message
	}
}

// CodeOf extracts the error code, defaulting to INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsClientFault reports whether the error is the caller's fault (4xx).
func IsClientFault(err error) bool {
	return HTTPStatus(err) < http.StatusInternalServerError && HTTPStatus(err) >= http.StatusBadRequest
}
