package models

import (
	"encoding/json"
	"fmt"
)

// Error codes for the scrape lifecycle and the local API.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeBusiness   = "BUSINESS_FAILURE"
	ErrCodeTransport  = "TRANSPORT_FAILURE"

	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeBusy         = "BUSY"
	ErrCodeNoResult     = "NO_RESULT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in local API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// Only Message is ever shown to a user.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// TransportError reports that the call to the remote service did not
// produce a 2xx response.
//
// StatusCode is zero when no response arrived at all. Payload holds the
// response body, if any, for best-effort message extraction.
type TransportError struct {
	StatusCode int
	Payload    json.RawMessage
	Err        error
}

func (e *TransportError) Error() string {
	if d := e.Description(); d != "" {
		return d
	}
	return "transport failure"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Description is the transport-level summary of the failure, or "" when
// nothing is known about it.
func (e *TransportError) Description() string {
	switch {
	case e.Err != nil:
		return e.Err.Error()
	case e.StatusCode != 0:
		return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
	default:
		return ""
	}
}
