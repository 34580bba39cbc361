package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go"
)

// ErrorType groups provider failures for logging and analytics.
type ErrorType string

const (
	ErrorAuth       ErrorType = "auth_error"
	ErrorRateLimit  ErrorType = "rate_limit"
	ErrorBadRequest ErrorType = "bad_request"
	ErrorServer     ErrorType = "server_error"
	ErrorNetwork    ErrorType = "network_error"
	ErrorUnknown    ErrorType = "unknown_error"
)

var ErrInvalidResponse = errors.New("invalid response format")

// APIError is a classified provider failure.
type APIError struct {
	Type    ErrorType
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt could succeed.
func (e *APIError) Retryable() bool {
	return e.Type != ErrorAuth && e.Type != ErrorBadRequest
}

// classify turns an SDK or transport error into an *APIError.
func classify(provider string, err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		msg := sdkErr.Message
		if msg == "" {
			msg = fmt.Sprintf("%s API request failed with status %d", provider, sdkErr.StatusCode)
		}
		return &APIError{Type: typeForStatus(sdkErr.StatusCode), Status: sdkErr.StatusCode, Message: msg, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Type: ErrorNetwork, Message: err.Error(), Err: err}
	}

	return &APIError{Type: ErrorUnknown, Message: err.Error(), Err: err}
}

func typeForStatus(status int) ErrorType {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorAuth
	case status == http.StatusTooManyRequests:
		return ErrorRateLimit
	case status == http.StatusBadRequest || status == http.StatusNotFound || status == http.StatusUnprocessableEntity:
		return ErrorBadRequest
	case status >= 500:
		return ErrorServer
	default:
		return ErrorUnknown
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorUnknown.
func TypeOf(err error) ErrorType {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorUnknown
}
