package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aethernet/internal/chat"
)

// ErrorKind classifies adapter failures.
type ErrorKind string

const (
	// ErrMissingCredential means a required key is absent; no network call
	// was attempted.
	ErrMissingCredential ErrorKind = "missing_credential"
	// ErrUnauthorized means the provider rejected the credentials (401/403).
	ErrUnauthorized ErrorKind = "unauthorized"
	// ErrNotFound means the model or endpoint is unknown to the provider (404).
	ErrNotFound ErrorKind = "not_found"
	// ErrRateLimited means the provider is throttling (429). Surfaced as-is,
	// no automatic backoff.
	ErrRateLimited ErrorKind = "rate_limited"
	// ErrTimeout means the call exceeded the configured deadline.
	ErrTimeout ErrorKind = "timeout"
	// ErrServerError means a provider-side 5xx or a transport failure.
	ErrServerError ErrorKind = "server_error"
	// ErrEmptyResponse means a 2xx response yielded no extractable text.
	ErrEmptyResponse ErrorKind = "empty_response"
	// ErrUnknown covers anything not classified above.
	ErrUnknown ErrorKind = "unknown"
)

// AdapterError is the tagged failure every adapter maps its errors into.
// Status and Body carry the provider's raw response for diagnostics when
// one was received.
type AdapterError struct {
	Kind     ErrorKind
	Provider chat.ProviderKind
	Status   int
	Body     string
	Message  string
}

func (e *AdapterError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Provider, e.Message, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Kind)
}

// HTTPStatus returns the status the relay should answer with for this
// error: the upstream status when one exists, otherwise a local mapping.
func (e *AdapterError) HTTPStatus() int {
	if e.Status > 0 {
		return e.Status
	}
	switch e.Kind {
	case ErrMissingCredential:
		return http.StatusServiceUnavailable
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// AsAdapterError unwraps err into an *AdapterError if it is one.
func AsAdapterError(err error) (*AdapterError, bool) {
	var aerr *AdapterError
	if errors.As(err, &aerr) {
		return aerr, true
	}
	return nil, false
}

// NewMissingCredential reports an absent required key. Callers must fail
// fast without attempting a network call.
func NewMissingCredential(provider chat.ProviderKind) *AdapterError {
	return &AdapterError{
		Kind:     ErrMissingCredential,
		Provider: provider,
		Message:  fmt.Sprintf("no API key configured for %s", provider),
	}
}

// NewEmptyResponse reports a 2xx response with no extractable text.
func NewEmptyResponse(provider chat.ProviderKind) *AdapterError {
	return &AdapterError{
		Kind:     ErrEmptyResponse,
		Provider: provider,
		Message:  "provider returned no response text",
	}
}

// FromStatus classifies a non-2xx provider status.
func FromStatus(provider chat.ProviderKind, status int, body string) *AdapterError {
	kind := ErrUnknown
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = ErrUnauthorized
	case status == http.StatusNotFound:
		kind = ErrNotFound
	case status == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case status >= 500:
		kind = ErrServerError
	}
	return &AdapterError{
		Kind:     kind,
		Provider: provider,
		Status:   status,
		Body:     body,
		Message:  fmt.Sprintf("provider returned status %d", status),
	}
}

// FromTransport classifies a failure that produced no provider response:
// deadline and net timeouts map to Timeout, everything else to ServerError.
func FromTransport(provider chat.ProviderKind, err error) *AdapterError {
	kind := ErrServerError
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = ErrTimeout
	}
	return &AdapterError{
		Kind:     kind,
		Provider: provider,
		Message:  err.Error(),
	}
}

// FromMalformedBody reports a 2xx response whose body could not be decoded.
func FromMalformedBody(provider chat.ProviderKind, body string, err error) *AdapterError {
	message := "could not decode provider response"
	if err != nil {
		message = fmt.Sprintf("could not decode provider response: %v", err)
	}
	return &AdapterError{
		Kind:     ErrUnknown,
		Provider: provider,
		Body:     body,
		Message:  message,
	}
}
