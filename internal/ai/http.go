package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is the request-level deadline applied to every outbound
// provider call unless an adapter is configured otherwise.
const DefaultTimeout = 30 * time.Second

// NewHTTPClient returns the http.Client adapters use by default.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// PostJSON sends payload as a JSON POST and returns the raw response body.
// Transport failures, non-2xx statuses and body-read failures all come back
// as *AdapterError; callers decode the body themselves since every provider
// has its own envelope.
func PostJSON(ctx context.Context, client *http.Client, a Adapter, url string, headers map[string]string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, &AdapterError{
			Kind:     ErrUnknown,
			Provider: a.Kind(),
			Message:  fmt.Sprintf("could not encode request: %v", err),
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, &AdapterError{
			Kind:     ErrUnknown,
			Provider: a.Kind(),
			Message:  fmt.Sprintf("could not build request: %v", err),
		}
	}
	req.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, FromTransport(a.Kind(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, FromTransport(a.Kind(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, FromStatus(a.Kind(), resp.StatusCode, string(body))
	}

	return body, nil
}
