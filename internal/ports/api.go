package ports

import (
	"context"
	"net/http"
	"time"
)

// APIRequest is a single HTTP exchange with the remote API.
type APIRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// Timeout bounds this request alone. Zero means the transport default.
	Timeout time.Duration
}

// APIResponse is the fully read response of an APIRequest.
type APIResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// APITransport sends requests to the remote API.
// Implementations return an error only when no response was obtained
// (connection failure, timeout, truncated body).
type APITransport interface {
	Do(ctx context.Context, req APIRequest) (APIResponse, error)
}
