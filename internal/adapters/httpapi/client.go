// Package httpapi implements ports.APITransport over net/http.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/summitforms/internal/ports"
)

// ErrNetwork wraps every failure that left us without a response.
var ErrNetwork = errors.New("network error")

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 4 << 20

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	// Timeout is the default per-request timeout.
	Timeout time.Duration
	// UserAgent is sent when a request does not set its own.
	UserAgent string
	// MaxBodyBytes caps response bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:      15 * time.Second,
		UserAgent:    "summitforms",
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Client sends API requests over HTTP.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a new client. A nil httpClient gets a fresh one.
func NewClient(config ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Client{config: config, httpClient: httpClient}
}

// Do sends req and reads the whole response. Any HTTP status is a
// response; only transport failures are errors.
func (c *Client) Do(ctx context.Context, req ports.APIRequest) (ports.APIResponse, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return ports.APIResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ports.APIResponse{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return ports.APIResponse{}, fmt.Errorf("%w: reading response: %w", ErrNetwork, err)
	}

	return ports.APIResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Ensure Client implements APITransport.
var _ ports.APITransport = (*Client)(nil)
