package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/summitforms/internal/ports"
)

// Reply produces the response to one request.
type Reply func(req ports.APIRequest) (ports.APIResponse, error)

// Transport is a scripted ports.APITransport. Requests are answered by a
// per-URL handler when one is registered, otherwise by the queued replies
// in order, otherwise with Fallback.
type Transport struct {
	mu       sync.Mutex
	handlers map[string]Reply
	queue    []Reply
	requests []ports.APIRequest
	Fallback Reply
}

// NewTransport creates an empty Transport that answers 500 by default.
func NewTransport() *Transport {
	return &Transport{
		handlers: make(map[string]Reply),
		Fallback: Status(500, "unscripted request"),
	}
}

// Handle answers every request for url with reply.
func (t *Transport) Handle(url string, reply Reply) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[url] = reply
	return t
}

// Enqueue adds replies for the next unmatched requests.
func (t *Transport) Enqueue(replies ...Reply) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, replies...)
	return t
}

// Requests returns the requests received so far.
func (t *Transport) Requests() []ports.APIRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]ports.APIRequest(nil), t.requests...)
}

// Do records req and answers it.
func (t *Transport) Do(ctx context.Context, req ports.APIRequest) (ports.APIResponse, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	reply, ok := t.handlers[req.URL]
	if !ok && len(t.queue) > 0 {
		reply, t.queue = t.queue[0], t.queue[1:]
		ok = true
	}
	if !ok {
		reply = t.Fallback
	}
	t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ports.APIResponse{}, err
	}
	return reply(req)
}

// Status replies with a fixed status and body.
func Status(code int, body string) Reply {
	return func(ports.APIRequest) (ports.APIResponse, error) {
		return ports.APIResponse{StatusCode: code, Body: []byte(body)}, nil
	}
}

// Fail replies with a transport error.
func Fail(err error) Reply {
	return func(ports.APIRequest) (ports.APIResponse, error) {
		return ports.APIResponse{}, err
	}
}

// Ensure Transport implements ports.APITransport.
var _ ports.APITransport = (*Transport)(nil)
