// Package restbridge is the narrow external-collaborator boundary for the
// rest_get/post/put/delete/patch builtin functions (§4.5, §6). It is a thin
// stdlib net/http wrapper rather than a third-party HTTP client: the spec
// places the HTTP surface itself out of scope, and a bare request/response
// round trip has no business logic worth a dependency.
package restbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout is used when the rule source omits an explicit timeout_ms
// argument (§5 "REST calls honour a per-call timeout (default 5s)").
const DefaultTimeout = 5 * time.Second

// Response is the structured result returned to the evaluator. REST
// failures are reported here, never as a Go error, so the evaluator can
// fold them into a function return value per §4.5.
type Response struct {
	Success bool
	Error   bool
	Message string
	Status  int
	Body    interface{}
}

// Client issues REST calls on behalf of the evaluator's rest_* functions.
type Client struct {
	HTTPClient *http.Client
}

// NewClient builds a Client with a bounded default transport.
func NewClient() *Client {
	return &Client{HTTPClient: &http.Client{Timeout: DefaultTimeout}}
}

// Call performs method against url with an optional body/headers/timeout,
// never returning a Go error — failures are folded into Response.
func (c *Client) Call(ctx context.Context, method, url string, body interface{}, headers map[string]string, timeout time.Duration) Response {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Response{Success: false, Error: true, Message: "failed to encode request body: " + err.Error()}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(callCtx, method, url, reader)
	if err != nil {
		return Response{Success: false, Error: true, Message: "failed to build request: " + err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Response{Success: false, Error: true, Message: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Success: false, Error: true, Message: "failed to read response: " + err.Error(), Status: resp.StatusCode}
	}

	var decoded interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			decoded = string(raw)
		}
	}

	if resp.StatusCode >= 400 {
		return Response{Success: false, Error: true, Message: "non-2xx response", Status: resp.StatusCode, Body: decoded}
	}

	return Response{Success: true, Status: resp.StatusCode, Body: decoded}
}
