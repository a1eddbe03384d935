// Package upstream talks to the external collaborators: the tenders API,
// the preferences endpoint, the chatbot and the speech backend. Calls are
// bounded by a per-call timeout and are never retried.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tender-discovery-api/internal/metrics"
)

var (
	// ErrTimeout classifies calls that ran out of time
	ErrTimeout = errors.New("upstream timeout")
	// ErrNotConfigured is returned when a collaborator has no URL
	ErrNotConfigured = errors.New("upstream not configured")
	// ErrBadPayload is returned for response bodies that are not JSON
	ErrBadPayload = errors.New("invalid JSON from upstream")
)

// Error is a non-2xx upstream response
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed (%d): %s", e.Op, e.Status, e.Message)
}

// StatusOf returns the upstream HTTP status carried by err, or 0
func StatusOf(err error) int {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// client is the shared request helper of every collaborator
type client struct {
	name    string
	base    string
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

func newClient(name, base string, timeout time.Duration, log zerolog.Logger) *client {
	return &client{
		name:    name,
		base:    strings.TrimRight(base, "/"),
		timeout: timeout,
		http:    &http.Client{},
		log:     log.With().Str("upstream", name).Logger(),
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header
}

// do sends req and returns the response body. A non-2xx status yields an
// *Error whose message is taken from a JSON message or error field when
// the body has one.
func (c *client) do(ctx context.Context, req request) ([]byte, error) {
	if c.base == "" {
		return nil, fmt.Errorf("%s: %w", c.name, ErrNotConfigured)
	}
	method := req.method
	if method == "" {
		method = http.MethodGet
	}
	op := method + " " + c.name + req.path

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.base + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", op, err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json,text/plain,*/*")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.UpstreamDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	if err != nil {
		if isTimeout(ctx, err) {
			metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "timeout").Inc()
			c.log.Warn().Str("op", op).Dur("timeout", c.timeout).Msg("Upstream call timed out")
			return nil, fmt.Errorf("%s after %s: %w", op, c.timeout, ErrTimeout)
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return nil, fmt.Errorf("network error calling %s: %w", op, err)
	}
	defer resp.Body.Close()

	// read once; JSON is parsed from the text
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "timeout").Inc()
			return nil, fmt.Errorf("%s after %s: %w", op, c.timeout, ErrTimeout)
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return nil, fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "error").Inc()
		return nil, &Error{Op: op, Status: resp.StatusCode, Message: errorMessage(data, resp.StatusCode)}
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(c.name, "ok").Inc()
	return data, nil
}

// getJSON sends req and decodes the body as untyped JSON. An empty body
// decodes to nil.
func (c *client) getJSON(ctx context.Context, req request) (any, error) {
	data, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

func decode(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return v, nil
}

func errorMessage(body []byte, status int) string {
	text := strings.TrimSpace(string(body))
	var obj map[string]any
	if json.Unmarshal(body, &obj) == nil {
		for _, key := range []string{"message", "error", "errorMessage"} {
			if s, ok := obj[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if text == "" {
		return "HTTP " + http.StatusText(status)
	}
	return text
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
