// Package httpx provides the outbound HTTP client used to talk to the
// image build driver. It retries a fixed set of transient statuses on a
// shared attempt budget and leaves all other status interpretation to the
// caller.
package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrNetwork marks transport-level failures (connection refused, timeouts).
// HTTP error statuses are never errors here; the caller inspects the
// returned response.
var ErrNetwork = errors.New("network failure")

// DefaultRetries is the attempt budget used when a request does not set one.
const DefaultRetries = 3

var (
	noRetryStatus  = map[int]struct{}{404: {}, 401: {}, 403: {}}
	mayRetryStatus = map[int]struct{}{408: {}, 500: {}, 502: {}, 503: {}}
)

type Client struct {
	http      *http.Client
	retryWait time.Duration
	lg        zerolog.Logger
}

func NewClient(lg zerolog.Logger) *Client {
	return &Client{
		http:      &http.Client{},
		retryWait: time.Second,
		lg:        lg.With().Str("component", "httpx").Logger(),
	}
}

// Request describes one outbound call.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Retries is the total attempt budget: a budget of N makes at most N
	// calls, the first one included. Nil means DefaultRetries. Zero makes
	// exactly one call with no status classification at all.
	Retries *int
}

// Do performs the request. Statuses 404, 401 and 403 return immediately.
// Statuses 408, 500, 502 and 503 consume one unit of budget and, if budget
// remains, are retried after a fixed wait; when the budget runs out the
// last response is returned as-is, with no error. Any other status returns
// on first occurrence.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	retries := DefaultRetries
	if req.Retries != nil {
		retries = *req.Retries
	}

	if retries == 0 {
		return c.do(ctx, req)
	}

	for {
		resp, err := c.do(ctx, req)
		if err != nil {
			return nil, err
		}

		if _, ok := noRetryStatus[resp.StatusCode]; ok {
			return resp, nil
		}
		if _, ok := mayRetryStatus[resp.StatusCode]; ok {
			retries--
			if retries == 0 {
				return resp, nil
			}
			c.lg.Warn().
				Int("status", resp.StatusCode).
				Int("remaining", retries).
				Str("url", req.URL).
				Msg("retryable status, backing off")
			drain(resp)
			select {
			case <-time.After(c.retryWait):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrNetwork, ctx.Err())
			}
			continue
		}
		return resp, nil
	}
}

func (c *Client) do(ctx context.Context, req *Request) (*http.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	resp, err := c.http.Do(hr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
