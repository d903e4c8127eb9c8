package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lumora-ai/botgate/internal/logx"
)

// RetryPolicy bounds retries of outbound provider calls: at most MaxAttempts
// tries, sleeping BaseDelay, 2*BaseDelay, 4*BaseDelay, ... between them.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetry is used when a Client is constructed without an explicit policy.
var DefaultRetry = RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}

// Client wraps http.Client with a request timeout and bounded
// exponential-backoff retry. All calls to third-party endpoints go through it.
type Client struct {
	HTTPClient *http.Client
	Retry      RetryPolicy
}

// NewClient returns a Client whose outbound calls are bounded by timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		Retry:      DefaultRetry,
	}
}

// retryable reports whether a response status is worth another attempt.
// 4xx responses are the provider's verdict and are returned as-is.
func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// decodeError marks a response that arrived but could not be parsed.
// The endpoint already answered; re-sending the request cannot help.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// DoJSON issues an HTTP request with an optional JSON body and decodes the
// JSON response into out (when out is non-nil). The request is rebuilt for
// every attempt so the body can be re-sent. Returns the final HTTP status.
func (c *Client) DoJSON(ctx context.Context, method, url string, headers map[string]string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
	}

	attempts := c.Retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := c.Retry.BaseDelay << (attempt - 1)
			logx.Debugf("httpx: retrying %s %s in %s (attempt %d/%d)", method, url, delay, attempt+1, attempts)
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		status, err := c.doOnce(ctx, method, url, headers, payload, out)
		if err != nil {
			var de *decodeError
			if errors.As(err, &de) {
				return status, err
			}
			lastErr = err
			continue
		}
		if retryable(status) {
			lastErr = fmt.Errorf("%s %s: status %d", method, url, status)
			continue
		}
		return status, nil
	}
	return 0, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func (c *Client) doOnce(ctx context.Context, method, url string, headers map[string]string, payload []byte, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if retryable(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, &decodeError{fmt.Errorf("decode response: %w", err)}
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}
