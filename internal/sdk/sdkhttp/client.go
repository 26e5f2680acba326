// Package sdkhttp is the JSON-over-HTTP transport shared by the network SDKs.
package sdkhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/echoface/admediation/pkg/jsonx"
	"github.com/echoface/admediation/pkg/logger"
)

const maxErrorBody = 512

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return "transport timeout: " + e.Err.Error()
	}
	return "transport error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means the server answered 200 with a body we could not parse.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Timeout
}

// Client talks to one network endpoint.
type Client struct {
	http     *http.Client
	endpoint string
	timeout  time.Duration
	log      logger.Logger
}

func NewClient(httpClient *http.Client, endpoint string, timeout time.Duration, l logger.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if l == nil {
		l = logger.NewNop()
	}
	return &Client{
		http:     httpClient,
		endpoint: strings.TrimRight(endpoint, "/"),
		timeout:  timeout,
		log:      l,
	}
}

func (c *Client) Endpoint() string { return c.endpoint }

// GetJSON issues GET endpoint+path?query. The body is decoded into out only
// for 200 responses; other statuses are returned without error.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) (int, error) {
	u := c.endpoint + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, u, nil, out)
}

// PostJSON issues POST endpoint+path with body encoded as JSON.
func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) (int, error) {
	data, err := jsonx.JSONE(body)
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, http.MethodPost, c.endpoint+path, data, out)
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, out any) (int, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &TransportError{Timeout: isTimeout(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Debug("network responded with non-200", "url", u, "status", resp.StatusCode, "body", string(snippet))
		return resp.StatusCode, nil
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := jsonx.Decode(resp.Body, out); err != nil {
		return resp.StatusCode, &DecodeError{Err: err}
	}
	return resp.StatusCode, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// FireBeacons pings tracking urls in the background. Failures are logged and
// otherwise ignored.
func (c *Client) FireBeacons(urls []string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		go c.fire(u)
	}
}

func (c *Client) fire(u string) {
	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.log.Warn("bad tracking url", "url", u, "err", err)
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("tracking beacon failed", "url", u, "err", err)
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// NewRequestID returns a fresh request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// NewDefaultHTTPClient is the tuned client SDKs use when the host gives none.
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
