// Package fetch provides the HTTP capability used to load assets by URI.
package fetch

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -destination=mocks/mock_client.go -package=mocks . Client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is sent when no User-Agent option is given.
const DefaultUserAgent = "gogpu-assets/0.1"

// Response is the status and body of a completed request. Callers must
// close Body.
type Response struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// Client performs HTTP GET requests.
type Client interface {
	Get(ctx context.Context, url string, header http.Header, followRedirects bool) (*Response, error)
}

// HTTPClient implements Client with net/http.
type HTTPClient struct {
	client     *http.Client
	noRedirect *http.Client
	userAgent  string
	timeout    time.Duration
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header for requests that do not carry one.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithHTTPClient uses a copy of hc as the underlying client. Its Transport
// is shared by the redirect-following and non-following modes.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// New creates an HTTPClient.
func New(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	base := *c.client
	if c.timeout > 0 {
		base.Timeout = c.timeout
	}
	c.client = &base

	noRedirect := base
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.noRedirect = &noRedirect
	return c
}

// Get implements Client. A non-success status is not an error; the caller
// inspects Response.Status.
func (c *HTTPClient) Get(ctx context.Context, url string, header http.Header, followRedirects bool) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	client := c.client
	if !followRedirects {
		client = c.noRedirect
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// ReadAll reads and closes resp.Body.
func ReadAll(resp *Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	return data, nil
}

// IsSuccess reports whether status is in the 2xx range.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// IsCanceled reports whether err was caused by context cancellation or
// deadline expiry.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
