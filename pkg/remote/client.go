// Package remote is the HTTP client shared by backends that talk to public
// package indexes and source hosts.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arc-language/manafest/pkg/core"
)

// DefaultTimeout bounds a single request when none is configured
const DefaultTimeout = 5 * time.Second

// maxBody caps how much of a response is read
const maxBody = 16 << 20

// StatusError is a response outside the 2xx range
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Is matches core.ErrExternalCall
func (e *StatusError) Is(target error) bool {
	return target == core.ErrExternalCall
}

// Client performs unauthenticated requests with a per-request timeout
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     logrus.FieldLogger
}

// NewClient creates a client whose every request is bounded by timeout
func NewClient(timeout time.Duration, logger logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "manafest/1.0",
		logger:    logger,
	}
}

// Get fetches url and returns the body of a 2xx response
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// GetJSON fetches url and decodes the JSON body into v
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", core.ErrParse, url, err)
	}
	return nil
}

// Post sends body with the given content type and returns the 2xx response body
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.WithField("url", req.URL.String()).Debugf("%s request", req.Method)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: performing request: %v", core.ErrExternalCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", core.ErrExternalCall, err)
	}
	return data, nil
}
