package integrations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

const integrationsPath = "/ic/api/integration/v1/integrations"

// Client talks to the integrations REST API. A single Client is reused for
// every request of a run; requests share no state beyond the connection pool.
type Client struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// Request is a single stateless HTTP exchange.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is the status and fully read body of an exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewClient creates a new API client.
func NewClient(cfg *Config, logger hclog.Logger) (*Client, error) {
	if cfg.TLSVerify == nil {
		cfg.TLSVerify = DefaultConfig().TLSVerify
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Client{
		config: cfg,
		client: cfg.NewHTTPClient(logger),
		logger: logger,
	}, nil
}

// IntegrationsURL returns the collection endpoint.
func (c *Client) IntegrationsURL() string {
	return strings.TrimRight(c.config.BaseURL, "/") + integrationsPath
}

// ArchiveURL returns the archive import endpoint.
func (c *Client) ArchiveURL() string {
	return c.IntegrationsURL() + "/archive"
}

// Do executes a request with basic authentication and returns the response
// regardless of its status code. Transport failures are retried up to
// Config.Retries times with exponential backoff.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	var resp *Response

	operation := func() error {
		var body io.Reader
		if r.Body != nil {
			body = bytes.NewReader(r.Body)
		}

		req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		for k, values := range r.Header {
			for _, v := range values {
				req.Header.Add(k, v)
			}
		}
		req.SetBasicAuth(c.config.User, c.config.Password)

		httpResp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(fmt.Errorf("request failed: %w", err))
			}
			return fmt.Errorf("request failed: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		resp = &Response{
			StatusCode: httpResp.StatusCode,
			Header:     httpResp.Header,
			Body:       respBody,
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.config.Retries)),
		ctx,
	)
	notify := func(err error, delay time.Duration) {
		c.logger.Warn("request failed, retrying",
			"method", r.Method, "url", r.URL, "delay", delay, "error", err)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}

	return resp, nil
}

func jsonHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	return h
}

// expect returns a StatusError when resp does not carry the wanted code.
func expect(op, url string, resp *Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	return &StatusError{
		Op:       op,
		URL:      url,
		Expected: want,
		Actual:   resp.StatusCode,
		Body:     string(resp.Body),
	}
}
