package integrations

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Config contains configuration for the integrations API client.
type Config struct {
	// BaseURL is the base URL of the integration service.
	// Example: "https://tenant.integration.example.com"
	BaseURL string

	// User and Password are sent as HTTP basic credentials.
	User     string
	Password string `json:"-"`

	// TLSVerify controls TLS certificate verification.
	// Default: false
	TLSVerify *bool

	// Timeout for a single request. Zero means no timeout.
	Timeout time.Duration

	// Retries is the number of additional attempts after a transport
	// failure. HTTP status codes are never retried.
	// Default: 0
	Retries int
}

// DefaultConfig returns a Config with the defaults of the command line tool.
func DefaultConfig() *Config {
	tlsVerify := false
	return &Config{
		TLSVerify: &tlsVerify,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https scheme, got: %s", parsedURL.Scheme)
	}

	if c.User == "" {
		return fmt.Errorf("user is required")
	}

	if c.Password == "" {
		return fmt.Errorf("password is required")
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got: %v", c.Timeout)
	}

	if c.Retries < 0 {
		return fmt.Errorf("retries must be non-negative, got: %d", c.Retries)
	}

	return nil
}

// NewHTTPClient creates a configured HTTP client. When the logger is at debug
// level every request and response is traced through it.
func (c *Config) NewHTTPClient(logger hclog.Logger) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	if c.TLSVerify == nil || !*c.TLSVerify {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	var rt http.RoundTripper = transport
	if logger != nil && logger.IsDebug() {
		rt = &traceTransport{base: transport, logger: logger}
	}

	return &http.Client{
		Timeout:   c.Timeout,
		Transport: rt,
	}
}
