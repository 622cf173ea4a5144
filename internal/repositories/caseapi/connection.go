// Package caseapi is the query client for the remote case-management
// backend. The backend exposes collections behind a single base endpoint
// with an OData-style filter/select/expand/count/top dialect and
// server-side paging.
package caseapi

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"deskpulserest/internal/identity"
)

// Config holds the client configuration.
type Config struct {
	BaseURL string

	// Connection settings
	MaxRetries   int
	RetryBackoff time.Duration
	Timeout      time.Duration

	// PageLimit is the backend's single-page maximum. Metric queries never
	// exceed one page; record fetches page transparently.
	PageLimit int
}

// Client executes queries against the case backend. Tokens come from the
// injected identity provider on every request.
type Client struct {
	http   *http.Client
	config *Config
	tokens identity.TokenProvider
}

// NewClient creates a new case backend client with the provided
// configuration and token provider.
func NewClient(cfg *Config, tokens identity.TokenProvider) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	// Load from environment variables if not provided in config
	if cfg.BaseURL == "" {
		if url := os.Getenv("CASEAPI_BASE_URL"); url != "" {
			cfg.BaseURL = url
		} else {
			return nil, fmt.Errorf("case backend base URL is not configured")
		}
	}

	// Set defaults
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PageLimit == 0 {
		cfg.PageLimit = 5000
	}

	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
			},
		},
		config: cfg,
		tokens: tokens,
	}, nil
}

// PageLimit exposes the configured single-page maximum.
func (c *Client) PageLimit() int {
	return c.config.PageLimit
}

// retryable reports whether a response status is worth retrying.
func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
