package elsearch

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
)

type Config struct {
	Addresses []string
	Username  string
	Password  string

	// Connection settings
	MaxRetries    int
	RetryBackoff  time.Duration
	Timeout       time.Duration
	EnableLogging bool

	// TLS settings
	InsecureSkipVerify bool
}

// Client wraps the Elasticsearch client used as the structured log sink.
type Client struct {
	ES     *elasticsearch.Client
	config *Config
}

// NewClient creates a new Elasticsearch client with the provided configuration
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Load from environment variables if not provided in config
	if len(cfg.Addresses) == 0 {
		if url := os.Getenv("ELASTICSEARCH_URL"); url != "" {
			cfg.Addresses = []string{url}
		} else {
			cfg.Addresses = []string{"http://elasticsearch:9200"}
		}
	}

	if cfg.Username == "" {
		if username := os.Getenv("ELASTICSEARCH_USERNAME"); username != "" {
			cfg.Username = username
		} else {
			cfg.Username = "elastic"
		}
	}

	if cfg.Password == "" {
		if password := os.Getenv("ELASTICSEARCH_PASSWORD"); password != "" {
			cfg.Password = password
		}
	}

	// Set defaults
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,

		RetryOnStatus: []int{502, 503, 504, 429},
		MaxRetries:    cfg.MaxRetries,
		RetryBackoff: func(i int) time.Duration {
			return cfg.RetryBackoff * time.Duration(i)
		},
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: cfg.Timeout,
			TLSClientConfig: &tls.Config{
				// Self-signed certs in local Docker setups.
				InsecureSkipVerify: cfg.InsecureSkipVerify,
			},
		},
		EnableMetrics:     cfg.EnableLogging,
		EnableDebugLogger: cfg.EnableLogging,
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	client := &Client{
		ES:     es,
		config: cfg,
	}

	// Test connection
	if err := client.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", err)
	}

	return client, nil
}

// Ping tests the connection to Elasticsearch
func (c *Client) Ping() error {
	res, err := c.ES.Ping()
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			fmt.Printf("error closing response body: %v\n", err)
		}
	}()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed with status: %s", res.Status())
	}

	return nil
}

// Health returns cluster health information
func (c *Client) Health() (*esapi.Response, error) {
	return c.ES.Cluster.Health()
}

// IndexExists checks if an index exists
func (c *Client) IndexExists(indexName string) (bool, error) {
	res, err := c.ES.Indices.Exists([]string{indexName})
	if err != nil {
		return false, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			fmt.Printf("error closing response body: %v\n", err)
		}
	}()
	return res.StatusCode == 200, nil
}
