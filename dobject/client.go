package dobject

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/edgeobj/dobject-go/connection"
)

// Client provides access to a durable object service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration

	conns *connection.Supervisor
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new durable object client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.conns == nil {
		c.conns = connection.NewSupervisor(c.logger)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSupervisor sets a custom connection supervisor.
func WithSupervisor(s *connection.Supervisor) ClientOption {
	return func(c *Client) {
		c.conns = s
	}
}

// Connections returns the supervisor owning this client's WebSocket actors.
func (c *Client) Connections() *connection.Supervisor {
	return c.conns
}

// Close stops all live connection actors.
func (c *Client) Close() {
	c.conns.StopAll()
}
