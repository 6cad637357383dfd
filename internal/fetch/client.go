package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sony/gobreaker"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "waldl/0.3"
)

var (
	// ErrNetwork tags connection failures, timeouts and non-2xx responses.
	ErrNetwork = goerr.NewTag("network")
	// ErrStatus additionally tags errors caused by a non-2xx response.
	ErrStatus = goerr.NewTag("http_status")
)

// Getter fetches the body of a URL.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Config configures the HTTP client
type Config struct {
	Timeout   time.Duration // 0 disables the client timeout
	UserAgent string

	// BreakerFailures opens the circuit after this many consecutive
	// failures. 0 disables the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration
func DefaultConfig() *Config {
	return &Config{
		Timeout:         defaultTimeout,
		UserAgent:       defaultUserAgent,
		BreakerCooldown: 30 * time.Second,
	}
}

// Client is a Getter backed by net/http
type Client struct {
	httpClient *http.Client
	userAgent  string
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a new client. A nil config uses DefaultConfig.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  userAgent,
		logger:     logger,
	}

	if cfg.BreakerFailures > 0 {
		threshold := cfg.BreakerFailures
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "http",
			Timeout: cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed",
					"name", name, "from", from.String(), "to", to.String())
			},
		})
	}

	return c
}

// Get issues a blocking GET and returns the full response body.
// Non-2xx responses are errors tagged ErrNetwork and ErrStatus.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if c.breaker == nil {
		return c.get(ctx, url)
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, url)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, goerr.Wrap(err, "request rejected by circuit breaker",
				goerr.T(ErrNetwork), goerr.V("url", url))
		}
		return nil, err
	}
	return body.([]byte), nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create request",
			goerr.T(ErrNetwork), goerr.V("url", url))
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "request failed",
			goerr.T(ErrNetwork), goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, goerr.New("unexpected status code",
			goerr.T(ErrNetwork), goerr.T(ErrStatus),
			goerr.V("url", url), goerr.V("status", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body",
			goerr.T(ErrNetwork), goerr.V("url", url))
	}

	c.logger.Debug("fetched",
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start))

	return body, nil
}
