package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Config bundles HTTP client and dispatch settings for one upstream.
type Config struct {
	Name       string
	HTTPClient *http.Client

	// Delay is waited before every request is dispatched. It simulates
	// network latency for UI feedback; zero disables it.
	Delay time.Duration

	// RateLimit is the maximum outbound requests per second (0 = unlimited).
	RateLimit float64
	RateBurst int

	Logger zerolog.Logger
}

// Client performs single-attempt JSON GETs behind a circuit breaker.
// It never retries: a failed call is reported to the caller as a *FetchError.
type Client struct {
	name    string
	http    *http.Client
	delay   time.Duration
	limiter *rate.Limiter
	circuit *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewClient creates a Client for the named upstream.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		name:    cfg.Name,
		http:    httpClient,
		delay:   cfg.Delay,
		limiter: limiter,
		circuit: cb,
		logger:  cfg.Logger.With().Str("upstream", cfg.Name).Logger(),
	}
}

// Name returns the upstream name used in errors, logs and metrics.
func (c *Client) Name() string {
	return c.name
}

// GetJSON issues GET baseURL?query and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, baseURL string, query url.Values, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := c.do(ctx, baseURL, query, out)
	requestDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(c.name, outcome(err)).Inc()

	if err != nil {
		c.logger.Warn().Err(err).Msg("upstream request failed")
		return err
	}
	c.logger.Debug().Dur("took", time.Since(start)).Msg("upstream request ok")
	return nil
}

// wait applies the dispatch delay and the rate limiter.
func (c *Client) wait(ctx context.Context) error {
	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return NewTransportError(c.name, ctx.Err())
		case <-timer.C:
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return NewTransportError(c.name, err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, baseURL string, query url.Values, out any) error {
	u := baseURL
	if len(query) > 0 {
		u = fmt.Sprintf("%s?%s", baseURL, query.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return NewTransportError(c.name, err)
	}
	req.Header.Set("Accept", "application/json")

	// Only transport failures and 5xx/429 count against the breaker; a 404 for
	// an unknown city says nothing about upstream health.
	result, err := c.circuit.Execute(func() (any, error) {
		resp, execErr := c.http.Do(req)
		if execErr != nil {
			return nil, NewTransportError(c.name, execErr)
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			drain(resp.Body)
			return nil, NewStatusError(c.name, resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return NewTransportError(c.name, fmt.Errorf("circuit breaker open: %w", err))
		}
		var fe *FetchError
		if errors.As(err, &fe) {
			return fe
		}
		return NewTransportError(c.name, err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return NewTransportError(c.name, fmt.Errorf("unexpected result type from circuit breaker"))
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewStatusError(c.name, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewMalformedError(c.name, "invalid JSON body", err)
	}
	return nil
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}
