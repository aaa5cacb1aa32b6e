package owm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	appLog "weathercal/internal/log"
)

const defaultBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

var (
	errServerError = errors.New("server error")
	errRateLimited = errors.New("rate limited")
)

// BackoffConfig controls retry behaviour for transient failures.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client fetches One Call forecasts for a fixed coordinate pair.
//
// Requests run behind a circuit breaker and a client-side rate limiter
// so a misconfigured refresh schedule cannot hammer the API.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	backoff BackoffConfig
}

// NewClient creates an OpenWeatherMap client. baseURL may be empty to
// use the production endpoint; tests point it at a local server.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpc: &http.Client{
			Timeout: 15 * time.Second,
		},
		breaker: cb,
		// One Call is polled at most every few minutes; one request
		// per 10s is far above any sane refresh cadence.
		limiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

// Source binds a client to fixed coordinates so callers that always
// fetch the same location can hold a single-argument fetcher.
type Source struct {
	client *Client
	lat    float64
	lon    float64
}

// At returns a Source for the given coordinates.
func (c *Client) At(lat, lon float64) *Source {
	return &Source{client: c, lat: lat, lon: lon}
}

// Fetch retrieves the forecast for the bound coordinates.
func (s *Source) Fetch(ctx context.Context) (*Payload, error) {
	return s.client.Fetch(ctx, s.lat, s.lon)
}

// Fetch retrieves the current+daily forecast for the given coordinates.
// Minutely/hourly blocks and alerts are excluded server-side; the sync
// pipeline only consumes the current and daily blocks.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*Payload, error) {
	if c.apiKey == "" {
		return nil, errors.New("openweathermap api key is not configured")
	}

	values := url.Values{}
	values.Set("appid", c.apiKey)
	values.Set("lat", fmt.Sprintf("%g", lat))
	values.Set("lon", fmt.Sprintf("%g", lon))
	values.Set("exclude", "minutely,hourly,alerts")
	endpoint := c.baseURL + "?" + values.Encode()

	appLog.Info("forecast fetch start", "lat", lat, "lon", lon)

	body, err := c.doWithRetry(ctx, endpoint)
	if err != nil {
		appLog.Error("forecast fetch failed", err, "lat", lat, "lon", lon)
		return nil, err
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode forecast payload: %w", err)
	}

	appLog.Info("forecast fetch success", "timezone", payload.Timezone, "daily_count", len(payload.Daily))
	return &payload, nil
}

// doWithRetry executes the GET with rate limiting, retries with
// exponential backoff on transient failures, and the circuit breaker
// wrapped around each attempt.
func (c *Client) doWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	interval := c.backoff.InitialInterval
	var lastErr error

	for attempt := 0; attempt <= c.backoff.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doOnce(ctx, endpoint)
		})
		if err == nil {
			return res.([]byte), nil
		}
		lastErr = err

		// Only transient failures are worth retrying; a 4xx other
		// than 429 will not get better on its own.
		if !errors.Is(err, errServerError) && !errors.Is(err, errRateLimited) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
		interval *= 2
		if interval > c.backoff.MaxInterval {
			interval = c.backoff.MaxInterval
		}
	}

	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", errRateLimited, resp.Status)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %s", errServerError, resp.Status)
	default:
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
}
