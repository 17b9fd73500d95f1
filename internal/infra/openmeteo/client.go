package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
)

const (
	defaultBaseURL  = "https://api.open-meteo.com/v1/forecast"
	defaultTimezone = "America/New_York"
	defaultTimeout  = 10 * time.Second

	hourlyFields = "temperature_2m,precipitation_probability"
	// consecutive failures before the breaker opens
	tripAfter = 5
)

var errCircuitOpen = errors.New("circuit breaker open")

// Client fetches hourly forecasts from Open-Meteo. It never retries; a circuit breaker
// short-circuits calls after repeated upstream failures.
type Client struct {
	baseURL    string
	timezone   string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
}

// NewClient constructs an Open-Meteo client.
func NewClient(baseURL, timezone string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(timezone) == "" {
		timezone = defaultTimezone
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
	})
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timezone:   timezone,
		httpClient: &http.Client{Timeout: timeout},
		circuit:    cb,
	}
}

// Fetch requests q.Days of hourly temperature (Fahrenheit) and precipitation probability.
func (c *Client) Fetch(ctx context.Context, q forecast.Query) (forecast.RawForecast, error) {
	endpoint := c.baseURL + "?" + c.query(q).Encode()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("build forecast request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request forecast: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			return nil, fmt.Errorf("forecast request failed: status=%d body=%s", resp.StatusCode, string(payload))
		}

		var raw forecast.RawForecast
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode forecast: %w", err)
		}
		return raw, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return forecast.RawForecast{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return forecast.RawForecast{}, err
	}
	raw, ok := result.(forecast.RawForecast)
	if !ok {
		return forecast.RawForecast{}, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return raw, nil
}

func (c *Client) query(q forecast.Query) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(q.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(q.Lon, 'f', -1, 64))
	values.Set("hourly", hourlyFields)
	values.Set("timezone", c.timezone)
	values.Set("temperature_unit", "fahrenheit")
	values.Set("past_days", "0")
	values.Set("forecast_days", strconv.Itoa(q.Days))
	return values
}

var _ forecast.Provider = (*Client)(nil)
