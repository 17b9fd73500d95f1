package forecast

import (
	"context"
	"time"
)

// RawForecast is the provider payload as received. It is cached verbatim.
type RawForecast struct {
	Latitude    float64     `json:"latitude,omitempty"`
	Longitude   float64     `json:"longitude,omitempty"`
	Timezone    string      `json:"timezone,omitempty"`
	HourlyUnits HourlyUnits `json:"hourly_units"`
	Hourly      Hourly      `json:"hourly"`
}

// HourlyUnits declares the unit of each hourly series.
type HourlyUnits struct {
	Time                     string `json:"time,omitempty"`
	Temperature2m            string `json:"temperature_2m,omitempty"`
	PrecipitationProbability string `json:"precipitation_probability,omitempty"`
}

// Hourly holds parallel hourly series. A nil element is a missing reading.
type Hourly struct {
	Time                     []string   `json:"time"`
	Temperature2m            []*float64 `json:"temperature_2m"`
	PrecipitationProbability []*float64 `json:"precipitation_probability"`
}

// Empty is the "no data" sentinel handed downstream when fetching fails.
func Empty() RawForecast {
	return RawForecast{Hourly: Hourly{
		Time:                     []string{},
		Temperature2m:            []*float64{},
		PrecipitationProbability: []*float64{},
	}}
}

// DailyFact is one day of grounding data in Fahrenheit. Nil fields are absent.
type DailyFact struct {
	Date      string   `json:"date"`
	TempMaxF  *float64 `json:"tmaxF"`
	TempMinF  *float64 `json:"tminF"`
	PrecipPct *float64 `json:"precipPct"`
}

// Slim is the column view of the daily facts exposed to clients for debugging.
type Slim struct {
	Dates  []string   `json:"dates"`
	TMax   []*float64 `json:"tmax"`
	TMin   []*float64 `json:"tmin"`
	Precip []*float64 `json:"precip"`
}

// Query identifies an upstream forecast request.
type Query struct {
	Lat  float64
	Lon  float64
	Days int
}

// Config wires runtime settings for the forecast fetcher.
type Config struct {
	CacheTTL    time.Duration
	DefaultDays int
	MaxDays     int
}

// Provider fetches hourly series from the upstream weather API.
type Provider interface {
	Fetch(ctx context.Context, q Query) (RawForecast, error)
}

// Cache stores raw payloads by key.
type Cache interface {
	Get(ctx context.Context, key string) (RawForecast, bool, error)
	Set(ctx context.Context, key string, value RawForecast, ttl time.Duration) error
}

// DurableCache is the shared cache tier (Valkey). It may be absent.
type DurableCache interface {
	Cache
}

// FallbackCache is the process-local tier used when the durable cache misses or fails.
type FallbackCache interface {
	Cache
}
