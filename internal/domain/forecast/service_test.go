package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/outdoor-planner/pkg/errors"
)

func TestGetForecastFetchesAndWritesDurableCache(t *testing.T) {
	provider := &stubProvider{raw: sampleRaw()}
	durable := newStubCache()
	fallback := newStubCache()
	svc := newTestService(provider, durable, fallback)

	raw := svc.GetForecast(context.Background(), 40.71278, -74.00597, 0)
	require.Len(t, raw.Hourly.Time, 2)
	require.Equal(t, 1, provider.calls)
	require.Equal(t, Query{Lat: 40.71278, Lon: -74.00597, Days: 7}, provider.last)

	key := CacheKey(40.71278, -74.00597, 7)
	require.Equal(t, "40.713:-74.006:7:F", key)
	require.Contains(t, durable.items, key)
	require.Equal(t, 5400*time.Second, durable.ttls[key])
	require.Empty(t, fallback.items)

	raw = svc.GetForecast(context.Background(), 40.7128, -74.006, 7)
	require.Len(t, raw.Hourly.Time, 2)
	require.Equal(t, 1, provider.calls, "rounded coordinates must hit the cache")
}

func TestGetForecastFallsBackToMemoryWhenDurableFails(t *testing.T) {
	provider := &stubProvider{raw: sampleRaw()}
	durable := newStubCache()
	durable.err = errors.New("connection refused")
	fallback := newStubCache()
	svc := newTestService(provider, durable, fallback)

	svc.GetForecast(context.Background(), 1, 2, 3)
	require.Contains(t, fallback.items, CacheKey(1, 2, 3))

	svc.GetForecast(context.Background(), 1, 2, 3)
	require.Equal(t, 1, provider.calls)
}

func TestGetForecastWithoutDurableCache(t *testing.T) {
	provider := &stubProvider{raw: sampleRaw()}
	fallback := newStubCache()
	svc := newTestService(provider, nil, fallback)

	svc.GetForecast(context.Background(), 1, 2, 3)
	svc.GetForecast(context.Background(), 1, 2, 3)
	require.Equal(t, 1, provider.calls)
}

func TestGetForecastInvalidCoordinates(t *testing.T) {
	provider := &stubProvider{raw: sampleRaw()}
	svc := newTestService(provider, nil, newStubCache())

	raw := svc.GetForecast(context.Background(), math.NaN(), 2, 7)
	require.Empty(t, raw.Hourly.Time)
	require.NotNil(t, raw.Hourly.Time)
	require.Zero(t, provider.calls)

	_, err := svc.(*service).fetch(context.Background(), math.Inf(1), 0, 7)
	require.True(t, apperrors.IsCode(err, codeInvalidCoordinates))
}

func TestGetForecastEmptyPayloadIsNotCached(t *testing.T) {
	provider := &stubProvider{raw: RawForecast{}}
	fallback := newStubCache()
	svc := newTestService(provider, nil, fallback)

	raw := svc.GetForecast(context.Background(), 1, 2, 7)
	require.Empty(t, raw.Hourly.Time)
	require.Empty(t, fallback.items)

	_, err := svc.(*service).fetch(context.Background(), 1, 2, 7)
	require.True(t, apperrors.IsCode(err, codeEmptyForecast))
}

func TestGetForecastProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("status=502")}
	svc := newTestService(provider, nil, newStubCache())

	raw := svc.GetForecast(context.Background(), 1, 2, 7)
	require.Empty(t, raw.Hourly.Temperature2m)
}

func TestClampDays(t *testing.T) {
	svc := newTestService(&stubProvider{}, nil, nil).(*service)
	require.Equal(t, 7, svc.clampDays(0))
	require.Equal(t, 3, svc.clampDays(3))
	require.Equal(t, 16, svc.clampDays(40))
}

func newTestService(provider Provider, durable *stubCache, fallback *stubCache) Service {
	var (
		d DurableCache
		f FallbackCache
	)
	if durable != nil {
		d = durable
	}
	if fallback != nil {
		f = fallback
	}
	return NewService(Config{}, provider, d, f, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleRaw() RawForecast {
	return RawForecast{
		HourlyUnits: HourlyUnits{Temperature2m: "°F"},
		Hourly: Hourly{
			Time:                     []string{"2024-05-01T00:00", "2024-05-01T01:00"},
			Temperature2m:            []*float64{ptr(50), ptr(52)},
			PrecipitationProbability: []*float64{ptr(10), ptr(20)},
		},
	}
}

type stubProvider struct {
	raw   RawForecast
	err   error
	calls int
	last  Query
}

func (s *stubProvider) Fetch(ctx context.Context, q Query) (RawForecast, error) {
	s.calls++
	s.last = q
	if s.err != nil {
		return RawForecast{}, s.err
	}
	return s.raw, nil
}

type stubCache struct {
	items map[string]RawForecast
	ttls  map[string]time.Duration
	err   error
}

func newStubCache() *stubCache {
	return &stubCache{items: make(map[string]RawForecast), ttls: make(map[string]time.Duration)}
}

func (s *stubCache) Get(ctx context.Context, key string) (RawForecast, bool, error) {
	if s.err != nil {
		return RawForecast{}, false, s.err
	}
	raw, ok := s.items[key]
	return raw, ok, nil
}

func (s *stubCache) Set(ctx context.Context, key string, value RawForecast, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.items[key] = value
	s.ttls[key] = ttl
	return nil
}
