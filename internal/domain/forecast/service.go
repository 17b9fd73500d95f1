package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/yanqian/outdoor-planner/pkg/errors"
	"github.com/yanqian/outdoor-planner/pkg/util"
)

const (
	codeInvalidCoordinates = "INVALID_COORDINATES"
	codeEmptyForecast      = "EMPTY_OR_INVALID_FORECAST"
	codeProviderFailed     = "PROVIDER_ERROR"

	defaultCacheTTL = 5400 * time.Second
	defaultDays     = 7
	maxDays         = 16
)

// Service fetches hourly forecasts through the cache tiers.
type Service interface {
	// GetForecast never fails; on any problem it returns Empty().
	GetForecast(ctx context.Context, lat, lon float64, days int) RawForecast
}

type service struct {
	cfg      Config
	provider Provider
	durable  DurableCache
	fallback FallbackCache
	logger   *slog.Logger
}

// NewService wires the fetcher. durable may be nil when no shared cache is configured.
func NewService(cfg Config, provider Provider, durable DurableCache, fallback FallbackCache, logger *slog.Logger) Service {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.DefaultDays <= 0 {
		cfg.DefaultDays = defaultDays
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = maxDays
	}
	return &service{
		cfg:      cfg,
		provider: provider,
		durable:  durable,
		fallback: fallback,
		logger:   logger.With("component", "forecast.service"),
	}
}

func (s *service) GetForecast(ctx context.Context, lat, lon float64, days int) RawForecast {
	raw, err := s.fetch(ctx, lat, lon, days)
	if err != nil {
		s.logger.Error("forecast fetch failed", "lat", lat, "lon", lon, "days", days, "error", err)
		return Empty()
	}
	return raw
}

func (s *service) fetch(ctx context.Context, lat, lon float64, days int) (RawForecast, error) {
	if !util.IsFinite(lat) || !util.IsFinite(lon) {
		return RawForecast{}, apperrors.Wrap(codeInvalidCoordinates, fmt.Sprintf("invalid coordinates: lat=%v, lon=%v", lat, lon), nil)
	}
	days = s.clampDays(days)
	key := CacheKey(lat, lon, days)

	if s.durable != nil {
		cached, ok, err := s.durable.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("durable forecast cache read failed", "key", key, "error", err)
		case ok:
			s.logger.Debug("using cached forecast", "key", key, "tier", "durable")
			return cached, nil
		}
	}
	if s.fallback != nil {
		if cached, ok, err := s.fallback.Get(ctx, key); err == nil && ok {
			s.logger.Debug("using cached forecast", "key", key, "tier", "memory")
			return cached, nil
		}
	}

	s.logger.Info("fetching forecast", "lat", lat, "lon", lon, "days", days)
	raw, err := s.provider.Fetch(ctx, Query{Lat: lat, Lon: lon, Days: days})
	if err != nil {
		return RawForecast{}, apperrors.Wrap(codeProviderFailed, "forecast provider request failed", err)
	}
	if err := validateShape(raw); err != nil {
		return RawForecast{}, err
	}

	s.store(ctx, key, raw)
	return raw, nil
}

func (s *service) store(ctx context.Context, key string, raw RawForecast) {
	if s.durable != nil {
		err := s.durable.Set(ctx, key, raw, s.cfg.CacheTTL)
		if err == nil {
			return
		}
		s.logger.Warn("durable forecast cache write failed, using memory cache", "key", key, "error", err)
	}
	if s.fallback == nil {
		return
	}
	if err := s.fallback.Set(ctx, key, raw, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("memory forecast cache write failed", "key", key, "error", err)
	}
}

func (s *service) clampDays(days int) int {
	if days <= 0 {
		return s.cfg.DefaultDays
	}
	if days > s.cfg.MaxDays {
		return s.cfg.MaxDays
	}
	return days
}

func validateShape(raw RawForecast) error {
	if len(raw.Hourly.Time) == 0 || len(raw.Hourly.Temperature2m) == 0 {
		return apperrors.Wrap(codeEmptyForecast, fmt.Sprintf("empty forecast data received: time=%d temperature=%d",
			len(raw.Hourly.Time), len(raw.Hourly.Temperature2m)), nil)
	}
	return nil
}

// CacheKey rounds coordinates to three decimals so near-identical requests share an entry.
func CacheKey(lat, lon float64, days int) string {
	return fmt.Sprintf("%.3f:%.3f:%d:F", lat, lon, days)
}
