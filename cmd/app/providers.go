package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
	"github.com/yanqian/outdoor-planner/internal/domain/planner"
	"github.com/yanqian/outdoor-planner/internal/domain/userstate"
	"github.com/yanqian/outdoor-planner/internal/infra/config"
	"github.com/yanqian/outdoor-planner/internal/infra/forecastcache"
	"github.com/yanqian/outdoor-planner/internal/infra/llm/chatgpt"
	"github.com/yanqian/outdoor-planner/internal/infra/llm/tokens"
	"github.com/yanqian/outdoor-planner/internal/infra/openmeteo"
	"github.com/yanqian/outdoor-planner/internal/infra/staterepo"
)

func provideForecastConfig(cfg *config.Config) forecast.Config {
	return forecast.Config{
		CacheTTL:    cfg.Forecast.CacheTTL,
		DefaultDays: cfg.Forecast.DefaultDays,
	}
}

func provideOpenMeteoClient(cfg *config.Config) *openmeteo.Client {
	return openmeteo.NewClient(cfg.Forecast.APIBaseURL, cfg.Forecast.Timezone, cfg.Forecast.Timeout)
}

func provideFallbackCache(cfg *config.Config) *forecastcache.MemoryCache {
	return forecastcache.NewMemoryCache(cfg.Forecast.FallbackCacheSize, cfg.Forecast.CacheTTL)
}

// provideDurableCache returns a nil cache when valkey is disabled or unreachable.
func provideDurableCache(cfg *config.Config, logger *slog.Logger) (forecast.DurableCache, func(), error) {
	noop := func() {}
	if !cfg.Cache.Valkey.Enabled {
		logger.Info("forecast valkey cache disabled, using in-memory cache only")
		return nil, noop, nil
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, using in-memory cache only", "error", err)
		return nil, noop, nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, using in-memory cache only", "error", err)
		return nil, noop, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, using in-memory cache only", "error", err)
		client.Close()
		return nil, noop, nil
	}
	logger.Info("forecast valkey cache enabled", "addr", cfg.Cache.Valkey.Addr)
	return forecastcache.NewValkeyCache(client, cfg.Cache.Valkey.Prefix), client.Close, nil
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideStateRepository(cfg *config.Config, logger *slog.Logger) (userstate.Repository, func(), error) {
	noop := func() {}
	switch cfg.State.Driver {
	case config.StateDriverSQLite:
		if dir := filepath.Dir(cfg.State.SQLitePath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, noop, err
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		repo, err := staterepo.OpenSQLite(ctx, cfg.State.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("sqlite state repository enabled", "path", cfg.State.SQLitePath)
		return repo, func() {
			if err := repo.Close(); err != nil {
				logger.Error("closing sqlite state repository", "error", err)
			}
		}, nil
	case config.StateDriverPostgres:
		poolConfig, err := pgxpool.ParseConfig(strings.TrimSpace(cfg.State.Postgres.DSN))
		if err != nil {
			return nil, noop, err
		}
		if cfg.State.Postgres.MaxConns > 0 {
			poolConfig.MaxConns = cfg.State.Postgres.MaxConns
		}
		if cfg.State.Postgres.MinConns > 0 {
			poolConfig.MinConns = cfg.State.Postgres.MinConns
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, noop, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		repo := staterepo.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		logger.Info("postgres state repository enabled")
		return repo, pool.Close, nil
	default:
		logger.Info("using in-memory state repository")
		return staterepo.NewMemoryRepository(), noop, nil
	}
}

// provideChatClient returns a nil ChatClient when no API key is configured so the planner reports AI_UNAVAILABLE.
func provideChatClient(cfg *config.Config, logger *slog.Logger) (planner.ChatClient, error) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("llm api key not set, AI planning disabled")
		return nil, nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func provideTokenCounter(cfg *config.Config, logger *slog.Logger) *tokens.Counter {
	return tokens.NewCounter(cfg.LLM.Model, logger)
}

func providePlannerConfig(cfg *config.Config) planner.Config {
	return planner.Config{
		DefaultUserID:   cfg.Planner.DefaultUserID,
		DefaultQuestion: cfg.Planner.DefaultQuestion,
		DefaultDays:     cfg.Forecast.DefaultDays,
		Model:           cfg.LLM.Model,
		Temperature:     cfg.LLM.Temperature,
		PlanPrompt:      cfg.Planner.PlanPrompt,
		IndoorPrompt:    cfg.Planner.IndoorPrompt,
	}
}
