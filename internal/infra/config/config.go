package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// State storage drivers.
const (
	StateDriverMemory   = "memory"
	StateDriverSQLite   = "sqlite"
	StateDriverPostgres = "postgres"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	LLM      LLMConfig      `yaml:"llm"`
	Forecast ForecastConfig `yaml:"forecast"`
	Cache    CacheConfig    `yaml:"cache"`
	State    StateConfig    `yaml:"state"`
	Planner  PlannerConfig  `yaml:"planner"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address         string          `yaml:"address"`
	ReadTimeout     time.Duration   `yaml:"readTimeout"`
	WriteTimeout    time.Duration   `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration   `yaml:"shutdownTimeout"`
	AllowedOrigins  []string        `yaml:"allowedOrigins"`
	RateLimit       RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// LLMConfig contains settings for the OpenAI compatible chat API. An empty APIKey disables AI.
type LLMConfig struct {
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ForecastConfig controls the upstream weather provider and the fallback cache.
type ForecastConfig struct {
	APIBaseURL        string        `yaml:"apiBaseUrl"`
	Timezone          string        `yaml:"timezone"`
	DefaultDays       int           `yaml:"defaultDays"`
	CacheTTL          time.Duration `yaml:"cacheTtl"`
	FallbackCacheSize int           `yaml:"fallbackCacheSize"`
	Timeout           time.Duration `yaml:"timeout"`
}

// CacheConfig configures the shared forecast cache.
type CacheConfig struct {
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// StateConfig selects where per-user state lives.
type StateConfig struct {
	Driver     string         `yaml:"driver"`
	SQLitePath string         `yaml:"sqlitePath"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// PlannerConfig holds request defaults and prompt overrides. Empty prompts use the built-in ones.
type PlannerConfig struct {
	DefaultUserID   string `yaml:"defaultUserId"`
	DefaultQuestion string `yaml:"defaultQuestion"`
	PlanPrompt      string `yaml:"planPrompt"`
	IndoorPrompt    string `yaml:"indoorPrompt"`
}

// Load reads configuration from .env, a YAML file and environment variables, in that order.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 32); err == nil {
			cfg.LLM.Temperature = float32(parsed)
		}
	}
	if v := os.Getenv("WEATHER_API_BASE"); v != "" {
		cfg.Forecast.APIBaseURL = v
	}
	if v := os.Getenv("FORECAST_TIMEZONE"); v != "" {
		cfg.Forecast.Timezone = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.Forecast.CacheTTL = time.Duration(parsed) * time.Second
		}
	}
	if v := os.Getenv("FORECAST_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Forecast.CacheTTL = parsed
		}
	}
	if v := os.Getenv("FORECAST_CACHE_ENABLED"); v != "" {
		cfg.Cache.Valkey.Enabled = parseBool(v)
	}
	if v := os.Getenv("FORECAST_CACHE_ADDR"); v != "" {
		cfg.Cache.Valkey.Addr = v
	}
	if v := os.Getenv("STATE_DRIVER"); v != "" {
		cfg.State.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("STATE_SQLITE_PATH"); v != "" {
		cfg.State.SQLitePath = v
	}
	if v := os.Getenv("STATE_POSTGRES_DSN"); v != "" {
		cfg.State.Postgres.DSN = v
	}
	if v := os.Getenv("PLANNER_DEFAULT_USER_ID"); v != "" {
		cfg.Planner.DefaultUserID = v
	}
	if v := os.Getenv("PLANNER_DEFAULT_QUESTION"); v != "" {
		cfg.Planner.DefaultQuestion = v
	}
	if v := os.Getenv("PLANNER_PLAN_PROMPT"); v != "" {
		cfg.Planner.PlanPrompt = v
	}
	if v := os.Getenv("PLANNER_INDOOR_PROMPT"); v != "" {
		cfg.Planner.IndoorPrompt = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    90 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		Forecast: ForecastConfig{
			APIBaseURL:        "https://api.open-meteo.com/v1/forecast",
			Timezone:          "America/New_York",
			DefaultDays:       7,
			CacheTTL:          5400 * time.Second,
			FallbackCacheSize: 256,
			Timeout:           10 * time.Second,
		},
		Cache: CacheConfig{
			Valkey: ValkeyConfig{
				Enabled: false,
				Prefix:  "forecast",
			},
		},
		State: StateConfig{
			Driver:     StateDriverMemory,
			SQLitePath: "data/state.db",
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Planner: PlannerConfig{
			DefaultUserID:   "demo-user-1",
			DefaultQuestion: "Plan my week for two runs and a picnic.",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("http.shutdownTimeout must be positive")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model cannot be empty")
	}
	if c.LLM.Temperature < 0 {
		return errors.New("llm.temperature cannot be negative")
	}
	if budget := c.LLM.Timeout + c.Forecast.Timeout; c.HTTP.WriteTimeout > 0 && c.HTTP.WriteTimeout <= budget {
		return fmt.Errorf("http.writeTimeout (%s) must exceed llm.timeout + forecast.timeout (%s)", c.HTTP.WriteTimeout, budget)
	}
	if strings.TrimSpace(c.Forecast.APIBaseURL) == "" {
		return errors.New("forecast.apiBaseUrl cannot be empty")
	}
	if c.Forecast.DefaultDays < 1 || c.Forecast.DefaultDays > 16 {
		return errors.New("forecast.defaultDays must be between 1 and 16")
	}
	if c.Forecast.CacheTTL <= 0 {
		return errors.New("forecast.cacheTtl must be positive")
	}
	if c.Forecast.FallbackCacheSize <= 0 {
		return errors.New("forecast.fallbackCacheSize must be positive")
	}
	if c.Cache.Valkey.Enabled && strings.TrimSpace(c.Cache.Valkey.Addr) == "" {
		return errors.New("cache.valkey.addr cannot be empty when valkey cache is enabled")
	}
	switch c.State.Driver {
	case StateDriverMemory:
	case StateDriverSQLite:
		if strings.TrimSpace(c.State.SQLitePath) == "" {
			return errors.New("state.sqlitePath cannot be empty for the sqlite driver")
		}
	case StateDriverPostgres:
		if strings.TrimSpace(c.State.Postgres.DSN) == "" {
			return errors.New("state.postgres.dsn cannot be empty for the postgres driver")
		}
	default:
		return fmt.Errorf("state.driver %q is not supported", c.State.Driver)
	}
	return nil
}
