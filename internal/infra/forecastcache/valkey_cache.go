package forecastcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/outdoor-planner/internal/domain/forecast"
)

// ValkeyCache is the durable tier shared between instances.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "forecast"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

// Get reads and decodes the payload stored under key.
func (c *ValkeyCache) Get(ctx context.Context, key string) (forecast.RawForecast, bool, error) {
	cmd := c.client.B().Get().Key(c.key(key)).Build()
	payload, err := c.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return forecast.RawForecast{}, false, nil
		}
		return forecast.RawForecast{}, false, err
	}
	var raw forecast.RawForecast
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return forecast.RawForecast{}, false, err
	}
	return raw, true, nil
}

// Set stores value with an expiry of ttl.
func (c *ValkeyCache) Set(ctx context.Context, key string, value forecast.RawForecast, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	builder := c.client.B().Set().Key(c.key(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

func (c *ValkeyCache) key(key string) string {
	return c.prefix + ":" + key
}

var _ forecast.DurableCache = (*ValkeyCache)(nil)
