package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightsearch/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores serialized search results. Entries are namespaced by a
// generation counter; bumping it invalidates every stored search at once and
// the stale keys expire on their own TTL.
// setIfCurrent writes KEYS[2] only while KEYS[1] still holds ARGV[1], so the
// check and the write cannot interleave with an INCR.
var setIfCurrent = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current ~= tonumber(ARGV[1]) then
	return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ttl)
else
	redis.call("SET", KEYS[2], ARGV[2])
end
return 1
`)

type RedisCache struct {
	client    *redis.Client
	searchTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		searchTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, searchTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, searchTTL: searchTTL}
}

// GetSearch decodes the entry for key into dest and reports whether it
// existed. The returned generation is the one the lookup ran against; pass it
// to SetSearch so a result computed before an invalidation is never stored
// under the newer generation.
func (c *RedisCache) GetSearch(ctx context.Context, key string, dest any) (int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, false, err
	}
	data, err := c.client.Get(ctx, searchKey(gen, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gen, false, nil
		}
		return gen, false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return gen, false, err
	}
	return gen, true, nil
}

// SetSearch stores value for key under generation gen. A gen older than the
// current generation is skipped: the value may predate the invalidation.
func (c *RedisCache) SetSearch(ctx context.Context, gen int64, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return setIfCurrent.Run(ctx, c.client,
		[]string{generationKey(), searchKey(gen, key)},
		gen, payload, c.searchTTL.Milliseconds(),
	).Err()
}

func (c *RedisCache) InvalidateSearches(ctx context.Context) error {
	return c.client.Incr(ctx, generationKey()).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func generationKey() string {
	return "cache:flights:generation"
}

func searchKey(gen int64, key string) string {
	return fmt.Sprintf("cache:flights:search:%d:%s", gen, key)
}
