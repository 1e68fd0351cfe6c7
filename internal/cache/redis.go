package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/item"
	"github.com/redis/go-redis/v9"
)

const generationKey = "items:list:gen"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient builds a client with short timeouts; a slow cache should never stall a request.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// redisClient is the part of *redis.Client the list cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Redis shares list results between API instances. Entries are namespaced by a
// generation counter, so Invalidate is a single INCR and stale keys age out by TTL.
type Redis struct {
	rdb redisClient
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return newRedis(rdb, ttl)
}

func newRedis(rdb redisClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.rdb.Close()
}

// Get resolves the generation once; the returned Version carries the full key,
// so a Set after an Invalidate lands under the retired generation.
func (c *Redis) Get(ctx context.Context, key string) ([]item.Item, Version, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, Version{}, false
	}

	v := Version{key: generationKeyFor(gen, key), gen: gen, ok: true}

	raw, err := c.rdb.Get(ctx, v.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "list cache get failed", "err", err)
		}
		return nil, v, false
	}

	var items []item.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.WarnContext(ctx, "list cache entry corrupt", "key", v.key, "err", err)
		return nil, v, false
	}

	return items, v, true
}

func (c *Redis) Set(ctx context.Context, v Version, items []item.Item) {
	if !v.ok {
		return
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, v.key, raw, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "list cache set failed", "err", err)
	}
}

func (c *Redis) Invalidate(ctx context.Context) {
	if err := c.rdb.Incr(ctx, generationKey).Err(); err != nil {
		slog.WarnContext(ctx, "list cache invalidate failed", "err", err)
	}
}

func (c *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		slog.WarnContext(ctx, "list cache generation lookup failed", "err", err)
		return 0, err
	}
	return gen, nil
}

func generationKeyFor(gen int64, key string) string {
	return "gen=" + strconv.FormatInt(gen, 10) + ":" + key
}
