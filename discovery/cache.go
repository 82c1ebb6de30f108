package discovery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisCache memoizes discovery outcomes per person and domain. Cache
// problems only cost a repeat lookup, so every failure here degrades to a
// miss.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

const cachePrefix = "discovery:"

func NewRedisCache(addr, password string, db int, ttl time.Duration, logger *logrus.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{
		rdb:    redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
		logger: logger,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Outcome, bool) {
	raw, err := c.rdb.Get(ctx, cachePrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Debug("outcome cache read failed")
		return nil, false
	}
	var outcome Outcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return nil, false
	}
	return &outcome, true
}

func (c *RedisCache) Set(ctx context.Context, key string, outcome *Outcome) {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cachePrefix+key, raw, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("outcome cache write failed")
	}
}

func (c *RedisCache) Close() error { return c.rdb.Close() }
