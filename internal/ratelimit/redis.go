package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

// RedisConfig holds the connection settings for the shared limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Redis shares the rate window across gateway instances. Each accepted call
// sets a key that expires after the cooldown; SET NX makes the check atomic.
type Redis struct {
	rdb      *redis.Client
	prefix   string
	cooldown time.Duration
	log      zerolog.Logger
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig, cooldown time.Duration, log zerolog.Logger) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisWithClient(rdb, cooldown, log), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(rdb *redis.Client, cooldown time.Duration, log zerolog.Logger) *Redis {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Redis{
		rdb:      rdb,
		prefix:   "chatgate:ratelimit:",
		cooldown: cooldown,
		log:      log,
	}
}

// Allow claims the client's cooldown slot. Redis failures let the call through.
func (r *Redis) Allow(ctx context.Context, key string) error {
	redisKey := r.prefix + key
	ok, err := r.rdb.SetNX(ctx, redisKey, 1, r.cooldown).Result()
	if err != nil {
		r.log.Warn().Err(err).Str("client", key).Msg("rate limit check failed, allowing request")
		return nil
	}
	if ok {
		return nil
	}

	retry := r.cooldown
	if ttl, err := r.rdb.PTTL(ctx, redisKey).Result(); err == nil && ttl > 0 {
		retry = ttl
	}
	return &domain.ThrottledError{RetryAfter: retry}
}

// Close releases the redis connection.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
