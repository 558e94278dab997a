// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/azadnexus/backend/internal/config"
)

// maxConnectBackoff caps the doubling delay between startup dial attempts.
const maxConnectBackoff = 10 * time.Second

// Redis holds the client shared by the token blacklist and the rate
// limiter. Both degrade differently when it is down: the limiter falls
// back to process-local buckets, token checks fail closed.
type Redis struct {
	Client *redis.Client
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	opts.MinIdleConns = cfg.MinIdleConns
	opts.ConnMaxIdleTime = 5 * time.Minute

	return opts, nil
}

// NewRedis dials until a ping succeeds, ConnectAttempts runs out, or ctx
// ends. Redis may still be starting when the API boots.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	r := &Redis{Client: redis.NewClient(opts)}

	attempts := max(cfg.ConnectAttempts, 1)
	backoff := cfg.ConnectBackoff

	for attempt := 1; ; attempt++ {
		err = r.Ping(ctx)
		if err == nil {
			return r, nil
		}
		if attempt == attempts {
			break
		}

		slog.Warn("redis not reachable, retrying",
			"attempt", attempt,
			"max_attempts", attempts,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			_ = r.Close() //nolint:errcheck // cleanup on connection failure
			return nil, fmt.Errorf("connect redis: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxConnectBackoff)
	}

	_ = r.Close() //nolint:errcheck // cleanup on connection failure
	return nil, fmt.Errorf("connect redis after %d attempts: %w", attempts, err)
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.Client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	return r.Client.PoolStats()
}
