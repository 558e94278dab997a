// AngelaMos | 2026
// redis_test.go

package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azadnexus/backend/internal/config"
)

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{
		URL:          "redis://localhost:6379/2",
		PoolSize:     7,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
	assert.Equal(t, time.Second, opts.ReadTimeout)

	_, err = redisOptions(config.RedisConfig{URL: "not a url"})
	assert.Error(t, err)
}

func TestNewRedisConnects(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{
		URL:             "redis://" + mr.Addr(),
		ConnectAttempts: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Client.Set(context.Background(), "k", "v", 0).Err())
	assert.NotNil(t, r.PoolStats())
}

func TestNewRedisGivesUpAfterAttempts(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	_, err := NewRedis(context.Background(), config.RedisConfig{
		URL:             "redis://" + addr,
		DialTimeout:     100 * time.Millisecond,
		ConnectAttempts: 3,
		ConnectBackoff:  10 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewRedisRetriesUntilReachable(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = mr.Restart()
	}()
	t.Cleanup(mr.Close)

	r, err := NewRedis(context.Background(), config.RedisConfig{
		URL:             "redis://" + addr,
		DialTimeout:     100 * time.Millisecond,
		ConnectAttempts: 20,
		ConnectBackoff:  20 * time.Millisecond,
	})
	require.NoError(t, err)
	_ = r.Close()
}

func TestNewRedisStopsOnCancel(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRedis(ctx, config.RedisConfig{
		URL:             "redis://" + addr,
		ConnectAttempts: 5,
		ConnectBackoff:  time.Minute,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
