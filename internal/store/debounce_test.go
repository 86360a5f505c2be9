package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisDebouncer_WindowSuppressesRepeats(t *testing.T) {
	mr, client := setupTestRedis(t)
	d := NewRedisDebouncer(client, "smartcane:debounce:", time.Minute)
	ctx := context.Background()

	ok, err := d.Allow(ctx, "U123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.Allow(ctx, "U123")
	require.NoError(t, err)
	assert.False(t, ok)

	// other keys are independent
	ok, err = d.Allow(ctx, "U999")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, mr.Exists("smartcane:debounce:U123"))

	mr.FastForward(61 * time.Second)
	ok, err = d.Allow(ctx, "U123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisDebouncer_Release(t *testing.T) {
	_, client := setupTestRedis(t)
	d := NewRedisDebouncer(client, "p:", time.Hour)
	ctx := context.Background()

	ok, err := d.Allow(ctx, "U1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, d.Release(ctx, "U1"))

	ok, err = d.Allow(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisDebouncer_RedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	d := NewRedisDebouncer(client, "p:", time.Minute)
	mr.Close()

	_, err := d.Allow(context.Background(), "U123")
	assert.Error(t, err)
}

func TestNoopDebouncer(t *testing.T) {
	var d Debouncer = NoopDebouncer{}
	for i := 0; i < 3; i++ {
		ok, err := d.Allow(context.Background(), "k")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	assert.NoError(t, d.Release(context.Background(), "k"))
}
