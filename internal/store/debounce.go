package store

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Debouncer 判断同一来源的跌倒提醒是否落在抑制窗口内
type Debouncer interface {
	// Allow reports whether an alert for key may be sent now. It opens a new
	// window when it returns true.
	Allow(ctx context.Context, key string) (bool, error)
	// Release closes the window for key, so a failed alert does not suppress
	// the next one.
	Release(ctx context.Context, key string) error
}

// NoopDebouncer 不做抑制（默认行为：每次跌倒都发送）
type NoopDebouncer struct{}

func (NoopDebouncer) Allow(context.Context, string) (bool, error) { return true, nil }

func (NoopDebouncer) Release(context.Context, string) error { return nil }

// RedisDebouncer 基于 SETNX + TTL 的抑制窗口
type RedisDebouncer struct {
	c      *redis.Client
	prefix string
	window time.Duration
}

func NewRedisDebouncer(c *redis.Client, prefix string, window time.Duration) *RedisDebouncer {
	return &RedisDebouncer{c: c, prefix: prefix, window: window}
}

func (d *RedisDebouncer) Allow(ctx context.Context, key string) (bool, error) {
	return d.c.SetNX(ctx, d.prefix+key, time.Now().Unix(), d.window).Result()
}

func (d *RedisDebouncer) Release(ctx context.Context, key string) error {
	return d.c.Del(ctx, d.prefix+key).Err()
}
