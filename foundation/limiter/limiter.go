// Package limiter provides a fixed-window attempt counter backed by Redis.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimitExceeded is returned when the number of attempts inside the
// current window is above the configured limit.
var ErrLimitExceeded = errors.New("attempt limit exceeded")

// Connect parses the redis url and verifies the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parseurl: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return client, nil
}

// Limiter counts attempts per key inside a fixed window.
type Limiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// New constructs a limiter allowing limit attempts per window for each key.
func New(client *redis.Client, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow records an attempt for the key and returns the number of attempts
// left in the window. ErrLimitExceeded is returned once the limit is passed.
// The increment and the window expiry are applied in one MULTI/EXEC so a
// counter never exists without a TTL. EXPIRE NX needs Redis 7 or later.
func (l *Limiter) Allow(ctx context.Context, key string) (int, error) {
	k := l.prefix + ":" + key

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("incr: %w", err)
	}

	n := int(incr.Val())
	if n > l.limit {
		return 0, ErrLimitExceeded
	}

	return l.limit - n, nil
}

// Reset clears the attempts recorded for the key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+":"+key).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}

	return nil
}
