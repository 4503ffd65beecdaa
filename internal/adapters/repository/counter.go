package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// StoreCounter derives race ids from the highest id in the store. It is safe
// for one process; ids reserved but not yet stored are remembered so two
// reservations never overlap.
type StoreCounter struct {
	mu    sync.Mutex
	store Store
	last  int
}

var _ Counter = (*StoreCounter)(nil)

// NewStoreCounter returns a counter over store.
func NewStoreCounter(store Store) *StoreCounter {
	return &StoreCounter{store: store}
}

// Reserve implements Counter.
func (c *StoreCounter) Reserve(ctx context.Context, n int) (int, error) {
	if n < 1 {
		return 0, ErrInvalidReserve
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	maxID, err := c.store.MaxRaceID(ctx)
	if err != nil {
		return 0, fmt.Errorf("reserve race ids: %w", err)
	}
	first := max(maxID, c.last) + 1
	c.last = first + n - 1
	return first, nil
}

// RedisClient is the subset of redis.Cmdable the counter needs.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	IncrBy(ctx context.Context, key string, value int64) *redis.IntCmd
}

// RedisCounter shares race ids between processes through one Redis key.
// The key is seeded from the store on first use.
type RedisCounter struct {
	client RedisClient
	store  Store
	key    string
}

var _ Counter = (*RedisCounter)(nil)

// NewRedisCounter returns a counter on client, seeded from store.
func NewRedisCounter(client RedisClient, store Store, opts ...RedisCounterOption) *RedisCounter {
	c := &RedisCounter{client: client, store: store, key: "alpine:race_id"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reserve implements Counter.
func (c *RedisCounter) Reserve(ctx context.Context, n int) (int, error) {
	if n < 1 {
		return 0, ErrInvalidReserve
	}
	maxID, err := c.store.MaxRaceID(ctx)
	if err != nil {
		return 0, fmt.Errorf("reserve race ids: %w", err)
	}
	if err := c.client.SetNX(ctx, c.key, maxID, 0).Err(); err != nil {
		return 0, fmt.Errorf("seed %s: %w", c.key, err)
	}
	last, err := c.client.IncrBy(ctx, c.key, int64(n)).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", c.key, err)
	}
	first := int(last) - n + 1
	if first <= maxID {
		// Key lags the store, e.g. after a Redis flush. Skip past the stored ids.
		last, err = c.client.IncrBy(ctx, c.key, int64(maxID-first+1)).Result()
		if err != nil {
			return 0, fmt.Errorf("incr %s: %w", c.key, err)
		}
		first = int(last) - n + 1
	}
	return first, nil
}
