package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisSlot.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisSlot stores named slots as Redis string keys under a prefix.
type RedisSlot struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisSlot connects to Redis and verifies the connection with PING.
func NewRedisSlot(ctx context.Context, opts RedisOptions) (*RedisSlot, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return NewRedisSlotFromClient(rdb, opts.Prefix), nil
}

// NewRedisSlotFromClient wraps an existing client.
func NewRedisSlotFromClient(rdb redis.UniversalClient, prefix string) *RedisSlot {
	return &RedisSlot{rdb: rdb, prefix: prefix}
}

// LoadSlot returns the value stored under key, or nil if the key is absent.
func (r *RedisSlot) LoadSlot(ctx context.Context, key string) ([]byte, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading slot %q: %w", key, err)
	}
	return value, nil
}

// SaveSlot replaces the value stored under key. Keys never expire.
func (r *RedisSlot) SaveSlot(ctx context.Context, key string, value []byte) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("saving slot %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisSlot) Close() error {
	return r.rdb.Close()
}
