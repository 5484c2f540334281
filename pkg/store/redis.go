package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// DialOptions control how the Redis adapter establishes its connection.
type DialOptions struct {
	Addr           string
	DB             int
	PoolSize       int
	ConnectTimeout time.Duration

	// MaxRetries and RetryDelay govern the startup ping loop. Container
	// setups routinely start this service before Redis is accepting
	// connections, so the first ping is retried with a fixed delay.
	MaxRetries int
	RetryDelay time.Duration
}

// RedisStore implements KV on top of a Redis connection pool.
type RedisStore struct {
	client *redis.Client
}

// Dial connects to Redis and verifies the connection with a ping, retrying
// up to opts.MaxRetries times before giving up.
func Dial(ctx context.Context, opts DialOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		DB:          opts.DB,
		PoolSize:    opts.PoolSize,
		DialTimeout: opts.ConnectTimeout,
	})

	retries := opts.MaxRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			log.Debugf("connected to redis at %s (db %d)", opts.Addr, opts.DB)
			return &RedisStore{client: client}, nil
		}
		if attempt < retries {
			log.Warnf("waiting for redis at %s (attempt %d/%d): %v", opts.Addr, attempt, retries, lastErr)
			select {
			case <-time.After(opts.RetryDelay):
			case <-ctx.Done():
				client.Close()
				return nil, ctx.Err()
			}
		}
	}

	client.Close()
	return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, lastErr)
}

func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(values))
	for i, v := range values {
		if str, ok := v.(string); ok {
			out[i] = []byte(str)
		}
	}
	return out, nil
}

func (s *RedisStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return s.client.SAdd(ctx, key, args...).Err()
}

func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *RedisStore) NewBatch() Batch {
	return &redisBatch{pipe: s.client.Pipeline()}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) DBSize(ctx context.Context) (int64, error) {
	return s.client.DBSize(ctx).Result()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// redisBatch queues writes on a pipeline; nothing reaches the server until
// Flush executes the pipeline in one round trip.
type redisBatch struct {
	pipe redis.Pipeliner
	n    int
}

func (b *redisBatch) Put(key string, value []byte) {
	b.pipe.Set(context.Background(), key, value, 0)
	b.n++
}

func (b *redisBatch) SAdd(key string, members ...string) {
	if len(members) == 0 {
		return
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	b.pipe.SAdd(context.Background(), key, args...)
	b.n++
}

func (b *redisBatch) Len() int {
	return b.n
}

func (b *redisBatch) Flush(ctx context.Context) error {
	if b.n == 0 {
		return nil
	}
	if _, err := b.pipe.Exec(ctx); err != nil {
		return fmt.Errorf("executing pipeline of %d writes: %w", b.n, err)
	}
	b.n = 0
	return nil
}
