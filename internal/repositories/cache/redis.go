// Package cache implements the online store on top of Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"featurestore/internal/config"
	apperr "featurestore/internal/errors"

	"github.com/redis/go-redis/v9"
)

// DefaultTimeout bounds every store call when no timeout is configured.
const DefaultTimeout = 2 * time.Second

const scanPageSize = 100

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// RedisStore is the online key-value store. A missing key is reported as
// found == false with a nil error; transport failures surface as
// ErrStoreUnavailable or ErrStoreTimeout.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func NewRedisStore(client *redis.Client, timeout time.Duration) *RedisStore {
	if client == nil {
		panic("redis client is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RedisStore{client: client, timeout: timeout}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		s.misses.Add(1)
		return "", false, nil
	}
	if err != nil {
		return "", false, classify(err)
	}
	s.hits.Add(1)
	return val, true, nil
}

// Set stores value under key. A zero ttl keeps the key until it is
// overwritten or deleted.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return classify(s.client.Set(ctx, key, value, ttl).Err())
}

func (s *RedisStore) Increment(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (s *RedisStore) SetExpiry(ctx context.Context, key string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return classify(s.client.Expire(ctx, key, ttl).Err())
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return classify(s.client.Del(ctx, keys...).Err())
}

// DeleteMatching removes every key matching pattern using SCAN, so it does
// not block the server the way KEYS does. Each page gets its own timeout;
// the whole sweep is bounded only by ctx. It returns the number of keys
// deleted.
func (s *RedisStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	deleted := 0
	var cursor uint64
	for {
		n, next, err := s.deletePage(ctx, pattern, cursor)
		deleted += n
		if err != nil {
			return deleted, err
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}

func (s *RedisStore) deletePage(ctx context.Context, pattern string, cursor uint64) (int, uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys, next, err := s.client.Scan(ctx, cursor, pattern, scanPageSize).Result()
	if err != nil {
		return 0, 0, classify(err)
	}
	if len(keys) == 0 {
		return 0, next, nil
	}

	n, err := s.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, 0, classify(err)
	}
	return int(n), next, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		return classify(fmt.Errorf("redis connection failed: %w", err))
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// classify maps go-redis and network errors onto the store error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.ErrStoreTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.Wrap(apperr.ErrStoreTimeout, err)
	}
	return apperr.Wrap(apperr.ErrStoreUnavailable, err)
}
