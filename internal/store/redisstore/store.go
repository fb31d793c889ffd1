package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store wraps the redis client used for schema and generated-SQL caching.
// A nil *Store is valid and behaves as a cache that never hits.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Ping reports whether redis is reachable; callers may run without it.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return redis.ErrClosed
	}
	return s.rdb.Ping(ctx).Err()
}

// Get returns the cached value or "" on miss or any redis failure.
// The cache is best-effort: errors never propagate.
func (s *Store) Get(ctx context.Context, key string) string {
	if s == nil {
		return ""
	}
	v, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	return v
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if s == nil {
		return
	}
	_ = s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *Store) Del(ctx context.Context, keys ...string) {
	if s == nil {
		return
	}
	_ = s.rdb.Del(ctx, keys...).Err()
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}
