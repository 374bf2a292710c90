// Package idempotency remembers the outcome of requests that carry an idempotency key.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/field-service/pkg/apperr"
	"github.com/tair/field-service/pkg/logger"
)

const (
	pendingMarker = "__pending__"

	// DefaultTTL is how long a completed result is replayable
	DefaultTTL = 24 * time.Hour
	// DefaultLockTTL bounds how long an in-flight request holds its key
	DefaultLockTTL = 30 * time.Second
)

// Store guards a unit of work with an idempotency key.
// Begin returns the stored result of a completed request, or nil after acquiring the key.
// A key held by an in-flight request yields a ConcurrentModification error.
type Store interface {
	Begin(ctx context.Context, key string) ([]byte, error)
	Complete(ctx context.Context, key string, result []byte) error
	Release(ctx context.Context, key string) error
}

func inFlight(key string) error {
	return apperr.New(apperr.KindConcurrentModification, "request with this idempotency key is in progress").
		With("idempotency_key", key)
}

// RedisStore keeps idempotency keys in Redis
type RedisStore struct {
	redis   *redis.Client
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

// NewRedisStore creates a Redis backed store
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "idempotency"
	}
	return &RedisStore{redis: client, prefix: prefix, ttl: DefaultTTL, lockTTL: DefaultLockTTL}
}

func (s *RedisStore) key(k string) string {
	return fmt.Sprintf("%s:%s", s.prefix, k)
}

func (s *RedisStore) Begin(ctx context.Context, key string) ([]byte, error) {
	acquired, err := s.redis.SetNX(ctx, s.key(key), pendingMarker, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire idempotency key: %w", err)
	}
	if acquired {
		return nil, nil
	}

	stored, err := s.redis.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		return s.Begin(ctx, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if string(stored) == pendingMarker {
		return nil, inFlight(key)
	}

	logger.Debug(ctx).Str("idempotency_key", key).Msg("Replaying stored result")
	return stored, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, result []byte) error {
	if err := s.redis.Set(ctx, s.key(key), result, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent result: %w", err)
	}
	return nil
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.redis.Del(ctx, s.key(key)).Err()
}

// MemoryStore is an in-process Store for single-instance deployments and tests
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Begin(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[key]
	if !ok {
		s.entries[key] = nil
		return nil, nil
	}
	if stored == nil {
		return nil, inFlight(key)
	}
	return stored, nil
}

func (s *MemoryStore) Complete(_ context.Context, key string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = result
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
