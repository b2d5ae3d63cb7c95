// Package cache is the Redis-backed cache coordinator shared by the
// revocation registry and the application's derived views.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is the only failure Get reports. Literal absence, transport
// failure and a corrupt stored value all surface as a miss: callers must
// treat it as "recompute", never as "this resource does not exist".
var ErrMiss = errors.New("cache miss")

// Config holds cache coordinator settings.
type Config struct {
	// Namespace prefixes every key written through this coordinator.
	Namespace string
	// DefaultTTL applies when Set is called with a non-positive TTL.
	DefaultTTL time.Duration
}

// Service is the shared cache coordinator: generic get/set/remove over a
// string key to a JSON-serialized value with per-entry TTL. It is an
// optimization layer, not a source of truth; its unavailability never fails
// the surrounding operation. Safe for concurrent use.
type Service struct {
	client     redis.UniversalClient
	logger     *slog.Logger
	namespace  string
	defaultTTL time.Duration
}

// New creates a cache coordinator over the given Redis client.
func New(client redis.UniversalClient, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 15 * time.Minute
	}

	return &Service{
		client:     client,
		logger:     logger,
		namespace:  cfg.Namespace,
		defaultTTL: cfg.DefaultTTL,
	}
}

func (s *Service) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

// Get unmarshals the cached value under key into dest. Any failure is a
// miss; the underlying cause is logged, not returned.
func (s *Service) Get(ctx context.Context, key string, dest any) error {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache get failed", "key", key, "error", err)
		}
		return ErrMiss
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("cache value corrupt", "key", key, "error", err)
		return ErrMiss
	}

	return nil
}

// Set stores value under key. A non-positive ttl selects the configured
// default. Failures are logged and reported but callers are expected to
// continue; the write path must not depend on cache uptime.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache marshal failed", "key", key, "error", err)
		return err
	}

	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	if err := s.client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", "key", key, "error", err)
		return err
	}

	return nil
}

// SetString stores a raw string value, bypassing JSON. Used by the
// revocation registry, whose entries carry no structure.
func (s *Service) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", "key", key, "error", err)
		return err
	}

	return nil
}

// Exists reports whether key is present. Errors are returned so callers can
// choose their own degradation policy.
func (s *Service) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Remove deletes the given keys. Missing keys are not an error.
func (s *Service) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = s.key(k)
	}

	if err := s.client.Del(ctx, namespaced...).Err(); err != nil {
		s.logger.Warn("cache remove failed", "keys", keys, "error", err)
		return err
	}

	return nil
}

// RemovePattern deletes every key matching pattern, scanning in batches so
// large invalidation sets do not block the server the way KEYS would.
func (s *Service) RemovePattern(ctx context.Context, pattern string) error {
	full := s.key(pattern)

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, full, 512).Result()
		if err != nil {
			s.logger.Warn("cache scan failed", "pattern", pattern, "error", err)
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				s.logger.Warn("cache remove failed", "pattern", pattern, "error", err)
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Invalidate removes an explicit set of derived keys and patterns after a
// domain mutation. There is no dependency graph: every mutation path names
// its own invalidation set (see keys.go). The first error is returned after
// all removals have been attempted.
func (s *Service) Invalidate(ctx context.Context, set InvalidationSet) error {
	var first error

	if err := s.Remove(ctx, set.Keys...); err != nil && first == nil {
		first = err
	}
	for _, p := range set.Patterns {
		if err := s.RemovePattern(ctx, p); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Ping reports cache availability.
func (s *Service) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
