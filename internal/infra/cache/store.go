// Package cache persists produced artifacts as a best-effort side channel.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration for the artifact cache.
type Config struct {
	URL       string        `yaml:"url"`
	Password  string        `yaml:"password"`
	Namespace string        `yaml:"namespace"`
	TTL       time.Duration `yaml:"ttl"`
}

// Store is the key -> artifact store behind the side-effect adapter.
type Store struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

// NewStore opens the cache namespace and verifies connectivity.
func NewStore(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ns := cfg.Namespace
	if ns == "" {
		ns = "snapflow"
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &Store{rdb: rdb, namespace: ns, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping checks cache availability.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) artifactKey(key string) string {
	return fmt.Sprintf("%s:artifact:%s", s.namespace, key)
}

// Put stores an artifact under key with its content type and a TTL.
func (s *Store) Put(ctx context.Context, key string, payload []byte, contentType string) error {
	k := s.artifactKey(key)

	if err := s.rdb.HSet(ctx, k,
		"data", payload,
		"content_type", contentType,
		"stored_at", time.Now().Unix(),
	).Err(); err != nil {
		return fmt.Errorf("hset failed: %w", err)
	}
	if err := s.rdb.Expire(ctx, k, s.ttl).Err(); err != nil {
		return fmt.Errorf("expire failed: %w", err)
	}
	return nil
}

// Get fetches a cached artifact. Missing keys return redis.Nil.
func (s *Store) Get(ctx context.Context, key string) (payload []byte, contentType string, err error) {
	vals, err := s.rdb.HGetAll(ctx, s.artifactKey(key)).Result()
	if err != nil {
		return nil, "", fmt.Errorf("hgetall failed: %w", err)
	}
	if len(vals) == 0 {
		return nil, "", redis.Nil
	}
	return []byte(vals["data"]), vals["content_type"], nil
}
