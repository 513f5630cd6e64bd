package counter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPoolSize    = 20
	defaultRedisMaxRetries  = 3
	defaultRedisDialTimeout = 5 * time.Second
)

// RedisConfig configures the Redis-backed counter store.
type RedisConfig struct {
	Addrs       []string
	Password    string
	DB          int
	KeyPrefix   string
	PoolSize    int
	DialTimeout time.Duration
}

// RedisStore implements Store on a Redis deployment via go-redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("at least one redis address is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultRedisPoolSize
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultRedisDialTimeout
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       cfg.Addrs,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    poolSize,
		MaxRetries:  defaultRedisMaxRetries,
		DialTimeout: dialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix)}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + key
}

// Get returns the stored value for key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key with a TTL.
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// IncrField atomically increments a hash field.
func (s *RedisStore) IncrField(ctx context.Context, hashKey, field string, by int64) (int64, error) {
	value, err := s.client.HIncrBy(ctx, s.key(hashKey), field, by).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hincrby %s %s: %w", hashKey, field, err)
	}
	return value, nil
}

// Expire refreshes the TTL on a key.
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, s.key(key), ttl).Err(); err != nil {
		return fmt.Errorf("redis expire %s: %w", key, err)
	}
	return nil
}

// Fields returns all fields of a hash key.
func (s *RedisStore) Fields(ctx context.Context, hashKey string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, s.key(hashKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", hashKey, err)
	}
	return fields, nil
}
