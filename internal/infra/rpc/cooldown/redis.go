package cooldown

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "chainreader:cooldown:"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewRedisClient parses cfg.URL and checks the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// RedisStore shares cooldown marks between processes.
// Values are unix milliseconds; each key expires after ttl.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store on top of rdb. ttl should be at least the
// longest cooldown window in use; 0 keeps keys forever.
func NewRedisStore(rdb redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Key returns the Redis key for endpoint. URLs are hashed since they may
// carry API keys.
func (s *RedisStore) Key(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return s.prefix + hex.EncodeToString(sum[:])
}

func (s *RedisStore) MarkFailed(ctx context.Context, endpoint string, at time.Time) error {
	if err := s.rdb.Set(ctx, s.Key(endpoint), at.UnixMilli(), s.ttl).Err(); err != nil {
		return fmt.Errorf("set cooldown: %w", err)
	}
	return nil
}

func (s *RedisStore) LastFailure(ctx context.Context, endpoint string) (time.Time, bool, error) {
	val, err := s.rdb.Get(ctx, s.Key(endpoint)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get cooldown: %w", err)
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid cooldown value %q: %w", val, err)
	}
	return time.UnixMilli(ms), true, nil
}
