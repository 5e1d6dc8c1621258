package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a namespaced key/value store with expiry. Every entry carries a
// version and a write never replaces an entry holding a higher one, so a
// slow writer with stale data cannot clobber a fresher value.
type Cache interface {
	// SetIfNewer stores value unless key holds a version above version.
	// It reports whether the value was written.
	SetIfNewer(ctx context.Context, key string, value []byte, version int64, ttl time.Duration) (bool, error)
	// Get returns ok=false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Delete(ctx context.Context, keys ...string) error
	GenerateKey(operation, key string) string
}

// Entries are hashes of v (version) and d (data). The compare and the write
// run as one script so no other client can interleave.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'v')
if current and tonumber(current) > tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'd', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type redisCache struct {
	client      *redis.Client
	serviceName string
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts Options, serviceName string) (Cache, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisCache{client: client, serviceName: serviceName}, client.Close, nil
}

func (r *redisCache) SetIfNewer(ctx context.Context, key string, value []byte, version int64, ttl time.Duration) (bool, error) {
	written, err := setIfNewer.Run(ctx, r.client, []string{key}, version, value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.HGet(ctx, key, "d").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.serviceName, operation, key)
}
