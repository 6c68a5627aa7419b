package jwks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces the keys a RedisStore writes.
const DefaultRedisKeyPrefix = "cognitoauth:jwks:"

// RedisClient is the subset of redis commands the RedisStore needs.
// It is satisfied by *redis.Client, *redis.ClusterClient and *redis.Ring.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore is a Store that shares key sets between processes through
// Redis. Key sets are stored as their JSON representation.
type RedisStore struct {
	client RedisClient
	prefix string
}

// NewRedisStore returns a RedisStore writing under DefaultRedisKeyPrefix.
func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{client: client, prefix: DefaultRedisKeyPrefix}
}

// WithPrefix returns a copy of s writing under prefix.
func (s *RedisStore) WithPrefix(prefix string) *RedisStore {
	return &RedisStore{client: s.client, prefix: prefix}
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, issuerURL string) (jwk.Set, bool, error) {
	cached, err := s.client.Get(ctx, s.prefix+issuerURL).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	set, err := jwk.Parse([]byte(cached))
	if err != nil {
		return nil, false, fmt.Errorf("could not parse cached key set: %w", err)
	}

	return set, true, nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, issuerURL string, set jwk.Set, ttl time.Duration) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("could not marshal key set: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+issuerURL, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
