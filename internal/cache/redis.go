package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache using Redis.
// Used as the Pro tier cache and as L2 in two-phase caching.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache.
func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a value from Redis.
func (c *RedisCache) Get(ctx context.Context, merchantID string, key string) ([]byte, error) {
	if merchantID == "" {
		return nil, fmt.Errorf("merchantID is required")
	}

	fullKey := c.makeKey(merchantID, key)
	val, err := c.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores a value in Redis with TTL.
func (c *RedisCache) Set(ctx context.Context, merchantID string, key string, value []byte, ttl time.Duration) error {
	if merchantID == "" {
		return fmt.Errorf("merchantID is required")
	}

	fullKey := c.makeKey(merchantID, key)
	return c.client.Set(ctx, fullKey, value, ttl).Err()
}

// Delete removes a value from Redis.
func (c *RedisCache) Delete(ctx context.Context, merchantID string, key string) error {
	if merchantID == "" {
		return fmt.Errorf("merchantID is required")
	}

	fullKey := c.makeKey(merchantID, key)
	return c.client.Del(ctx, fullKey).Err()
}

// GetActiveAlgorithm retrieves the cached active algorithm record.
func (c *RedisCache) GetActiveAlgorithm(ctx context.Context, merchantID string, kind domain.AlgorithmKind) (*domain.AlgorithmRecord, error) {
	data, err := c.Get(ctx, merchantID, "alg:"+string(kind))
	if err != nil || data == nil {
		return nil, err
	}

	var record domain.AlgorithmRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// SetActiveAlgorithm caches the active algorithm record.
func (c *RedisCache) SetActiveAlgorithm(ctx context.Context, merchantID string, record *domain.AlgorithmRecord, ttl time.Duration) error {
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.Set(ctx, merchantID, "alg:"+string(record.Kind), bytes, ttl)
}

// Ping checks Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) makeKey(merchantID, key string) string {
	return "kestrel:" + merchantID + ":" + key
}
