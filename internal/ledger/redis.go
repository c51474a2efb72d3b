package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"photo-sku-backend/internal/models"
)

const redisKeyPrefix = "photo:ledger:"

type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps each ledger as a JSON string with an optional TTL.
type RedisStore struct {
	client cmdable
	ttl    time.Duration
}

func NewRedisStore(client cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func redisKey(sku string) string {
	return redisKeyPrefix + sku
}

func (s *RedisStore) Write(ctx context.Context, l *models.BatchLedger) error {
	data, err := encode(l)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(l.SKU), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context, sku string) (*models.BatchLedger, error) {
	data, err := s.client.Get(ctx, redisKey(sku)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Delete(ctx context.Context, sku string) error {
	if err := s.client.Del(ctx, redisKey(sku)).Err(); err != nil {
		return fmt.Errorf("failed to delete ledger: %w", err)
	}
	return nil
}
