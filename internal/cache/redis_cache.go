package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"bengkelpos/internal/domain"
)

type RedisReorderCache struct {
	client *redis.Client
}

func NewRedisReorderCache(addr string, password string, db int) *RedisReorderCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisReorderCache{client: client}
}

func (c *RedisReorderCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisReorderCache) Close() error {
	return c.client.Close()
}

func (c *RedisReorderCache) Get(ctx context.Context, key string) (*domain.ReorderSuggestionResponse, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp domain.ReorderSuggestionResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisReorderCache) Set(ctx context.Context, key string, value *domain.ReorderSuggestionResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *RedisReorderCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
