package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session carts in Redis with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient parses redisURL and checks the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(token string) string {
	return fmt.Sprintf("session:%s:cart", token)
}

func (s *RedisStore) CartID(ctx context.Context, token string) (uuid.UUID, bool, error) {
	val, err := s.client.GetEx(ctx, s.key(token), s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	id, err := uuid.Parse(val)
	if err != nil {
		// Unreadable value; treat the session as having no cart.
		return uuid.Nil, false, nil
	}
	return id, true, nil
}

func (s *RedisStore) SetCartID(ctx context.Context, token string, cartID uuid.UUID) error {
	return s.client.Set(ctx, s.key(token), cartID.String(), s.ttl).Err()
}

func (s *RedisStore) ClearCartID(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}
