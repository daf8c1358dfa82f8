package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session keys in Redis. Reads and writes both refresh the key's TTL,
// so a session's data expires ttl after its last use.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	data, err := r.client.GetEx(ctx, sessionKey(sessionID, key), r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisStore) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if err := r.client.Set(ctx, sessionKey(sessionID, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, sessionID, key string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID, key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Touch(ctx context.Context, sessionID, key string) error {
	k := sessionKey(sessionID, key)
	if r.ttl <= 0 {
		n, err := r.client.Exists(ctx, k).Result()
		if err != nil {
			return fmt.Errorf("redis exists failed: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	}

	ok, err := r.client.Expire(ctx, k, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis expire failed: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func sessionKey(sessionID, key string) string {
	return fmt.Sprintf("session:%s:%s", sessionID, key)
}
