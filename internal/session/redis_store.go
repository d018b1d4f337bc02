package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tgrieger/inkwell/internal/domain"
)

// RedisStore is the production session store. Redis SET is atomic per key,
// which is what makes "exactly one session survives" hold under concurrent
// sign-ins for the same user.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

func (s *RedisStore) Set(ctx context.Context, userID uuid.UUID, refreshToken string, ttl time.Duration) error {
	return s.client.Set(ctx, Key(userID), refreshToken, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID) (string, error) {
	val, err := s.client.Get(ctx, Key(userID)).Result()
	if err == redis.Nil {
		return "", domain.ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, Key(userID)).Err()
}
