package token

import (
	"context"
	"fmt"

	"gymgo/internal/config"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// InitRedis connects the session token backend.
func InitRedis(cfg *config.Config, logger *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.URL,
	})
	logger.Info("Redis connected")
	return rdb
}

// RedisStore keeps the bearer token in redis, keyed per session. It is
// the server-side counterpart of the on-device secure slot.
type RedisStore struct {
	rdb       *redis.Client
	sessionID string
}

func NewRedisStore(rdb *redis.Client, sessionID string) *RedisStore {
	return &RedisStore{rdb: rdb, sessionID: sessionID}
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("session_token:%s", s.sessionID)
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	val, err := s.rdb.Get(ctx, s.key()).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return val, nil
}

func (s *RedisStore) SetToken(ctx context.Context, token string) error {
	if err := s.rdb.Set(ctx, s.key(), token, 0).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key()).Err(); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
