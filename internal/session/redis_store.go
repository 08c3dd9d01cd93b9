package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/config"
)

// Dial connects to Redis and checks the connection with a ping.
func Dial(ctx context.Context, url string, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Session store connected to Redis")

	return rdb, nil
}

// RedisStore keeps sessions in Redis with the token's TTL.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Set(ctx context.Context, uid, tokenID string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, config.CacheKey.TeacherSessionKey(uid), tokenID, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, uid string) (string, error) {
	tokenID, err := s.rdb.Get(ctx, config.CacheKey.TeacherSessionKey(uid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session: %w", err)
	}
	return tokenID, nil
}

func (s *RedisStore) Delete(ctx context.Context, uid string) error {
	if err := s.rdb.Del(ctx, config.CacheKey.TeacherSessionKey(uid)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
