package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shamss11/pychiatrist-backend/internal/config"
	"github.com/shamss11/pychiatrist-backend/internal/pkg/logger"
)

// RedisService is an advisory cache for analytics reads. Every method is safe
// to call on a nil receiver; callers treat cache misses and cache errors the
// same way.
type RedisService struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisService(cfg *config.Config, log *logger.Logger) (*RedisService, error) {
	serviceLog := log.With("service", "RedisService")
	if cfg.Redis.Addr == "" {
		serviceLog.Info("REDIS_ADDR not set, analytics caching disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	serviceLog.Info("Connected to Redis", "addr", cfg.Redis.Addr)
	return &RedisService{client: client, log: serviceLog}, nil
}

func (s *RedisService) Get(ctx context.Context, key string) (string, bool) {
	if s == nil || s.client == nil {
		return "", false
	}
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("Redis get failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (s *RedisService) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if s == nil || s.client == nil {
		return
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.log.Warn("Redis set failed", "key", key, "error", err)
	}
}

func (s *RedisService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
