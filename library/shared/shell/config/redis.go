package config

import (
	"github.com/go-redis/redis/v8"
)

// NewRedisClient creates a client for cfg, or returns nil when no address is configured.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
