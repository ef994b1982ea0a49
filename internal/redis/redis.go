package redis

import (
	"context"
	"time"

	"github.com/fakhrymubarak/weather-text/internal/config"
	redisv9 "github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

// NewClient returns nil when no address is configured, which disables caching.
func NewClient(cfg config.RedisConfig) *redisv9.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redisv9.NewClient(&redisv9.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping checks that the server answers within a short deadline.
func Ping(ctx context.Context, client *redisv9.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
