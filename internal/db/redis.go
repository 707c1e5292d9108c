package db

import (
	"github.com/NikBulygin/Indrive-hackation-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// ConnectRedis builds the pub/sub client for the stream hub. An empty addr
// means single-node mode: the hub delivers locally without redis.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
