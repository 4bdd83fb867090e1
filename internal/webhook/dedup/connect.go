package dedup

import (
	"context"
	"fmt"
	"time"

	"ms-landing/internal/logger"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis opens a client and checks the server answers before the
// store is handed out.
func ConnectRedis(ctx context.Context, addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	log.Info("REDIS", fmt.Sprintf("Connected to Redis at %s for webhook deduplication", addr))
	return client, nil
}
