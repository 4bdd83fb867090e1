package dedup

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "webhook_event:"

// RedisStore shares processed event IDs between replicas. A claim is a
// SETNX on webhook_event:<id> expiring after the TTL.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (r *RedisStore) Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, keyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

func (r *RedisStore) Release(ctx context.Context, eventID string) error {
	return r.Client.Del(ctx, keyPrefix+eventID).Err()
}
