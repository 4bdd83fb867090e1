// Package dedup remembers which Stripe webhook events were already handled.
package dedup

import (
	"context"
	"time"
)

// Store is implemented by MemoryStore and RedisStore.
type Store interface {
	// Claim marks eventID as taken for ttl. It returns false when the event
	// was already claimed.
	Claim(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Release forgets eventID so a redelivery is processed again.
	Release(ctx context.Context, eventID string) error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)
