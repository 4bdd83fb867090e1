package dedup

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ms-landing/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedisStore(client), mr
}

func TestRedisStore_ClaimOnce(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("webhook_event:evt_1"))

	ok, err = store.Claim(ctx, "evt_1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("webhook_event:evt_1"))
}

func TestRedisStore_TTLExpiration(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, err := store.Claim(ctx, "evt_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)
	assert.False(t, mr.Exists("webhook_event:evt_1"))

	ok, err = store.Claim(ctx, "evt_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired claim can be taken again")
}

func TestRedisStore_Release(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	ok, _ := store.Claim(ctx, "evt_1", time.Hour)
	require.True(t, ok)
	require.NoError(t, store.Release(ctx, "evt_1"))
	assert.False(t, mr.Exists("webhook_event:evt_1"))

	ok, err := store.Claim(ctx, "evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStore_ConcurrentClaims(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.Claim(ctx, "evt_race", time.Hour); err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Claim(context.Background(), "evt_1", time.Hour)
	assert.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := ConnectRedis(context.Background(), mr.Addr(), "", 0, logger.NewWithWriter(io.Discard))
	require.NoError(t, err)
	defer client.Close()

	_, err = ConnectRedis(context.Background(), "127.0.0.1:1", "", 0, logger.NewWithWriter(io.Discard))
	assert.Error(t, err)
}
