package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/product-catalog/internal/core/domain"
	"github.com/rl1809/product-catalog/internal/port"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// newTestRedisAdapter isolates each test under a fresh namespace and removes
// its keys afterwards.
func newTestRedisAdapter(t *testing.T, client *redis.Client) *RedisAdapter {
	ns := "catalog-test-" + uuid.NewString()
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := client.Keys(ctx, ns+":*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})
	return NewRedisAdapter(client).WithNamespace(ns)
}

func TestRedisAdapter_Contract(t *testing.T) {
	client := getRedisClient(t)

	runRepositoryContract(t, func(t *testing.T) port.ProductRepository {
		return newTestRedisAdapter(t, client)
	})
}

func TestRedisAdapter_ConcurrentInsertSameName(t *testing.T) {
	client := getRedisClient(t)
	adapter := newTestRedisAdapter(t, client)
	ctx := context.Background()

	const workers = 50
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := adapter.Insert(ctx, sampleProduct("Contested", "A", "1", 1))
			if err == nil {
				successCount.Add(1)
				return
			}
			assert.ErrorIs(t, err, domain.ErrDuplicateName)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successCount.Load())
}

func TestRedisAdapter_KeysFollowNamespace(t *testing.T) {
	client := getRedisClient(t)
	adapter := newTestRedisAdapter(t, client)
	ctx := context.Background()

	created, err := adapter.Insert(ctx, sampleProduct("Keyed", "A", "1", 1))
	require.NoError(t, err)

	owner, err := client.Get(ctx, adapter.nameKey("Keyed")).Result()
	require.NoError(t, err)
	assert.Equal(t, created.ID, owner)

	isMember, err := client.SIsMember(ctx, adapter.idsKey(), created.ID).Result()
	require.NoError(t, err)
	assert.True(t, isMember)

	require.NoError(t, adapter.DeleteByID(ctx, created.ID))
	n, err := client.Exists(ctx, adapter.productKey(created.ID), adapter.nameKey("Keyed")).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
