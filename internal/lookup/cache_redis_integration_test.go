//go:build integration

package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/crimson-sun/orgtree/internal/model"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := DialRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	cache := NewRedisCache(client, time.Minute)

	_, ok, err := cache.Get(ctx, "C1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := model.Ancestry{CustomerName: "하위", ParentID: "C0", ParentName: "상위"}
	require.NoError(t, cache.Set(ctx, "C1", want))

	got, ok, err := cache.Get(ctx, "C1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	ttl, err := client.TTL(ctx, redisKeyPrefix+"C1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestDialRedisBadURL(t *testing.T) {
	_, err := DialRedis(context.Background(), "not-a-url")
	assert.Error(t, err)
}
