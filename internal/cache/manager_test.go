package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	mr := miniredis.RunT(t)

	config := Config{
		Addr:       mr.Addr(),
		KeyPrefix:  "test:",
		DefaultTTL: 1 * time.Minute,
	}

	manager, err := NewManager(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return mr, manager
}

func TestNewManager(t *testing.T) {
	_, manager := setupTestRedis(t)

	assert.NotNil(t, manager.redis)
	assert.NotNil(t, manager.logger)
}

func TestNewManager_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewManager(Config{Addr: addr}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestManager_SetAndGet(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "test-key", "test-value", 1*time.Minute))

	value, err := manager.Get(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, "test-value", value)

	// 键前缀写入 Redis
	raw, err := mr.Get("test:test-key")
	require.NoError(t, err)
	assert.Equal(t, "test-value", raw)
}

func TestManager_GetNonExistent(t *testing.T) {
	_, manager := setupTestRedis(t)

	value, err := manager.Get(context.Background(), "non-existent")
	assert.True(t, IsCacheMiss(err))
	assert.Equal(t, "", value)
}

func TestManager_TTL(t *testing.T) {
	mr, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Set(ctx, "default", "v", 0))
	require.NoError(t, manager.Set(ctx, "explicit", "v", 10*time.Second))
	require.NoError(t, manager.Set(ctx, "forever", "v", NoExpiration))

	assert.Equal(t, time.Minute, mr.TTL("test:default"))
	assert.Equal(t, 10*time.Second, mr.TTL("test:explicit"))
	assert.Equal(t, time.Duration(0), mr.TTL("test:forever"))

	mr.FastForward(2 * time.Minute)
	_, err := manager.Get(ctx, "default")
	assert.True(t, IsCacheMiss(err))
	v, err := manager.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestManager_JSON(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	type payload struct {
		Width float64 `json:"width"`
		Color int     `json:"color"`
	}
	require.NoError(t, manager.SetJSON(ctx, "json-key", payload{Width: 11, Color: 255}, 0))

	var got payload
	require.NoError(t, manager.GetJSON(ctx, "json-key", &got))
	assert.Equal(t, payload{Width: 11, Color: 255}, got)

	require.NoError(t, manager.Set(ctx, "bad-json", "{not json", 0))
	assert.Error(t, manager.GetJSON(ctx, "bad-json", &got))
}

func TestManager_Closed(t *testing.T) {
	_, manager := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, manager.Close())
	require.NoError(t, manager.Close())

	_, err := manager.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, manager.Set(ctx, "k", "v", 0), ErrClosed)
	assert.ErrorIs(t, manager.Ping(ctx), ErrClosed)
}

func TestManager_Ping(t *testing.T) {
	mr, manager := setupTestRedis(t)

	require.NoError(t, manager.Ping(context.Background()))
	mr.SetError("server down")
	assert.Error(t, manager.Ping(context.Background()))
}
