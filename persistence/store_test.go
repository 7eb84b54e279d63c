package persistence

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/designflow/config"
	"github.com/BaSui01/designflow/internal/cache"
	"github.com/BaSui01/designflow/internal/database"
	"github.com/BaSui01/designflow/preference"
	"github.com/BaSui01/designflow/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// 🧪 后端通用行为
// =============================================================================

// runContractTests 对任意后端验证 Get/Put 语义
func runContractTests(t *testing.T, store ContextStore) {
	ctx := testutil.TestContextWithTimeout(t, 30*time.Second)

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
	})

	t.Run("GetUnknownUserReturnsEmptyRecord", func(t *testing.T) {
		rec, err := store.Get(ctx, "nobody-"+uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, rec.Preferences)
		assert.NotNil(t, rec.Preferences)
		assert.True(t, rec.CreatedAt.IsZero())
	})

	t.Run("PutThenGetRoundTrip", func(t *testing.T) {
		userID := "u-" + uuid.NewString()
		snap := preference.Snapshot{
			"width":    float64(11),
			"height":   float64(11),
			"depth":    float64(11),
			"color":    float64(0x0000ff),
			"shape":    "sphere",
			"material": "wood",
		}

		put, err := store.Put(ctx, userID, snap)
		require.NoError(t, err)
		assert.Equal(t, userID, put.UserID)
		assert.Equal(t, snap, put.Preferences)
		assert.False(t, put.CreatedAt.IsZero())
		assert.False(t, put.UpdatedAt.IsZero())

		got, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, snap, got.Preferences)
		assert.True(t, put.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("PutReplacesSnapshotAndKeepsCreatedAt", func(t *testing.T) {
		userID := "u-" + uuid.NewString()

		first, err := store.Put(ctx, userID, preference.Snapshot{"width": float64(10), "style": "modern"})
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		second, err := store.Put(ctx, userID, preference.Snapshot{"width": float64(12)})
		require.NoError(t, err)

		assert.Equal(t, preference.Snapshot{"width": float64(12)}, second.Preferences)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

		got, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, preference.Snapshot{"width": float64(12)}, got.Preferences)
	})

	t.Run("IntegersComeBackAsFloat64", func(t *testing.T) {
		userID := "u-" + uuid.NewString()
		_, err := store.Put(ctx, userID, preference.Snapshot{"width": 7, "color": int64(0xff0000)})
		require.NoError(t, err)

		got, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, preference.Snapshot{"width": float64(7), "color": float64(0xff0000)}, got.Preferences)
	})

	t.Run("EmptyUserIDRejected", func(t *testing.T) {
		_, err := store.Get(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidInput)
		_, err = store.Put(ctx, "", preference.Snapshot{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("UsersAreIsolated", func(t *testing.T) {
		a, b := "a-"+uuid.NewString(), "b-"+uuid.NewString()
		_, err := store.Put(ctx, a, preference.Snapshot{"color": float64(0xff0000)})
		require.NoError(t, err)

		got, err := store.Get(ctx, b)
		require.NoError(t, err)
		assert.Empty(t, got.Preferences)
	})
}

// =============================================================================
// 🧪 各后端
// =============================================================================

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	runContractTests(t, store)

	require.NoError(t, store.Close())
	_, err := store.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Ping(context.Background()), ErrStoreClosed)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	rec, err := store.Put(ctx, "u1", preference.Snapshot{"width": float64(10)})
	require.NoError(t, err)
	rec.Preferences["width"] = float64(99)

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, float64(10), got.Preferences["width"])

	got.Preferences["width"] = float64(42)
	again, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, float64(10), again.Preferences["width"])
}

func TestMemoryStore_ConcurrentPutsLastWriteWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Put(ctx, "shared", preference.Snapshot{"width": float64(i + 1)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	w, ok := got.Preferences.Number("width")
	require.True(t, ok)
	assert.GreaterOrEqual(t, w, float64(1))
	assert.Equal(t, 1, store.Len())
}

func newTestManager(t *testing.T) (*miniredis.Miniredis, *cache.Manager) {
	mr := miniredis.RunT(t)
	manager, err := cache.NewManager(cache.Config{
		Addr:       mr.Addr(),
		KeyPrefix:  "df:",
		DefaultTTL: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	return mr, manager
}

func TestRedisStore(t *testing.T) {
	mr, manager := newTestManager(t)
	store := NewRedisStore(manager, true)
	t.Cleanup(func() { store.Close() })

	runContractTests(t, store)

	// 键带前缀且永不过期
	_, err := store.Put(context.Background(), "alice", preference.Snapshot{"width": float64(3)})
	require.NoError(t, err)
	assert.True(t, mr.Exists("df:ctx:alice"))
	assert.Equal(t, time.Duration(0), mr.TTL("df:ctx:alice"))
}

func TestRedisStore_BackendError(t *testing.T) {
	mr, manager := newTestManager(t)
	store := NewRedisStore(manager, true)
	t.Cleanup(func() { store.Close() })

	mr.SetError("server down")
	_, err := store.Get(context.Background(), "alice")
	assert.Error(t, err)
	_, err = store.Put(context.Background(), "alice", preference.Snapshot{})
	assert.Error(t, err)
}

func TestRedisStore_ClosedManager(t *testing.T) {
	_, manager := newTestManager(t)
	store := NewRedisStore(manager, true)
	require.NoError(t, store.Close())

	_, err := store.Get(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, store.Ping(context.Background()), ErrStoreClosed)
}

func TestRedisStore_SharedManagerNotClosed(t *testing.T) {
	_, manager := newTestManager(t)
	t.Cleanup(func() { manager.Close() })

	store := NewRedisStore(manager, false)
	require.NoError(t, store.Close())
	assert.NoError(t, manager.Ping(context.Background()))
}

func newSQLiteStore(t *testing.T) *SQLStore {
	pool, err := database.Open(config.DatabaseConfig{
		Driver:       "sqlite",
		Name:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)

	store, err := NewSQLStore(context.Background(), pool)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStore(t *testing.T) {
	store := newSQLiteStore(t)
	runContractTests(t, store)
}

func TestSQLStore_OneRowPerUser(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Put(ctx, "alice", preference.Snapshot{"width": float64(10 + i)})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, store.pool.DB().Model(&contextRow{}).Where("user_id = ?", "alice").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSQLStore_Closed(t *testing.T) {
	store := newSQLiteStore(t)
	require.NoError(t, store.Close())

	_, err := store.Get(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrStoreClosed)
	_, err = store.Put(context.Background(), "alice", nil)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.NoError(t, store.Close())
}

// TestMongoStore 需要真实的 MongoDB，设置 DESIGNFLOW_TEST_MONGO_URI 后运行
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("DESIGNFLOW_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DESIGNFLOW_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewMongoStore(ctx, config.MongoConfig{
		URI:        uri,
		Database:   "designflow_test_" + uuid.NewString()[:8],
		Collection: DefaultMongoCollection,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.collection.Database().Drop(context.Background())
		store.Close()
	})

	runContractTests(t, store)
}

func TestNewMongoStore_RequiresURI(t *testing.T) {
	_, err := NewMongoStore(context.Background(), config.MongoConfig{}, nil)
	assert.Error(t, err)
}
