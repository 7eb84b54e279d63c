package usercontext

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/designflow/normalize"
	"github.com/BaSui01/designflow/preference"
	"github.com/BaSui01/designflow/testutil"
	"github.com/BaSui01/designflow/testutil/mocks"
	"github.com/BaSui01/designflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// identityNormalizer 原样返回输入
type identityNormalizer struct{}

func (identityNormalizer) Normalize(_ context.Context, raw string) string { return raw }

type statusRecorder struct {
	mu       sync.Mutex
	statuses []string
}

func (r *statusRecorder) RecordContextUpdate(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func TestService_UpdateFromEmpty(t *testing.T) {
	store := mocks.NewMockStore()
	svc := NewService(store, identityNormalizer{})

	snap, err := svc.Update(testutil.TestContext(t), "alice", "bigger")
	require.NoError(t, err)
	testutil.AssertSnapshotEqual(t, testutil.MustSnapshot(`{"width":11,"height":11,"depth":11}`), snap)
	assert.Equal(t, snap, store.LastPut())
}

func TestService_UpdateAccumulates(t *testing.T) {
	store := mocks.NewMockStore().Seed("alice", preference.Snapshot{"width": 5.0, "material": "wood"})
	svc := NewService(store, identityNormalizer{})

	snap, err := svc.Update(context.Background(), "alice", "smaller smaller smaller smaller smaller smaller")
	require.NoError(t, err)
	assert.Equal(t, 1.0, snap["width"])
	assert.Equal(t, "wood", snap["material"])

	snap, err = svc.Update(context.Background(), "alice", "red")
	require.NoError(t, err)
	assert.Equal(t, float64(0xff0000), snap["color"])
	assert.Equal(t, 1.0, snap["width"])
}

func TestService_UpdateUsesNormalizedText(t *testing.T) {
	store := mocks.NewMockStore()
	n := normalize.New(nil, normalize.WithLogger(zap.NewNop()))
	svc := NewService(store, n)

	// greater → bigger 同义词
	snap, err := svc.Update(context.Background(), "alice", "GREATER")
	require.NoError(t, err)
	assert.Equal(t, 11.0, snap["width"])
}

func TestService_UpdateValidation(t *testing.T) {
	rec := &statusRecorder{}
	store := mocks.NewMockStore()
	svc := NewService(store, identityNormalizer{}, WithRecorder(rec))

	for _, tc := range []struct{ userID, input string }{
		{"", "bigger"},
		{"alice", ""},
		{"", ""},
	} {
		_, err := svc.Update(context.Background(), tc.userID, tc.input)
		require.Error(t, err)
		assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
	}

	assert.Zero(t, store.GetCalls())
	assert.Zero(t, store.PutCalls())
	assert.Equal(t, []string{StatusInvalid, StatusInvalid, StatusInvalid}, rec.statuses)
}

func TestService_UpdateStoreFailures(t *testing.T) {
	rec := &statusRecorder{}

	getFails := mocks.NewMockStore().WithGetError(assert.AnError)
	_, err := NewService(getFails, identityNormalizer{}, WithRecorder(rec)).Update(context.Background(), "alice", "bigger")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrStoreUnavailable))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, getFails.PutCalls())

	putFails := mocks.NewMockStore().WithPutError(assert.AnError)
	b := NewBroadcaster(nil)
	ch, cancel := b.Subscribe("alice")
	defer cancel()

	_, err = NewService(putFails, identityNormalizer{}, WithRecorder(rec), WithBroadcaster(b)).Update(context.Background(), "alice", "bigger")
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrStoreUnavailable))

	// 写入失败不推送
	select {
	case snap := <-ch:
		t.Fatalf("unexpected publish: %v", snap)
	default:
	}
	assert.Equal(t, []string{StatusStoreError, StatusStoreError}, rec.statuses)
}

func TestService_UpdatePublishes(t *testing.T) {
	b := NewBroadcaster(nil)
	svc := NewService(mocks.NewMockStore(), identityNormalizer{}, WithBroadcaster(b))

	ch, cancel := b.Subscribe("alice")
	defer cancel()

	_, err := svc.Update(context.Background(), "alice", "blue")
	require.NoError(t, err)

	snap, err := testutil.WaitForChannel(ch, time.Second)
	require.NoError(t, err, "snapshot not published")
	assert.Equal(t, float64(0x0000ff), snap["color"])
	assert.Same(t, b, svc.Broadcaster())
}

func TestService_Current(t *testing.T) {
	store := mocks.NewMockStore().Seed("alice", preference.Snapshot{"shape": "sphere"})
	svc := NewService(store, identityNormalizer{})

	snap, err := svc.Current(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, preference.Snapshot{"shape": "sphere"}, snap)

	snap, err = svc.Current(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, snap)

	_, err = svc.Current(context.Background(), "")
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))

	_, err = NewService(mocks.NewMockStore().WithGetError(assert.AnError), identityNormalizer{}).Current(context.Background(), "alice")
	assert.True(t, types.IsErrorCode(err, types.ErrStoreUnavailable))
}

func TestService_Ping(t *testing.T) {
	assert.NoError(t, NewService(mocks.NewMockStore(), identityNormalizer{}).Ping(testutil.TestContext(t)))
	assert.ErrorIs(t,
		NewService(mocks.NewMockStore().WithPingError(assert.AnError), identityNormalizer{}).Ping(testutil.TestContext(t)),
		assert.AnError)
}
