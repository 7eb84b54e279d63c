// MockStore 的偏好存储测试模拟实现。
//
// 基于 persistence.MemoryStore，额外支持错误注入与调用计数。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/designflow/persistence"
	"github.com/BaSui01/designflow/preference"
)

// MockStore 是 persistence.ContextStore 的模拟实现
type MockStore struct {
	mu sync.Mutex

	inner *persistence.MemoryStore

	getErr  error
	putErr  error
	pingErr error

	getCalls int
	putCalls int
	lastPut  preference.Snapshot
}

// NewMockStore 创建新的 MockStore
func NewMockStore() *MockStore {
	return &MockStore{inner: persistence.NewMemoryStore()}
}

// WithGetError 设置 Get 返回的错误
func (m *MockStore) WithGetError(err error) *MockStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
	return m
}

// WithPutError 设置 Put 返回的错误
func (m *MockStore) WithPutError(err error) *MockStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
	return m
}

// WithPingError 设置 Ping 返回的错误
func (m *MockStore) WithPingError(err error) *MockStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
	return m
}

// Seed 预置用户快照，不计入调用次数
func (m *MockStore) Seed(userID string, prefs preference.Snapshot) *MockStore {
	_, _ = m.inner.Put(context.Background(), userID, prefs)
	return m
}

// Get 实现 ContextStore
func (m *MockStore) Get(ctx context.Context, userID string) (*persistence.Record, error) {
	m.mu.Lock()
	m.getCalls++
	err := m.getErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.inner.Get(ctx, userID)
}

// Put 实现 ContextStore
func (m *MockStore) Put(ctx context.Context, userID string, prefs preference.Snapshot) (*persistence.Record, error) {
	m.mu.Lock()
	m.putCalls++
	m.lastPut = prefs.Clone()
	err := m.putErr
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return m.inner.Put(ctx, userID, prefs)
}

// Ping 实现 ContextStore
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.Lock()
	err := m.pingErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	return m.inner.Ping(ctx)
}

// Close 实现 ContextStore
func (m *MockStore) Close() error {
	return m.inner.Close()
}

// --- 检查方法 ---

// GetCalls 返回 Get 调用次数
func (m *MockStore) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// PutCalls 返回 Put 调用次数
func (m *MockStore) PutCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putCalls
}

// LastPut 返回最近一次 Put 的快照
func (m *MockStore) LastPut() preference.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPut
}
