package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/designflow/preference"
)

// MemoryStore 内存存储，进程退出即丢失
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	closed  bool
	now     func() time.Time
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

// Get 读取用户记录
func (s *MemoryStore) Get(ctx context.Context, userID string) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rec, ok := s.records[userID]
	if !ok {
		return emptyRecord(userID), nil
	}
	rec.Preferences = rec.Preferences.Clone()
	return &rec, nil
}

// Put 写入用户快照
func (s *MemoryStore) Put(ctx context.Context, userID string, prefs preference.Snapshot) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	now := s.now()
	rec, ok := s.records[userID]
	if !ok {
		rec = Record{UserID: userID, CreatedAt: now}
	}
	rec.Preferences = preference.Canonical(prefs)
	rec.UpdatedAt = now
	s.records[userID] = rec

	out := rec
	out.Preferences = rec.Preferences.Clone()
	return &out, nil
}

// Ping 检查存储是否可用
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close 关闭存储
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len 返回已保存的用户数
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
