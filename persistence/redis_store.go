package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/designflow/internal/cache"
	"github.com/BaSui01/designflow/preference"
)

// RedisStore 基于 Redis 的存储，每个用户一个 JSON 值，键为 <prefix>ctx:<userID>
type RedisStore struct {
	manager *cache.Manager
	owned   bool
	now     func() time.Time
}

// NewRedisStore 在已有的缓存管理器上创建存储。
// owned 为 true 时 Close 会一并关闭管理器。
func NewRedisStore(manager *cache.Manager, owned bool) *RedisStore {
	return &RedisStore{manager: manager, owned: owned, now: time.Now}
}

func contextKey(userID string) string {
	return "ctx:" + userID
}

// Get 读取用户记录
func (s *RedisStore) Get(ctx context.Context, userID string) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var rec Record
	err := s.manager.GetJSON(ctx, contextKey(userID), &rec)
	switch {
	case cache.IsCacheMiss(err):
		return emptyRecord(userID), nil
	case errors.Is(err, cache.ErrClosed):
		return nil, ErrStoreClosed
	case err != nil:
		return nil, fmt.Errorf("redis get context: %w", err)
	}

	rec.Preferences = preference.Canonical(rec.Preferences)
	return &rec, nil
}

// Put 写入用户快照，保留首次写入时间。
// 读后写不是原子的，并发写同一用户时后写者胜出。
func (s *RedisStore) Put(ctx context.Context, userID string, prefs preference.Snapshot) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	prior, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &Record{
		UserID:      userID,
		Preferences: preference.Canonical(prefs),
		CreatedAt:   prior.CreatedAt,
		UpdatedAt:   now,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	if err := s.manager.SetJSON(ctx, contextKey(userID), rec, cache.NoExpiration); err != nil {
		if errors.Is(err, cache.ErrClosed) {
			return nil, ErrStoreClosed
		}
		return nil, fmt.Errorf("redis put context: %w", err)
	}
	return rec, nil
}

// Ping 检查 Redis 连接
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.manager.Ping(ctx); err != nil {
		if errors.Is(err, cache.ErrClosed) {
			return ErrStoreClosed
		}
		return err
	}
	return nil
}

// Close 关闭存储
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.manager.Close()
}
