package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/BaSui01/designflow/internal/database"
	"github.com/BaSui01/designflow/preference"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// contextRow user_contexts 表的行结构，偏好以 JSON 文本保存
type contextRow struct {
	ID          string    `gorm:"primaryKey;size:36"`
	UserID      string    `gorm:"column:user_id;size:191;uniqueIndex;not null"`
	Preferences string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (contextRow) TableName() string { return "user_contexts" }

func (r *contextRow) record() (*Record, error) {
	prefs := preference.Snapshot{}
	if r.Preferences != "" {
		if err := json.Unmarshal([]byte(r.Preferences), &prefs); err != nil {
			return nil, fmt.Errorf("decode preferences for %s: %w", r.UserID, err)
		}
	}
	return &Record{
		UserID:      r.UserID,
		Preferences: preference.Canonical(prefs),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

// SQLStore 基于 GORM 的存储，支持 postgres、mysql、sqlite
type SQLStore struct {
	pool   *database.PoolManager
	closed atomic.Bool
	now    func() time.Time
}

// NewSQLStore 在连接池上创建存储并自动迁移 user_contexts 表
func NewSQLStore(ctx context.Context, pool *database.PoolManager) (*SQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	if err := pool.DB().WithContext(ctx).AutoMigrate(&contextRow{}); err != nil {
		return nil, fmt.Errorf("migrate user_contexts: %w", err)
	}
	return &SQLStore{pool: pool, now: time.Now}, nil
}

// Get 读取用户记录
func (s *SQLStore) Get(ctx context.Context, userID string) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	var row contextRow
	err := s.pool.DB().WithContext(ctx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyRecord(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("sql get context: %w", err)
	}
	return row.record()
}

// Put 以 upsert 写入快照：冲突时只更新 preferences 与 updated_at
func (s *SQLStore) Put(ctx context.Context, userID string, prefs preference.Snapshot) (*Record, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}

	if prefs == nil {
		prefs = preference.Snapshot{}
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}

	now := s.now().UTC()
	row := contextRow{
		ID:          uuid.NewString(),
		UserID:      userID,
		Preferences: string(data),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var stored contextRow
	err = s.pool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"preferences", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Take(&stored).Error
	})
	if err != nil {
		if errors.Is(err, database.ErrPoolClosed) {
			return nil, ErrStoreClosed
		}
		return nil, fmt.Errorf("sql put context: %w", err)
	}
	return stored.record()
}

// Ping 检查数据库连接
func (s *SQLStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.pool.Ping(ctx)
}

// Close 关闭连接池
func (s *SQLStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.pool.Close()
}
