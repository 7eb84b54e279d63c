package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/BaSui01/designflow/preference"
)

// Common errors
var (
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// StoreType 存储后端类型
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeMongo  StoreType = "mongo"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeSQL    StoreType = "sql"
)

// Record 是一个用户的持久化偏好记录
type Record struct {
	UserID      string              `json:"userId" bson:"userId"`
	Preferences preference.Snapshot `json:"preferences" bson:"preferences"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// emptyRecord 用户不存在时 Get 的返回值
func emptyRecord(userID string) *Record {
	return &Record{UserID: userID, Preferences: preference.Snapshot{}}
}

// ContextStore 偏好存储接口
type ContextStore interface {
	// Get 读取用户记录；不存在时返回空偏好记录而非错误
	Get(ctx context.Context, userID string) (*Record, error)

	// Put 写入用户的完整快照（upsert）
	Put(ctx context.Context, userID string, prefs preference.Snapshot) (*Record, error)

	// Ping 检查后端连接
	Ping(ctx context.Context) error

	// Close 释放连接
	Close() error
}

func validateUserID(userID string) error {
	if userID == "" {
		return ErrInvalidInput
	}
	return nil
}
