package persistence

import (
	"context"
	"fmt"

	"github.com/BaSui01/designflow/config"
	"github.com/BaSui01/designflow/internal/cache"
	"github.com/BaSui01/designflow/internal/database"
	"go.uber.org/zap"
)

// FactoryOption 工厂选项
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	recorder Recorder
	dbStats  database.StatsRecorder
	manager  *cache.Manager
}

// WithRecorder 为返回的存储加上操作指标
func WithRecorder(r Recorder) FactoryOption {
	return func(o *factoryOptions) { o.recorder = r }
}

// WithDBStatsRecorder 为 SQL 后端的连接池上报连接数
func WithDBStatsRecorder(r database.StatsRecorder) FactoryOption {
	return func(o *factoryOptions) { o.dbStats = r }
}

// WithCacheManager 让 Redis 后端复用已有连接，存储关闭时不关闭该连接
func WithCacheManager(m *cache.Manager) FactoryOption {
	return func(o *factoryOptions) { o.manager = m }
}

// RedisCacheConfig 把 redis 配置段转换为 cache.Manager 配置
func RedisCacheConfig(rc config.RedisConfig) cache.Config {
	cc := cache.DefaultConfig()
	cc.Addr = rc.Addr
	cc.Password = rc.Password
	cc.DB = rc.DB
	cc.KeyPrefix = rc.KeyPrefix
	cc.TLSEnabled = rc.TLS
	if rc.PoolSize > 0 {
		cc.PoolSize = rc.PoolSize
	}
	if rc.MinIdleConns > 0 {
		cc.MinIdleConns = rc.MinIdleConns
	}
	return cc
}

// NewStore 按 store.type 创建存储，并统一包装超时与指标
func NewStore(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...FactoryOption) (ContextStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var o factoryOptions
	for _, opt := range opts {
		opt(&o)
	}

	storeType := StoreType(cfg.Store.Type)
	var (
		store ContextStore
		err   error
	)
	switch storeType {
	case StoreTypeMemory, "":
		storeType = StoreTypeMemory
		store = NewMemoryStore()
	case StoreTypeMongo:
		store, err = NewMongoStore(ctx, cfg.Store.Mongo, logger)
	case StoreTypeRedis:
		if o.manager != nil {
			store = NewRedisStore(o.manager, false)
			break
		}
		var m *cache.Manager
		m, err = cache.NewManager(RedisCacheConfig(cfg.Redis), logger)
		if err == nil {
			store = NewRedisStore(m, true)
		}
	case StoreTypeSQL:
		var dbOpts []database.Option
		if o.dbStats != nil {
			dbOpts = append(dbOpts, database.WithStatsRecorder(cfg.Database.Driver, o.dbStats))
		}
		var pool *database.PoolManager
		pool, err = database.Open(cfg.Database, logger, dbOpts...)
		if err == nil {
			store, err = NewSQLStore(ctx, pool)
			if err != nil {
				_ = pool.Close()
			}
		}
	default:
		return nil, fmt.Errorf("unsupported context store type: %s", cfg.Store.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", storeType, err)
	}

	logger.Info("context store ready", zap.String("type", string(storeType)))
	return Instrument(store, storeType, cfg.Store.Timeout, o.recorder, logger), nil
}
