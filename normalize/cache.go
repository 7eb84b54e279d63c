package normalize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/BaSui01/designflow/internal/cache"
)

// =============================================================================
// 💾 规范化缓存
// =============================================================================

// Cache 原始文本 → 规范化结果
type Cache interface {
	Get(ctx context.Context, raw string) (string, bool, error)
	Set(ctx context.Context, raw, normalized string) error
}

// MemoryCache 进程内缓存，无淘汰
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

// Get 读取缓存
func (c *MemoryCache) Get(_ context.Context, raw string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[raw]
	return v, ok, nil
}

// Set 写入缓存
func (c *MemoryCache) Set(_ context.Context, raw, normalized string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[raw] = normalized
	return nil
}

// Len 返回条目数
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisCache 基于 internal/cache.Manager 的共享缓存，多实例部署时复用结果
type RedisCache struct {
	manager *cache.Manager
	ttl     time.Duration
}

// NewRedisCache 创建 Redis 缓存；ttl 为 0 时使用 Manager 的默认 TTL
func NewRedisCache(manager *cache.Manager, ttl time.Duration) *RedisCache {
	return &RedisCache{manager: manager, ttl: ttl}
}

// Get 读取缓存，未命中返回 ok=false
func (c *RedisCache) Get(ctx context.Context, raw string) (string, bool, error) {
	v, err := c.manager.Get(ctx, redisKey(raw))
	if cache.IsCacheMiss(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, raw, normalized string) error {
	return c.manager.Set(ctx, redisKey(raw), normalized, c.ttl)
}

// redisKey 原始文本可能很长或含空白，按哈希取键
func redisKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "norm:" + hex.EncodeToString(sum[:])
}
