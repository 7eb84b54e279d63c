package normalize

import (
	"context"
	"strings"
	"time"

	"github.com/BaSui01/designflow/types"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// 规范化结果来源，用作指标标签
const (
	SourceCache    = "cache"
	SourceSynonym  = "synonym"
	SourceDelegate = "delegate"
	SourceFallback = "fallback"
)

// DefaultTimeout 单次委托调用的上限
const DefaultTimeout = 10 * time.Second

// Recorder 规范化指标回调
type Recorder interface {
	RecordNormalization(source string, duration time.Duration)
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

type nopRecorder struct{}

func (nopRecorder) RecordNormalization(string, time.Duration) {}
func (nopRecorder) RecordCacheHit(string)                     {}
func (nopRecorder) RecordCacheMiss(string)                    {}

// =============================================================================
// 🔤 Normalizer
// =============================================================================

// Normalizer 规范化器，可被多个请求并发使用
type Normalizer struct {
	delegate  Delegate
	cache     Cache
	cacheType string
	synonyms  map[string]string
	timeout   time.Duration
	recorder  Recorder
	logger    *zap.Logger
	group     singleflight.Group
}

// Option 配置 Normalizer
type Option func(*Normalizer)

// WithCache 注入缓存；cacheType 用作指标标签
func WithCache(c Cache, cacheType string) Option {
	return func(n *Normalizer) {
		if c != nil {
			n.cache = c
			n.cacheType = cacheType
		}
	}
}

// WithSynonyms 替换本地同义词表，键按小写处理
func WithSynonyms(table map[string]string) Option {
	return func(n *Normalizer) {
		n.synonyms = make(map[string]string, len(table))
		for k, v := range table {
			n.synonyms[strings.ToLower(k)] = v
		}
	}
}

// WithTimeout 设置委托超时，非正数保持默认
func WithTimeout(d time.Duration) Option {
	return func(n *Normalizer) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithRecorder 注入指标回调
func WithRecorder(r Recorder) Option {
	return func(n *Normalizer) {
		if r != nil {
			n.recorder = r
		}
	}
}

// WithLogger 注入日志
func WithLogger(logger *zap.Logger) Option {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New 创建规范化器；delegate 为 nil 时未命中的输入原样返回
func New(delegate Delegate, opts ...Option) *Normalizer {
	n := &Normalizer{
		delegate:  delegate,
		cache:     NewMemoryCache(),
		cacheType: "memory",
		synonyms:  cloneSynonyms(DefaultSynonyms),
		timeout:   DefaultTimeout,
		recorder:  nopRecorder{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(zap.String("component", "normalizer"))
	return n
}

// Normalize 返回 raw 的规范形式，从不失败
func (n *Normalizer) Normalize(ctx context.Context, raw string) string {
	start := time.Now()

	if v, ok := n.lookup(ctx, raw); ok {
		n.recorder.RecordNormalization(SourceCache, time.Since(start))
		return v
	}

	if v, ok := n.synonyms[strings.ToLower(raw)]; ok {
		n.recorder.RecordNormalization(SourceSynonym, time.Since(start))
		return v
	}

	if n.delegate == nil {
		n.recorder.RecordNormalization(SourceFallback, time.Since(start))
		return raw
	}

	v, err, shared := n.group.Do(raw, func() (any, error) {
		return n.delegateAndStore(ctx, raw)
	})
	if err != nil {
		fields := append(requestFields(ctx),
			zap.String("input", raw),
			zap.Bool("shared", shared),
			zap.Error(err))
		n.logger.Warn("delegate normalization failed, using raw input", fields...)
		n.recorder.RecordNormalization(SourceFallback, time.Since(start))
		return raw
	}

	n.recorder.RecordNormalization(SourceDelegate, time.Since(start))
	return v.(string)
}

func (n *Normalizer) lookup(ctx context.Context, raw string) (string, bool) {
	v, ok, err := n.cache.Get(ctx, raw)
	if err != nil {
		n.logger.Warn("normalization cache read failed", zap.String("cache", n.cacheType), zap.Error(err))
		ok = false
	}
	if ok {
		n.recorder.RecordCacheHit(n.cacheType)
		return v, true
	}
	n.recorder.RecordCacheMiss(n.cacheType)
	return "", false
}

// delegateAndStore 在 singleflight 内执行；调用与首个请求的取消解耦，只受超时约束
func (n *Normalizer) delegateAndStore(ctx context.Context, raw string) (string, error) {
	detached := context.WithoutCancel(ctx)
	dctx, cancel := context.WithTimeout(detached, n.timeout)
	defer cancel()

	reply, err := n.delegate.Complete(dctx, BuildPrompt(raw))
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	// 空回复按失败处理：不缓存，由调用方原样返回输入
	if reply == "" {
		return "", ErrEmptyReply
	}

	if err := n.cache.Set(detached, raw, reply); err != nil {
		n.logger.Warn("normalization cache write failed", zap.String("cache", n.cacheType), zap.Error(err))
	}
	return reply, nil
}

// requestFields 取出 context 中的请求与用户标识
func requestFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if id, ok := types.RequestID(ctx); ok {
		fields = append(fields, zap.String("request_id", id))
	}
	if id, ok := types.UserID(ctx); ok {
		fields = append(fields, zap.String("user_id", id))
	}
	return fields
}
