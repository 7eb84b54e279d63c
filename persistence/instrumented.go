package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/BaSui01/designflow/preference"
	"go.uber.org/zap"
)

// Recorder 接收存储操作的耗时与结果（由 metrics.Collector 实现）
type Recorder interface {
	RecordStoreOperation(backend, operation, status string, duration time.Duration)
}

// InstrumentedStore 为任意后端加上单次操作超时、指标与日志
type InstrumentedStore struct {
	next     ContextStore
	backend  string
	timeout  time.Duration
	recorder Recorder
	logger   *zap.Logger
}

// Instrument 包装存储。timeout 为 0 表示不额外限制；recorder 可为 nil。
func Instrument(next ContextStore, backend StoreType, timeout time.Duration, recorder Recorder, logger *zap.Logger) *InstrumentedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedStore{
		next:     next,
		backend:  string(backend),
		timeout:  timeout,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "context_store"), zap.String("backend", string(backend))),
	}
}

func (s *InstrumentedStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *InstrumentedStore) observe(op, userID string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		if !errors.Is(err, ErrInvalidInput) {
			s.logger.Error("store operation failed",
				zap.String("operation", op),
				zap.String("user_id", userID),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
	}
	if s.recorder != nil {
		s.recorder.RecordStoreOperation(s.backend, op, status, time.Since(start))
	}
}

// Get 读取用户记录
func (s *InstrumentedStore) Get(ctx context.Context, userID string) (*Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rec, err := s.next.Get(ctx, userID)
	s.observe("get", userID, start, err)
	return rec, err
}

// Put 写入用户快照
func (s *InstrumentedStore) Put(ctx context.Context, userID string, prefs preference.Snapshot) (*Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rec, err := s.next.Put(ctx, userID, prefs)
	s.observe("put", userID, start, err)
	return rec, err
}

// Ping 检查后端连接
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe("ping", "", start, err)
	return err
}

// Close 关闭底层存储
func (s *InstrumentedStore) Close() error {
	return s.next.Close()
}

// Unwrap 返回被包装的后端
func (s *InstrumentedStore) Unwrap() ContextStore {
	return s.next
}
