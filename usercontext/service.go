package usercontext

import (
	"context"

	"github.com/BaSui01/designflow/persistence"
	"github.com/BaSui01/designflow/preference"
	"github.com/BaSui01/designflow/types"
	"go.uber.org/zap"
)

// MsgMissingFields 缺少 userId 或 input 时的错误消息
const MsgMissingFields = "Missing userId or input"

// 更新结果，用于指标标签
const (
	StatusOK         = "ok"
	StatusInvalid    = "invalid"
	StatusStoreError = "store_error"
)

// Normalizer 把自由文本转换为规范形式，从不失败
type Normalizer interface {
	Normalize(ctx context.Context, raw string) string
}

// Recorder 接收每次更新的结果
type Recorder interface {
	RecordContextUpdate(status string)
}

// Service 串联存储、规范化与偏好合并
type Service struct {
	store       persistence.ContextStore
	normalizer  Normalizer
	broadcaster *Broadcaster
	recorder    Recorder
	logger      *zap.Logger
}

// Option 服务选项
type Option func(*Service)

// WithBroadcaster 每次成功更新后推送快照
func WithBroadcaster(b *Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService 创建服务
func NewService(store persistence.ContextStore, normalizer Normalizer, opts ...Option) *Service {
	s := &Service{
		store:      store,
		normalizer: normalizer,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "usercontext"))
	return s
}

// Update 读取当前快照，应用一条输入后写回并返回新快照。
// 同一用户的并发更新不加锁，后写者胜出。
func (s *Service) Update(ctx context.Context, userID, input string) (preference.Snapshot, error) {
	if userID == "" || input == "" {
		s.record(StatusInvalid)
		return nil, types.NewInvalidRequestError(MsgMissingFields)
	}

	ctx = types.WithUserID(ctx, userID)
	prior, err := s.store.Get(ctx, userID)
	if err != nil {
		s.record(StatusStoreError)
		return nil, types.NewStoreError("get context", err)
	}

	normalized := s.normalizer.Normalize(ctx, input)
	next := preference.Update(prior.Preferences, normalized)

	rec, err := s.store.Put(ctx, userID, next)
	if err != nil {
		s.record(StatusStoreError)
		return nil, types.NewStoreError("put context", err)
	}

	s.logger.Debug("context updated",
		zap.String("user_id", userID),
		zap.String("input", input),
		zap.String("normalized", normalized),
	)
	s.record(StatusOK)

	if s.broadcaster != nil {
		s.broadcaster.Publish(userID, rec.Preferences)
	}
	return rec.Preferences, nil
}

// Current 返回用户的当前快照，不存在时为空快照
func (s *Service) Current(ctx context.Context, userID string) (preference.Snapshot, error) {
	if userID == "" {
		return nil, types.NewInvalidRequestError("Missing userId")
	}
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, types.NewStoreError("get context", err)
	}
	return rec.Preferences, nil
}

// Ping 检查存储是否可用
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Broadcaster 返回快照广播器，可能为 nil
func (s *Service) Broadcaster() *Broadcaster {
	return s.broadcaster
}

func (s *Service) record(status string) {
	if s.recorder != nil {
		s.recorder.RecordContextUpdate(status)
	}
}
