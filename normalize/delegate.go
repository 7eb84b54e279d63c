package normalize

import (
	"context"
	"errors"
	"time"

	"github.com/BaSui01/designflow/llm"
	"go.uber.org/zap"
)

// =============================================================================
// 🔌 外部委托
// =============================================================================

// Delegate 外部规范化能力：给定提示词返回一段短文本，可能失败
type Delegate interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DelegateFunc 把普通函数适配为 Delegate
type DelegateFunc func(ctx context.Context, prompt string) (string, error)

// Complete 调用函数本身
func (f DelegateFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// BuildPrompt 生成发给委托的提示词
func BuildPrompt(raw string) string {
	return `Convert "` + raw + `" into a standardized command.`
}

const (
	DefaultMaxTokens   = 55
	DefaultTemperature = 0
)

// ErrEmptyReply 委托返回了没有文本的响应
var ErrEmptyReply = errors.New("normalize: delegate returned no text")

// LLMRecorder LLM 调用指标回调
type LLMRecorder interface {
	RecordLLMRequest(provider, model, status string, duration time.Duration, promptTokens, completionTokens int)
}

// LLMDelegate 基于 llm.Provider 的委托实现
type LLMDelegate struct {
	provider    llm.Provider
	model       string
	maxTokens   int
	temperature float32
	recorder    LLMRecorder
	logger      *zap.Logger
}

// LLMDelegateOption 配置 LLMDelegate
type LLMDelegateOption func(*LLMDelegate)

// WithModel 指定模型，空值时由 Provider 自行选择
func WithModel(model string) LLMDelegateOption {
	return func(d *LLMDelegate) { d.model = model }
}

// WithMaxTokens 覆盖回复长度上限
func WithMaxTokens(n int) LLMDelegateOption {
	return func(d *LLMDelegate) {
		if n > 0 {
			d.maxTokens = n
		}
	}
}

// WithTemperature 覆盖采样温度
func WithTemperature(t float32) LLMDelegateOption {
	return func(d *LLMDelegate) { d.temperature = t }
}

// WithLLMRecorder 注入 LLM 指标回调
func WithLLMRecorder(r LLMRecorder) LLMDelegateOption {
	return func(d *LLMDelegate) { d.recorder = r }
}

// WithDelegateLogger 注入日志
func WithDelegateLogger(logger *zap.Logger) LLMDelegateOption {
	return func(d *LLMDelegate) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewLLMDelegate 创建基于 Provider 的委托
func NewLLMDelegate(provider llm.Provider, opts ...LLMDelegateOption) *LLMDelegate {
	d := &LLMDelegate{
		provider:    provider,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With(zap.String("component", "normalize_delegate"), zap.String("provider", provider.Name()))
	return d
}

// Complete 发送单条 user 消息并返回第一条回复
func (d *LLMDelegate) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := d.provider.Completion(ctx, &llm.ChatRequest{
		Model:       d.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   d.maxTokens,
		Temperature: d.temperature,
	})
	if err != nil {
		d.record("error", start, nil)
		return "", err
	}
	d.record("success", start, resp)

	content, ok := resp.FirstContent()
	if !ok {
		return "", ErrEmptyReply
	}
	return content, nil
}

func (d *LLMDelegate) record(status string, start time.Time, resp *llm.ChatResponse) {
	if d.recorder == nil {
		return
	}
	model := d.model
	var prompt, completion int
	if resp != nil {
		if resp.Model != "" {
			model = resp.Model
		}
		prompt, completion = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	}
	d.recorder.RecordLLMRequest(d.provider.Name(), model, status, time.Since(start), prompt, completion)
}
