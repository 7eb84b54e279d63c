package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/BaSui01/designflow/llm"
	"go.uber.org/zap"
)

// RetryConfig holds retry configuration for a provider wrapper.
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries"`    // Maximum retry attempts
	InitialDelay  time.Duration `json:"initial_delay"`  // Initial backoff delay, default 200ms
	MaxDelay      time.Duration `json:"max_delay"`      // Maximum backoff delay, default 2s
	BackoffFactor float64       `json:"backoff_factor"` // Exponential backoff factor, default 2.0
	RetryableOnly bool          `json:"retryable_only"` // Only retry errors marked Retryable

	// OnRetry 在每次重试前调用，attempt 从 1 开始
	OnRetry func(attempt int, err error) `json:"-"`
}

// DefaultRetryConfig returns retry defaults sized for short normalization calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    1,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		RetryableOnly: true,
	}
}

// RetryableProvider wraps an llm.Provider with exponential backoff.
// A retry whose backoff would outlive the caller's deadline is skipped and
// the last upstream error is returned instead.
type RetryableProvider struct {
	inner  llm.Provider
	config RetryConfig
	logger *zap.Logger
}

// NewRetryableProvider creates a retrying wrapper around the given provider.
func NewRetryableProvider(inner llm.Provider, config RetryConfig, logger *zap.Logger) *RetryableProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.BackoffFactor <= 0 {
		config.BackoffFactor = 2.0
	}
	return &RetryableProvider{
		inner:  inner,
		config: config,
		logger: logger.With(zap.String("component", "retry_provider"), zap.String("provider", inner.Name())),
	}
}

var _ llm.Provider = (*RetryableProvider)(nil)

func (p *RetryableProvider) Name() string { return p.inner.Name() }

func (p *RetryableProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return p.inner.HealthCheck(ctx)
}

// Completion performs a chat completion, retrying transient upstream errors.
func (p *RetryableProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := p.inner.Completion(ctx, req)
	for attempt := 1; err != nil && attempt <= p.config.MaxRetries; attempt++ {
		if !p.shouldRetry(err) {
			return nil, err
		}

		delay := p.calculateDelay(attempt)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= delay {
			p.logger.Debug("retry skipped, deadline too close",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			return nil, err
		}

		p.logger.Warn("completion failed, will retry",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if p.config.OnRetry != nil {
			p.config.OnRetry(attempt, err)
		}
		if waitErr := sleepCtx(ctx, delay); waitErr != nil {
			return nil, waitErr
		}

		resp, err = p.inner.Completion(ctx, req)
	}
	if err != nil {
		if p.config.MaxRetries > 0 && p.shouldRetry(err) {
			return nil, fmt.Errorf("completion failed after %d retries: %w", p.config.MaxRetries, err)
		}
		return nil, err
	}
	return resp, nil
}

func (p *RetryableProvider) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if !p.config.RetryableOnly {
		return true
	}
	var llmErr *llm.Error
	return errors.As(err, &llmErr) && llmErr.Retryable
}

func (p *RetryableProvider) calculateDelay(attempt int) time.Duration {
	delay := float64(p.config.InitialDelay) * math.Pow(p.config.BackoffFactor, float64(attempt-1))
	if p.config.MaxDelay > 0 && delay > float64(p.config.MaxDelay) {
		delay = float64(p.config.MaxDelay)
	}
	return time.Duration(delay)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
