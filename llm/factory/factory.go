// Package factory provides a centralized factory for creating LLM Provider
// instances by name. Every supported vendor speaks the OpenAI Chat
// Completions format, so the factory only fills in per-vendor defaults.
package factory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BaSui01/designflow/llm"
	"github.com/BaSui01/designflow/llm/providers"
	"github.com/BaSui01/designflow/llm/providers/openaicompat"
	"go.uber.org/zap"
)

// ProviderConfig is the generic configuration accepted by the factory function.
type ProviderConfig struct {
	APIKey     string        `json:"api_key" yaml:"api_key"`
	BaseURL    string        `json:"base_url" yaml:"base_url"`
	Model      string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries int           `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

type vendor struct {
	baseURL       string
	endpointPath  string
	fallbackModel string
}

var vendors = map[string]vendor{
	"openai":   {baseURL: "https://api.openai.com", fallbackModel: "gpt-3.5-turbo"},
	"deepseek": {baseURL: "https://api.deepseek.com", endpointPath: "/chat/completions", fallbackModel: "deepseek-chat"},
	"qwen":     {baseURL: "https://dashscope.aliyuncs.com", endpointPath: "/compatible-mode/v1/chat/completions", fallbackModel: "qwen3-235b-a22b"},
	"kimi":     {baseURL: "https://api.moonshot.cn", fallbackModel: "moonshot-v1-8k"},
	"grok":     {baseURL: "https://api.x.ai", fallbackModel: "grok-beta"},
	"mistral":  {baseURL: "https://api.mistral.ai", fallbackModel: "mistral-small-latest"},
	"doubao":   {baseURL: "https://ark.cn-beijing.volces.com", endpointPath: "/api/v3/chat/completions", fallbackModel: "Doubao-1.5-pro-32k"},
	// 自建网关或本地推理服务，BaseURL 必填
	"custom": {},
}

// SupportedProviders returns the provider names accepted by NewProviderFromConfig.
func SupportedProviders() []string {
	names := make([]string, 0, len(vendors))
	for name := range vendors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProviderFromConfig creates a Provider instance based on the provider name
// and a generic ProviderConfig. A positive MaxRetries wraps the provider in a
// providers.RetryableProvider.
func NewProviderFromConfig(name string, cfg ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	name = strings.ToLower(strings.TrimSpace(name))
	v, ok := vendors[name]
	if !ok {
		return nil, fmt.Errorf("unsupported llm provider %q (supported: %s)", name, strings.Join(SupportedProviders(), ", "))
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = v.baseURL
	}
	if baseURL == "" {
		return nil, fmt.Errorf("llm provider %q requires base_url", name)
	}

	var p llm.Provider = openaicompat.New(openaicompat.Config{
		ProviderName:  name,
		APIKey:        cfg.APIKey,
		BaseURL:       baseURL,
		DefaultModel:  cfg.Model,
		FallbackModel: v.fallbackModel,
		Timeout:       cfg.Timeout,
		EndpointPath:  v.endpointPath,
	}, logger)

	if cfg.MaxRetries > 0 {
		rc := providers.DefaultRetryConfig()
		rc.MaxRetries = cfg.MaxRetries
		p = providers.NewRetryableProvider(p, rc, logger)
	}
	return p, nil
}
