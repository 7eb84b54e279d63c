package factory

import (
	"testing"

	"github.com/BaSui01/designflow/llm/providers"
	"github.com/BaSui01/designflow/llm/providers/openaicompat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =============================================================================
// Factory Tests
// =============================================================================

func TestNewProviderFromConfig_AllProviders(t *testing.T) {
	tests := []struct {
		providerName string
		cfg          ProviderConfig
		wantBaseURL  string
		wantEndpoint string
	}{
		{providerName: "openai", wantBaseURL: "https://api.openai.com", wantEndpoint: "/v1/chat/completions"},
		{providerName: "deepseek", wantBaseURL: "https://api.deepseek.com", wantEndpoint: "/chat/completions"},
		{providerName: "qwen", wantBaseURL: "https://dashscope.aliyuncs.com", wantEndpoint: "/compatible-mode/v1/chat/completions"},
		{providerName: "kimi", wantBaseURL: "https://api.moonshot.cn", wantEndpoint: "/v1/chat/completions"},
		{providerName: "grok", wantBaseURL: "https://api.x.ai", wantEndpoint: "/v1/chat/completions"},
		{providerName: "mistral", wantBaseURL: "https://api.mistral.ai", wantEndpoint: "/v1/chat/completions"},
		{providerName: "doubao", wantBaseURL: "https://ark.cn-beijing.volces.com", wantEndpoint: "/api/v3/chat/completions"},
		{providerName: "custom", cfg: ProviderConfig{BaseURL: "http://localhost:11434"}, wantBaseURL: "http://localhost:11434", wantEndpoint: "/v1/chat/completions"},
	}

	for _, tt := range tests {
		t.Run(tt.providerName, func(t *testing.T) {
			tt.cfg.APIKey = "sk-test"
			p, err := NewProviderFromConfig(tt.providerName, tt.cfg, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.providerName, p.Name())

			oc, ok := p.(*openaicompat.Provider)
			require.True(t, ok)
			assert.Equal(t, tt.wantBaseURL, oc.Cfg.BaseURL)
			assert.Equal(t, tt.wantEndpoint, oc.Cfg.EndpointPath)
			assert.Equal(t, "sk-test", oc.Cfg.APIKey)
		})
	}
}

func TestNewProviderFromConfig_Overrides(t *testing.T) {
	p, err := NewProviderFromConfig(" OpenAI ", ProviderConfig{
		BaseURL: "https://gateway.internal",
		Model:   "gpt-4o-mini",
	}, nil)
	require.NoError(t, err)
	oc := p.(*openaicompat.Provider)
	assert.Equal(t, "https://gateway.internal", oc.Cfg.BaseURL)
	assert.Equal(t, "gpt-4o-mini", oc.Cfg.DefaultModel)
	assert.Equal(t, "gpt-3.5-turbo", oc.Cfg.FallbackModel)
}

func TestNewProviderFromConfig_Retries(t *testing.T) {
	p, err := NewProviderFromConfig("openai", ProviderConfig{MaxRetries: 2}, nil)
	require.NoError(t, err)
	_, ok := p.(*providers.RetryableProvider)
	assert.True(t, ok)
	assert.Equal(t, "openai", p.Name())
}

func TestNewProviderFromConfig_Errors(t *testing.T) {
	_, err := NewProviderFromConfig("unknown", ProviderConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")

	_, err = NewProviderFromConfig("custom", ProviderConfig{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
}

func TestSupportedProviders_Sorted(t *testing.T) {
	names := SupportedProviders()
	assert.Contains(t, names, "openai")
	assert.IsNonDecreasing(t, names)
}
