package providers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/BaSui01/designflow/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		msg           string
		expectedCode  llm.ErrorCode
		expectedRetry bool
	}{
		{name: "401 unauthorized", status: http.StatusUnauthorized, msg: "Invalid API key", expectedCode: llm.ErrUnauthorized},
		{name: "403 forbidden", status: http.StatusForbidden, msg: "Access denied", expectedCode: llm.ErrForbidden},
		{name: "429 rate limited", status: http.StatusTooManyRequests, msg: "slow down", expectedCode: llm.ErrRateLimited, expectedRetry: true},
		{name: "400 quota", status: http.StatusBadRequest, msg: "Quota exceeded", expectedCode: llm.ErrQuotaExceeded},
		{name: "400 credit", status: http.StatusBadRequest, msg: "insufficient credit", expectedCode: llm.ErrQuotaExceeded},
		{name: "400 invalid", status: http.StatusBadRequest, msg: "bad messages", expectedCode: llm.ErrInvalidRequest},
		{name: "408 timeout", status: http.StatusRequestTimeout, msg: "timeout", expectedCode: llm.ErrUpstreamTimeout, expectedRetry: true},
		{name: "504 timeout", status: http.StatusGatewayTimeout, msg: "timeout", expectedCode: llm.ErrUpstreamTimeout, expectedRetry: true},
		{name: "502 bad gateway", status: http.StatusBadGateway, msg: "bad gateway", expectedCode: llm.ErrUpstreamError, expectedRetry: true},
		{name: "503 unavailable", status: http.StatusServiceUnavailable, msg: "down", expectedCode: llm.ErrUpstreamError, expectedRetry: true},
		{name: "529 overloaded", status: 529, msg: "overloaded", expectedCode: llm.ErrModelOverloaded, expectedRetry: true},
		{name: "500 internal", status: http.StatusInternalServerError, msg: "oops", expectedCode: llm.ErrUpstreamError, expectedRetry: true},
		{name: "418 unknown", status: http.StatusTeapot, msg: "teapot", expectedCode: llm.ErrUpstreamError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(tt.status, tt.msg, "openai")
			require.NotNil(t, err)
			assert.Equal(t, tt.expectedCode, err.Code)
			assert.Equal(t, tt.expectedRetry, err.Retryable)
			assert.Equal(t, tt.status, err.HTTPStatus)
			assert.Equal(t, tt.msg, err.Message)
			assert.Equal(t, "openai", err.Provider)
		})
	}
}

func TestReadErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "json with type", body: `{"error":{"message":"invalid key","type":"auth"}}`, want: "invalid key (type: auth)"},
		{name: "json without type", body: `{"error":{"message":"slow down"}}`, want: "slow down"},
		{name: "plain text", body: "  upstream exploded \n", want: "upstream exploded"},
		{name: "json without message", body: `{"error":{}}`, want: `{"error":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadErrorMessage(strings.NewReader(tt.body)))
		})
	}
}

func TestConvertMessagesToOpenAI(t *testing.T) {
	out := ConvertMessagesToOpenAI([]llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "make it larger", Name: "u1"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, OpenAICompatMessage{Role: "system", Content: "sys"}, out[0])
	assert.Equal(t, OpenAICompatMessage{Role: "user", Content: "make it larger", Name: "u1"}, out[1])

	assert.Empty(t, ConvertMessagesToOpenAI(nil))
}

func TestToLLMChatResponse(t *testing.T) {
	resp := ToLLMChatResponse(OpenAICompatResponse{
		ID:    "resp-1",
		Model: "gpt-test",
		Choices: []OpenAICompatChoice{{
			Index:        0,
			FinishReason: "stop",
			Message:      OpenAICompatMessage{Role: "assistant", Content: "bigger"},
		}},
		Usage:   &OpenAICompatUsage{PromptTokens: 12, CompletionTokens: 1, TotalTokens: 13},
		Created: 1700000000,
	}, "openai")

	assert.Equal(t, "resp-1", resp.ID)
	assert.Equal(t, "openai", resp.Provider)
	content, ok := resp.FirstContent()
	require.True(t, ok)
	assert.Equal(t, "bigger", content)
	assert.Equal(t, llm.RoleAssistant, resp.Choices[0].Message.Role)
	assert.Equal(t, 13, resp.Usage.TotalTokens)
	assert.Equal(t, time.Unix(1700000000, 0), resp.CreatedAt)

	bare := ToLLMChatResponse(OpenAICompatResponse{ID: "r2"}, "openai")
	assert.Empty(t, bare.Choices)
	assert.Zero(t, bare.Usage.TotalTokens)
	assert.True(t, bare.CreatedAt.IsZero())
}

func TestChooseModel_Priority(t *testing.T) {
	tests := []struct {
		name          string
		req           *llm.ChatRequest
		defaultModel  string
		fallbackModel string
		expected      string
	}{
		{name: "request wins", req: &llm.ChatRequest{Model: "req"}, defaultModel: "cfg", fallbackModel: "fb", expected: "req"},
		{name: "config over fallback", req: &llm.ChatRequest{}, defaultModel: "cfg", fallbackModel: "fb", expected: "cfg"},
		{name: "fallback last", req: &llm.ChatRequest{}, fallbackModel: "fb", expected: "fb"},
		{name: "nil request", req: nil, defaultModel: "cfg", expected: "cfg"},
		{name: "all empty", req: &llm.ChatRequest{}, expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChooseModel(tt.req, tt.defaultModel, tt.fallbackModel))
		})
	}
}

func TestBearerTokenHeaders(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://example.invalid", nil)
	require.NoError(t, err)
	BearerTokenHeaders(req, "sk-test")
	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}
