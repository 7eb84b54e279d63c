package normalize

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/designflow/llm"
	"github.com/BaSui01/designflow/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type llmCall struct {
	provider, model, status string
	prompt, completion      int
}

type llmRecorder struct {
	mu    sync.Mutex
	calls []llmCall
}

func (r *llmRecorder) RecordLLMRequest(provider, model, status string, _ time.Duration, prompt, completion int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, llmCall{provider, model, status, prompt, completion})
}

func TestLLMDelegate_RequestShape(t *testing.T) {
	provider := mocks.NewMockProvider().WithResponse("bigger")
	d := NewLLMDelegate(provider, WithModel("gpt-3.5-turbo"))

	reply, err := d.Complete(context.Background(), BuildPrompt("larger"))
	require.NoError(t, err)
	assert.Equal(t, "bigger", reply)

	req := provider.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "gpt-3.5-turbo", req.Model)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, float32(0), req.Temperature)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, llm.RoleUser, req.Messages[0].Role)
	assert.Equal(t, `Convert "larger" into a standardized command.`, req.Messages[0].Content)
}

func TestLLMDelegate_Options(t *testing.T) {
	provider := mocks.NewMockProvider()
	d := NewLLMDelegate(provider, WithMaxTokens(10), WithMaxTokens(0), WithTemperature(0.2), WithDelegateLogger(nil))

	_, err := d.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, 10, provider.LastRequest().MaxTokens)
	assert.Equal(t, float32(0.2), provider.LastRequest().Temperature)
}

func TestLLMDelegate_Errors(t *testing.T) {
	rec := &llmRecorder{}

	failing := mocks.NewMockProvider().WithError(errors.New("rate limited"))
	_, err := NewLLMDelegate(failing, WithLLMRecorder(rec)).Complete(context.Background(), "p")
	require.Error(t, err)

	empty := mocks.NewMockProvider().WithCompletionFunc(func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Model: "m"}, nil
	})
	_, err = NewLLMDelegate(empty, WithLLMRecorder(rec)).Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyReply)

	require.Len(t, rec.calls, 2)
	assert.Equal(t, "error", rec.calls[0].status)
	assert.Equal(t, "success", rec.calls[1].status)
	assert.Equal(t, "m", rec.calls[1].model)
}

func TestLLMDelegate_RecordsUsage(t *testing.T) {
	rec := &llmRecorder{}
	provider := mocks.NewMockProvider().WithCompletionFunc(func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{
			Model:   "gpt-3.5-turbo-0125",
			Choices: []llm.ChatChoice{{Message: llm.Message{Role: llm.RoleAssistant, Content: "red"}}},
			Usage:   llm.ChatUsage{PromptTokens: 14, CompletionTokens: 1},
		}, nil
	})

	reply, err := NewLLMDelegate(provider, WithLLMRecorder(rec)).Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "red", reply)
	assert.Equal(t, []llmCall{{"mock", "gpt-3.5-turbo-0125", "success", 14, 1}}, rec.calls)
}

func TestLLMDelegate_WithNormalizer(t *testing.T) {
	provider := mocks.NewMockProvider().WithResponse(" much bigger ")
	n := New(NewLLMDelegate(provider))

	assert.Equal(t, "much bigger", n.Normalize(context.Background(), "way larger"))
	assert.Equal(t, "much bigger", n.Normalize(context.Background(), "way larger"))
	assert.Equal(t, 1, provider.CallCount())
}

func TestLLMDelegate_ProviderTimeoutFallsBack(t *testing.T) {
	provider := mocks.NewMockProvider().WithResponse("bigger").WithDelay(time.Second)
	n := New(NewLLMDelegate(provider), WithTimeout(20*time.Millisecond))

	assert.Equal(t, "way larger", n.Normalize(context.Background(), "way larger"))
}

func TestLLMDelegate_CachedReplySurvivesProviderFailure(t *testing.T) {
	provider := mocks.NewMockProvider().WithResponse("bigger").WithFailAfter(1)
	n := New(NewLLMDelegate(provider))

	assert.Equal(t, "bigger", n.Normalize(context.Background(), "way larger"))
	// 第二次调用失败，未命中的输入原样返回，已缓存的不受影响
	assert.Equal(t, "a bit wider", n.Normalize(context.Background(), "a bit wider"))
	assert.Equal(t, "bigger", n.Normalize(context.Background(), "way larger"))

	calls := provider.Calls()
	require.Len(t, calls, 2)
	assert.NoError(t, calls[0].Error)
	assert.Error(t, calls[1].Error)
	assert.Equal(t, BuildPrompt("a bit wider"), calls[1].Request.Messages[0].Content)
}
