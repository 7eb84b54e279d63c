package normalize

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BaSui01/designflow/testutil"
	"github.com/BaSui01/designflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// =============================================================================
// 🧪 测试替身
// =============================================================================

type countingDelegate struct {
	calls   atomic.Int32
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (d *countingDelegate) Complete(ctx context.Context, prompt string) (string, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.prompts = append(d.prompts, prompt)
	d.mu.Unlock()
	return d.reply(prompt)
}

func replyWith(s string) *countingDelegate {
	return &countingDelegate{reply: func(string) (string, error) { return s, nil }}
}

type recordingRecorder struct {
	mu      sync.Mutex
	sources []string
	hits    int
	misses  int
}

func (r *recordingRecorder) RecordNormalization(source string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func (r *recordingRecorder) RecordCacheHit(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits++
}

func (r *recordingRecorder) RecordCacheMiss(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

type failingCache struct {
	getErr error
	setErr error
}

func (c failingCache) Get(context.Context, string) (string, bool, error) { return "", false, c.getErr }
func (c failingCache) Set(context.Context, string, string) error         { return c.setErr }

// =============================================================================
// 🎯 解析顺序
// =============================================================================

func TestNormalize_SynonymTable(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"greater", "bigger"},
		{"Greater", "bigger"},
		{"TIGHTER", "smaller"},
		{"crimson", "red"},
		{"navy", "blue"},
		{"stretch", "longer"},
		{"compress", "shorter"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			delegate := replyWith("should not be used")
			cache := NewMemoryCache()
			n := New(delegate, WithCache(cache, "memory"))

			assert.Equal(t, tt.want, n.Normalize(context.Background(), tt.input))
			assert.Equal(t, int32(0), delegate.calls.Load())
			assert.Equal(t, 0, cache.Len(), "synonym hits are not cached")
		})
	}
}

func TestNormalize_SynonymRequiresExactText(t *testing.T) {
	delegate := replyWith("bigger")
	n := New(delegate)

	assert.Equal(t, "bigger", n.Normalize(context.Background(), "greater please"))
	assert.Equal(t, int32(1), delegate.calls.Load())
}

func TestNormalize_DelegateReplyTrimmedAndCached(t *testing.T) {
	delegate := replyWith("  bigger \n")
	cache := NewMemoryCache()
	n := New(delegate, WithCache(cache, "memory"))
	ctx := context.Background()

	assert.Equal(t, "bigger", n.Normalize(ctx, "make it larger"))
	assert.Equal(t, "bigger", n.Normalize(ctx, "make it larger"))

	assert.Equal(t, int32(1), delegate.calls.Load(), "second call is served from cache")
	require.Len(t, delegate.prompts, 1)
	assert.Equal(t, `Convert "make it larger" into a standardized command.`, delegate.prompts[0])

	v, ok, err := cache.Get(ctx, "make it larger")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bigger", v)
}

func TestNormalize_CacheKeyIsExactRawText(t *testing.T) {
	delegate := replyWith("bigger")
	n := New(delegate)
	ctx := context.Background()

	n.Normalize(ctx, "Larger")
	n.Normalize(ctx, "larger")
	n.Normalize(ctx, "Larger")

	assert.Equal(t, int32(2), delegate.calls.Load())
}

func TestNormalize_CacheHitTakesPrecedenceOverSynonyms(t *testing.T) {
	cache := NewMemoryCache()
	require.NoError(t, cache.Set(context.Background(), "greater", "much bigger"))
	n := New(nil, WithCache(cache, "memory"))

	assert.Equal(t, "much bigger", n.Normalize(context.Background(), "greater"))
}

func TestNormalize_DelegateFailureFallsBackUncached(t *testing.T) {
	tests := []struct {
		name  string
		reply func(string) (string, error)
	}{
		{name: "error", reply: func(string) (string, error) { return "", errors.New("upstream down") }},
		{name: "empty reply", reply: func(string) (string, error) { return "", nil }},
		{name: "blank reply", reply: func(string) (string, error) { return " \n\t", nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delegate := &countingDelegate{reply: tt.reply}
			cache := NewMemoryCache()
			rec := &recordingRecorder{}
			n := New(delegate, WithCache(cache, "memory"), WithRecorder(rec), WithLogger(zaptest.NewLogger(t)))
			ctx := context.Background()

			assert.Equal(t, "Make It Pop", n.Normalize(ctx, "Make It Pop"))
			assert.Equal(t, "Make It Pop", n.Normalize(ctx, "Make It Pop"))

			assert.Equal(t, 0, cache.Len())
			assert.Equal(t, int32(2), delegate.calls.Load(), "failures are retried on the next request")
			assert.Equal(t, []string{SourceFallback, SourceFallback}, rec.sources)
		})
	}
}

func TestNormalize_DelegateTimeout(t *testing.T) {
	delegate := DelegateFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	n := New(delegate, WithTimeout(20*time.Millisecond))

	start := time.Now()
	assert.Equal(t, "slowly bigger", n.Normalize(context.Background(), "slowly bigger"))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNormalize_NilDelegate(t *testing.T) {
	n := New(nil)
	assert.Equal(t, "anything", n.Normalize(context.Background(), "anything"))
	assert.Equal(t, "bigger", n.Normalize(context.Background(), "greater"))
}

func TestNormalize_CustomSynonyms(t *testing.T) {
	n := New(nil, WithSynonyms(map[string]string{"Huge": "much bigger"}))

	assert.Equal(t, "much bigger", n.Normalize(context.Background(), "HUGE"))
	assert.Equal(t, "greater", n.Normalize(context.Background(), "greater"), "replacing the table drops defaults")
}

func TestNormalize_CacheErrorsDegrade(t *testing.T) {
	delegate := replyWith("smaller")
	n := New(delegate, WithCache(failingCache{
		getErr: errors.New("read failed"),
		setErr: errors.New("write failed"),
	}, "redis"))

	assert.Equal(t, "smaller", n.Normalize(context.Background(), "shrink it"))
	assert.Equal(t, "smaller", n.Normalize(context.Background(), "shrink it"))
	assert.Equal(t, int32(2), delegate.calls.Load())
}

func TestNormalize_ConcurrentMissesCollapse(t *testing.T) {
	delegate := &countingDelegate{reply: func(string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "bigger", nil
	}}
	n := New(delegate)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = n.Normalize(context.Background(), "enlarge")
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "bigger", r)
	}
	assert.Equal(t, int32(1), delegate.calls.Load())
}

func TestNormalize_CancelledCallerStillPopulatesCache(t *testing.T) {
	delegate := replyWith("bigger")
	cache := NewMemoryCache()
	n := New(delegate, WithCache(cache, "memory"))

	assert.Equal(t, "bigger", n.Normalize(testutil.CancelledContext(), "grow"))
	assert.Equal(t, 1, cache.Len())
}

func TestNormalize_RecordsSources(t *testing.T) {
	rec := &recordingRecorder{}
	n := New(replyWith("bigger"), WithRecorder(rec))
	ctx := context.Background()

	n.Normalize(ctx, "navy")
	n.Normalize(ctx, "grow")
	n.Normalize(ctx, "grow")

	assert.Equal(t, []string{SourceSynonym, SourceDelegate, SourceCache}, rec.sources)
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 2, rec.misses)
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, `Convert "blue a little bigger" into a standardized command.`, BuildPrompt("blue a little bigger"))
	assert.True(t, strings.Contains(BuildPrompt(`say "hi"`), `"say "hi""`))
}

func TestRequestFields(t *testing.T) {
	assert.Empty(t, requestFields(context.Background()))

	ctx := types.WithUserID(types.WithRequestID(context.Background(), "req-1"), "u1")
	fields := requestFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "request_id", fields[0].Key)
	assert.Equal(t, "req-1", fields[0].String)
	assert.Equal(t, "user_id", fields[1].Key)
}
