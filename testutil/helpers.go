// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试辅助函数和快照断言
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	snap, err := testutil.WaitForChannel(updates, time.Second)
//	testutil.AssertSnapshotEqual(t, testutil.MustSnapshot(`{"width":11}`), snap)
//
// =============================================================================
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/BaSui01/designflow/preference"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	return TestContextWithTimeout(t, 10*time.Second)
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// ⏱️ 通道辅助
// =============================================================================

var (
	ErrChannelClosed = errors.New("channel closed")
	ErrWaitTimeout   = errors.New("timed out waiting for channel")
)

// WaitForChannel 等待通道接收；通道关闭返回 ErrChannelClosed，超时返回 ErrWaitTimeout
func WaitForChannel[T any](ch <-chan T, timeout time.Duration) (T, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case v, ok := <-ch:
		if !ok {
			return zero, ErrChannelClosed
		}
		return v, nil
	case <-timer.C:
		return zero, ErrWaitTimeout
	}
}

// =============================================================================
// 🧊 快照辅助
// =============================================================================

// MustSnapshot 把 JSON 解析为规范化快照，失败时 panic
func MustSnapshot(s string) preference.Snapshot {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var snap preference.Snapshot
	if err := dec.Decode(&snap); err != nil {
		panic(err)
	}
	return preference.Canonical(snap)
}

// AssertSnapshotEqual 比较两份快照的规范形式，数值类型差异不影响结果
func AssertSnapshotEqual(t testing.TB, expected, actual preference.Snapshot) {
	t.Helper()

	want, err := json.Marshal(preference.Canonical(expected))
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}
	got, err := json.Marshal(preference.Canonical(actual))
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Errorf("snapshot mismatch:\nexpected: %s\nactual:   %s", want, got)
	}
}
