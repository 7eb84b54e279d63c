// Copyright 2026 DesignFlow Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package testutil 提供 designflow 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext，
    自动注册 Cleanup 防止泄漏
  - 通道辅助: WaitForChannel，区分通道关闭（ErrChannelClosed）与超时（ErrWaitTimeout）
  - 快照辅助: MustSnapshot / AssertSnapshotEqual，按规范形式比较偏好快照

# 子包

  - testutil/mocks: MockProvider（LLM Provider）与 MockStore（偏好存储），
    均支持 Builder 模式、调用记录与错误注入

# 使用示例

	ctx := testutil.TestContext(t)
	store := mocks.NewMockStore().WithPutError(errors.New("down"))
	snap, err := testutil.WaitForChannel(updates, time.Second)
	testutil.AssertSnapshotEqual(t, testutil.MustSnapshot(`{"width":11}`), snap)
*/
package testutil
