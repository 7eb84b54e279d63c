// Copyright (c) DesignFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 designflow 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 preference、normalize、
persistence、usercontext 与 api 等上层模块提供统一的错误与上下文契约。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 HTTP 状态码、Retryable 标记
  - Context 传播      — WithTraceID / WithRequestID / WithUserID

# 错误工具链

  - AsError / IsErrorCode / IsRetryable / GetErrorCode
  - NewInvalidRequestError / NewStoreError
*/
package types
