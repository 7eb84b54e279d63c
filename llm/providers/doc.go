// Copyright 2026 DesignFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 providers 提供跨模型服务商的通用适配与辅助能力，是具体 Provider
实现（openaicompat）的公共基础层：请求/响应转换、错误映射与重试包装。

# 核心类型

  - OpenAICompat* 系列 — OpenAI 兼容 API 的通用请求/响应结构体
  - RetryableProvider — 带指数退避重试的 Provider 包装器
  - RetryConfig — 重试策略配置（最大次数、初始延迟、退避因子）

# 核心函数

  - MapHTTPError — 将 HTTP 状态码映射为语义化的 llm.Error（含 Retryable 标记）
  - ConvertMessagesToOpenAI — 统一消息格式转换
  - ToLLMChatResponse — OpenAI 兼容响应到 llm.ChatResponse 的转换
  - ChooseModel — 按优先级选择模型（请求 > 默认 > 兜底）
*/
package providers
