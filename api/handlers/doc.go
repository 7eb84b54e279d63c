// Copyright (c) DesignFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 DesignFlow HTTP API 的请求处理器实现。

# 概述

handlers 包实现偏好更新、快照读取、websocket 推送与健康检查端点。
所有 Handler 均遵循标准 net/http 接口，路由由 Go 1.22 的 ServeMux 模式注册。

# 核心类型

  - ContextHandler — GET /、POST /update-context、GET /context/{userId}
  - StreamHandler  — GET /ws/context?userId=，推送快照的 websocket 端点
  - HealthHandler  — /health、/healthz、/ready、/readyz、/version
  - HealthCheck    — 可插拔就绪检查接口，PingCheck 为基于 ping 的实现
  - ErrorBody      — 业务端点的错误响应 {"error": "..."}

# 主要能力

  - WriteJSON / WriteError / WriteErrorFrom 统一写出响应
  - 5xx 响应体固定为 "Internal server error"，细节只进日志
  - DecodeJSONBody：1 MB 限制，拒绝尾随数据
  - ErrorCode → HTTP 状态码映射
*/
package handlers
