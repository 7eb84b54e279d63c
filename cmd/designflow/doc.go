// Copyright (c) DesignFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 DesignFlow 服务端程序入口。

# 概述

cmd/designflow 是偏好服务的可执行入口，提供 HTTP API、websocket 快照推送、
健康检查、版本查询与 glTF 导出等子命令。程序支持 YAML 配置文件加载、
结构化日志（zap）、Prometheus 指标与 OpenTelemetry 追踪。

# 核心类型

  - Server         — 组装存储、规范化器、服务与 API/Metrics 双端口
  - Middleware     — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - statusRecorder — 捕获状态码，保留 Hijack 以支持 websocket

# 主要能力

  - 子命令：serve、export、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、
    RequestLogger、MetricsMiddleware、CORS、RateLimiter（基于 IP）、
    APIKeyAuth（X-API-Key / 可选 query 参数）
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号监听 → 关闭推送 → 关闭 HTTP → 关闭 Metrics → 关闭存储
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
