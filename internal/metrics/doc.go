// 版权所有 2024 DesignFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、
规范化委托、偏好更新、缓存与存储五个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标。每个 Collector
默认持有独立的 prometheus.Registry（可用 WithRegistry 共享），经由
promauto.With 注册，Handler 以 promhttp 暴露该注册表。
WithRuntimeMetrics 额外注册 Go 运行时与进程指标。Collector 同时满足
normalize.Recorder、normalize.LLMRecorder、persistence.Recorder 与
usercontext.Recorder 接口，由 cmd/designflow 注入各组件。

# 主要能力

  - HTTP 指标：请求总数、耗时、请求/响应体大小，状态码归类为 2xx/3xx/4xx/5xx。
  - LLM 指标：请求总数、耗时、Token 用量（prompt/completion）。
  - 规范化指标：按来源（cache/synonym/delegate/fallback）计数与耗时。
  - 偏好更新：更新结果计数，快照订阅者数量。
  - 缓存指标：命中与未命中计数，按 cache_type 分组。
  - 存储指标：按 backend/operation/status 的操作计数与耗时，数据库连接数。
*/
package metrics
