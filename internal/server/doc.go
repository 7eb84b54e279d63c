// 版权所有 2024 DesignFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 HTTP 监听器的生命周期：非阻塞启动、优雅关闭与信号等待。

# 核心类型

  - Manager：封装 net/http.Server 与 net.Listener，提供 Start/Shutdown、
    关闭钩子（OnShutdown）与异步错误通道。
  - Config：监听地址、读写超时、空闲超时、请求头上限与关闭超时，
    可由 ConfigFrom 从 config.ServerConfig 派生。

# 信号处理

Wait 阻塞直到收到 SIGINT/SIGTERM、ctx 取消或任一 Manager 异步出错，
随后由调用方按顺序关闭各个 Manager。API 服务与 metrics 服务各用一个
Manager，共享同一次 Wait。
*/
package server
