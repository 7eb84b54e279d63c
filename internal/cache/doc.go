// 版权所有 2024 DesignFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存管理能力，支持键前缀、连接池、
健康检查（仅在可达性变化时记录日志）与 JSON 序列化。

# 概述

本包封装 go-redis 客户端，为上层提供统一的读写接口。
normalize.RedisCache 用它保存"原始短语 → 规范指令"映射（默认 TTL），
persistence.RedisStore 用它保存用户偏好记录（NoExpiration）。
支持可选 TLS 加密连接（internal/tlsutil）。

# 核心类型

  - Manager：缓存管理器，提供 Get/Set/Ping 与 GetJSON/SetJSON。
  - Config：地址、密码、键前缀、默认 TTL、连接池、TLS 与健康检查间隔。

# 错误语义

  - ErrCacheMiss / IsCacheMiss：键不存在
  - ErrClosed：Manager 已关闭
*/
package cache
