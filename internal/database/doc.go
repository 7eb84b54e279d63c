// 版权所有 2024 DesignFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库连接池管理，供 SQL 偏好存储使用。

# 核心类型

  - PoolManager：持有 GORM DB 与底层 sql.DB，提供 DB()、Ping()、
    Stats()、Close() 与 WithTransaction()。
  - PoolConfig：最大空闲/打开连接数、生命周期与健康检查间隔。
  - StatsRecorder：健康检查后接收连接数（由 metrics.Collector 实现）。

# 方言

Open 根据 config.DatabaseConfig.Driver 选择 postgres、mysql 或
sqlite（纯 Go 的 glebarez/sqlite）方言。
*/
package database
