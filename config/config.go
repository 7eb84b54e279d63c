package config

import (
	"errors"
	"fmt"
	"time"
)

// DefaultEnvPrefix 环境变量默认前缀
const DefaultEnvPrefix = "DESIGNFLOW"

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 designflow 的完整配置结构
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	Normalize NormalizeConfig `yaml:"normalize" env:"NORMALIZE"`
	Store     StoreConfig     `yaml:"store" env:"STORE"`
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Database  DatabaseConfig  `yaml:"database" env:"DATABASE"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口，未设置前缀变量时读取 PORT
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT" alias:"PORT"`
	// Metrics 端口
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 允许的跨域来源；默认 "*" 允许任意来源，空列表时跨域预检返回 403
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// 每个客户端 IP 的限流速率
	RateLimitRPS   int `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// API Key 列表，空表示不鉴权
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
	// 是否允许通过 query 参数传 api_key（websocket 客户端无法设置 header）
	AllowQueryAPIKey bool `yaml:"allow_query_api_key" env:"ALLOW_QUERY_API_KEY"`
}

// LLMConfig 规范化委托使用的 LLM 配置
type LLMConfig struct {
	// Provider 名称: openai, deepseek, qwen, kimi, grok, mistral, doubao, custom
	Provider string `yaml:"provider" env:"PROVIDER"`
	// API Key，为空时不调用委托，规范化退化为原样返回；未设置前缀变量时读取 OPENAI_API_KEY
	APIKey string `yaml:"api_key" env:"API_KEY" alias:"OPENAI_API_KEY"`
	// 基础 URL（可选）
	BaseURL string `yaml:"base_url" env:"BASE_URL"`
	// 模型名称
	Model string `yaml:"model" env:"MODEL"`
	// 单次 HTTP 请求超时
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxTokens   int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	Temperature float64       `yaml:"temperature" env:"TEMPERATURE"`
	// 最大重试次数，0 表示不重试
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
}

// NormalizeConfig 规范化器配置
type NormalizeConfig struct {
	// 缓存类型: memory, redis
	CacheType string `yaml:"cache_type" env:"CACHE_TYPE"`
	// Redis 缓存过期时间，0 表示永不过期
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	// 委托调用超时
	DelegateTimeout time.Duration `yaml:"delegate_timeout" env:"DELEGATE_TIMEOUT"`
}

// StoreConfig 偏好存储配置
type StoreConfig struct {
	// 存储类型: memory, mongo, redis, sql
	Type string `yaml:"type" env:"TYPE"`
	// 单次存储操作超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Mongo   MongoConfig   `yaml:"mongo" env:"MONGO"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI        string `yaml:"uri" env:"URI"`
	Database   string `yaml:"database" env:"DATABASE"`
	Collection string `yaml:"collection" env:"COLLECTION"`
	// 是否启用 TLS
	TLS bool `yaml:"tls" env:"TLS"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 键前缀
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
	// 是否启用 TLS
	TLS bool `yaml:"tls" env:"TLS"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动类型: postgres, mysql, sqlite
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机
	Host string `yaml:"host" env:"HOST"`
	// 端口
	Port int `yaml:"port" env:"PORT"`
	// 用户名
	User string `yaml:"user" env:"USER"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库名，sqlite 下为文件路径
	Name string `yaml:"name" env:"NAME"`
	// SSL 模式
	SSLMode string `yaml:"ssl_mode" env:"SSL_MODE"`
	// 最大连接数
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	// 最大空闲连接
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	// 连接最大生命周期
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否启用堆栈跟踪
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Validate 验证配置，返回所有问题的合并错误
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.HTTPPort > 0 && c.Server.HTTPPort <= 65535, "invalid HTTP port %d", c.Server.HTTPPort)
	check(c.Server.MetricsPort >= 0 && c.Server.MetricsPort <= 65535, "invalid metrics port %d", c.Server.MetricsPort)
	check(c.Server.RateLimitRPS >= 0, "server.rate_limit_rps must not be negative")

	check(c.LLM.MaxTokens > 0, "llm.max_tokens must be positive")
	check(c.LLM.Temperature >= 0 && c.LLM.Temperature <= 2, "llm.temperature must be between 0 and 2")
	check(c.LLM.MaxRetries >= 0, "llm.max_retries must not be negative")

	check(c.Normalize.CacheType == "memory" || c.Normalize.CacheType == "redis",
		"unknown normalize.cache_type %q", c.Normalize.CacheType)
	check(c.Normalize.DelegateTimeout > 0, "normalize.delegate_timeout must be positive")

	switch c.Store.Type {
	case "memory", "redis":
	case "mongo":
		check(c.Store.Mongo.URI != "", "store.mongo.uri is required for mongo store")
	case "sql":
		check(c.Database.DSN() != "", "unsupported database driver %q", c.Database.Driver)
	default:
		check(false, "unknown store.type %q", c.Store.Type)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %w", errors.Join(errs...))
	}
	return nil
}

// DSN 返回数据库连接字符串
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
