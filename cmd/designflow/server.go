package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/BaSui01/designflow/api/handlers"
	"github.com/BaSui01/designflow/config"
	"github.com/BaSui01/designflow/internal/cache"
	"github.com/BaSui01/designflow/internal/metrics"
	"github.com/BaSui01/designflow/internal/server"
	"github.com/BaSui01/designflow/llm"
	llmfactory "github.com/BaSui01/designflow/llm/factory"
	"github.com/BaSui01/designflow/normalize"
	"github.com/BaSui01/designflow/persistence"
	"github.com/BaSui01/designflow/usercontext"
	"go.uber.org/zap"
)

// authSkipPaths 不需要 API Key 的路径
var authSkipPaths = []string{"/", "/health", "/healthz", "/ready", "/readyz", "/version"}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 组装存储、规范化器、服务与 HTTP 端点
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector

	cacheManager *cache.Manager
	provider     llm.Provider
	store        persistence.ContextStore
	normalizer   *normalize.Normalizer
	broadcaster  *usercontext.Broadcaster
	service      *usercontext.Service

	healthHandler  *handlers.HealthHandler
	contextHandler *handlers.ContextHandler
	streamHandler  *handlers.StreamHandler

	httpManager    *server.Manager
	metricsManager *server.Manager

	rateLimiterCancel context.CancelFunc
}

// NewServer 创建服务器实例；collector 在进程内只能创建一次
func NewServer(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
	}
}

// =============================================================================
// 🔧 组件初始化
// =============================================================================

// Init 按依赖顺序创建各组件
func (s *Server) Init(ctx context.Context) error {
	if err := s.initCache(); err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	if err := s.initStore(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	s.initNormalizer()

	s.broadcaster = usercontext.NewBroadcaster(s.collector)
	s.service = usercontext.NewService(s.store, s.normalizer,
		usercontext.WithBroadcaster(s.broadcaster),
		usercontext.WithRecorder(s.collector),
		usercontext.WithLogger(s.logger),
	)

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	s.healthHandler.RegisterCheck(handlers.NewPingCheck("store", s.service.Ping))
	if s.cacheManager != nil {
		s.healthHandler.RegisterCheck(handlers.NewPingCheck("redis", s.cacheManager.Ping))
	}
	// 委托不可用时规范化退化为原样返回，不影响就绪
	if s.provider != nil {
		s.healthHandler.RegisterCheck(handlers.Optional(handlers.NewProviderCheck(s.provider)))
	}
	s.contextHandler = handlers.NewContextHandler(s.service, s.logger)
	s.streamHandler = handlers.NewStreamHandler(s.service, s.broadcaster, s.cfg.Server.CORSAllowedOrigins, s.logger)

	s.logger.Info("components initialized",
		zap.String("store", s.cfg.Store.Type),
		zap.String("normalize_cache", s.cfg.Normalize.CacheType),
	)
	return nil
}

// initCache 规范化缓存或存储任一使用 redis 时创建共享连接
func (s *Server) initCache() error {
	if s.cfg.Normalize.CacheType != "redis" && s.cfg.Store.Type != string(persistence.StoreTypeRedis) {
		return nil
	}
	m, err := cache.NewManager(persistence.RedisCacheConfig(s.cfg.Redis), s.logger)
	if err != nil {
		return err
	}
	s.cacheManager = m
	return nil
}

func (s *Server) initStore(ctx context.Context) error {
	opts := []persistence.FactoryOption{
		persistence.WithRecorder(s.collector),
		persistence.WithDBStatsRecorder(s.collector),
	}
	if s.cacheManager != nil {
		opts = append(opts, persistence.WithCacheManager(s.cacheManager))
	}
	store, err := persistence.NewStore(ctx, s.cfg, s.logger, opts...)
	if err != nil {
		return err
	}
	s.store = store
	return nil
}

// initNormalizer 未配置 API Key 或 Provider 创建失败时不启用委托，未命中的输入原样使用
func (s *Server) initNormalizer() {
	opts := []normalize.Option{
		normalize.WithTimeout(s.cfg.Normalize.DelegateTimeout),
		normalize.WithRecorder(s.collector),
		normalize.WithLogger(s.logger),
	}
	if s.cfg.Normalize.CacheType == "redis" && s.cacheManager != nil {
		opts = append(opts, normalize.WithCache(normalize.NewRedisCache(s.cacheManager, s.cfg.Normalize.CacheTTL), "redis"))
	}

	var delegate normalize.Delegate
	if s.cfg.LLM.APIKey == "" {
		s.logger.Info("LLM API key not configured, normalization delegate disabled")
	} else {
		provider, err := llmfactory.NewProviderFromConfig(s.cfg.LLM.Provider, llmfactory.ProviderConfig{
			APIKey:     s.cfg.LLM.APIKey,
			BaseURL:    s.cfg.LLM.BaseURL,
			Model:      s.cfg.LLM.Model,
			Timeout:    s.cfg.LLM.Timeout,
			MaxRetries: s.cfg.LLM.MaxRetries,
		}, s.logger)
		if err != nil {
			s.logger.Warn("failed to create LLM provider, normalization delegate disabled",
				zap.String("provider", s.cfg.LLM.Provider),
				zap.Error(err))
		} else {
			s.provider = provider
			delegate = normalize.NewLLMDelegate(provider,
				normalize.WithModel(s.cfg.LLM.Model),
				normalize.WithMaxTokens(s.cfg.LLM.MaxTokens),
				normalize.WithTemperature(float32(s.cfg.LLM.Temperature)),
				normalize.WithLLMRecorder(s.collector),
				normalize.WithDelegateLogger(s.logger),
			)
			s.logger.Info("normalization delegate initialized", zap.String("provider", s.cfg.LLM.Provider))
		}
	}

	s.normalizer = normalize.New(delegate, opts...)
}

// =============================================================================
// 🌐 路由与中间件
// =============================================================================

// Handler 返回挂载全部路由与中间件链的 API handler
func (s *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.contextHandler.HandleRoot)
	mux.HandleFunc("/update-context", s.contextHandler.HandleUpdateContext)
	mux.HandleFunc("GET /context/{userId}", s.contextHandler.HandleGetContext)
	mux.HandleFunc("GET /ws/context", s.streamHandler.HandleStream)

	mux.HandleFunc("GET /health", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /ready", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion(Version, BuildTime, GitCommit))

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(ctx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, authSkipPaths, s.cfg.Server.AllowQueryAPIKey, s.logger),
	)
}

// =============================================================================
// 🚀 启动与关闭
// =============================================================================

// Start 启动 API 与 metrics 两个监听器（非阻塞）
func (s *Server) Start() error {
	rlCtx, cancel := context.WithCancel(context.Background())
	s.rateLimiterCancel = cancel

	s.httpManager = server.NewManager("api", s.Handler(rlCtx),
		server.ConfigFrom(s.cfg.Server, s.cfg.Server.HTTPPort), s.logger)
	// websocket 连接不受 http.Server.Shutdown 管理，关闭广播器让推送循环退出
	s.httpManager.OnShutdown(s.broadcaster.Stop)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("start api server: %w", err)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", s.collector.Handler())
	s.metricsManager = server.NewManager("metrics", metricsMux,
		server.ConfigFrom(s.cfg.Server, s.cfg.Server.MetricsPort), s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return fmt.Errorf("start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.String("metrics_addr", s.metricsManager.Addr()),
	)
	return nil
}

// Wait 阻塞直到收到关闭信号或任一监听器出错
func (s *Server) Wait(ctx context.Context) error {
	return server.Wait(ctx, s.logger, s.httpManager, s.metricsManager)
}

// Shutdown 依次关闭 HTTP、metrics、存储与 redis 连接
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("starting graceful shutdown")

	if s.rateLimiterCancel != nil {
		s.rateLimiterCancel()
	}

	var errs []error
	for _, m := range []*server.Manager{s.httpManager, s.metricsManager} {
		if m == nil {
			continue
		}
		if err := m.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s server: %w", m.Name(), err))
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if s.cacheManager != nil {
		if err := s.cacheManager.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.Error("shutdown completed with errors", zap.Error(err))
	} else {
		s.logger.Info("graceful shutdown completed")
	}
	return err
}
