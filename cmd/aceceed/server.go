package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/api/handlers"
	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/metrics"
	"github.com/jjfwang/aceceed-edge/internal/server"
	"github.com/jjfwang/aceceed-edge/internal/telemetry"
	"github.com/jjfwang/aceceed-edge/session"
)

// skipAuthPaths 不需要 API Key 的路径
var skipAuthPaths = []string{"/health", "/healthz", "/ready", "/version"}

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 设备端主服务：HTTP API、metrics 与按键监听
type Server struct {
	cfg       *config.Config
	logger    *zap.Logger
	telemetry *telemetry.Providers
	stdin     io.Reader

	app              *app
	metricsCollector *metrics.Collector

	httpManager    *server.Manager
	metricsManager *server.Manager

	// 会话监听、按键与限流清理协程的生命周期
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer 创建新的服务器实例；stdin 用于键盘按键模式
func NewServer(cfg *config.Config, logger *zap.Logger, providers *telemetry.Providers, stdin io.Reader) *Server {
	return &Server{
		cfg:       cfg,
		logger:    logger,
		telemetry: providers,
		stdin:     stdin,
	}
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Start 启动所有服务
func (s *Server) Start() error {
	s.metricsCollector = metrics.NewCollector("aceceed", s.logger)

	rt, err := buildRuntime(s.cfg, s.metricsCollector, s.logger)
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}
	s.app = rt

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.app.controller.Listen(ctx)
	}()

	if s.cfg.Runtime.PushToTalkMode == "keyboard" {
		if err := s.startKeyboard(ctx); err != nil {
			s.logger.Warn("keyboard push-to-talk unavailable", zap.Error(err))
		}
	}

	if err := s.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.String("metrics_addr", s.metricsManager.Addr()),
		zap.String("push_to_talk_mode", s.cfg.Runtime.PushToTalkMode),
	)
	return nil
}

func (s *Server) startKeyboard(ctx context.Context) error {
	kb, err := NewKeyboardPTT(s.stdin, s.app.controller, s.logger)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		kb.Run(ctx)
	}()
	return nil
}

// routes 注册全部 API 路由并套上中间件链
func (s *Server) routes(ctx context.Context) http.Handler {
	ctrl := s.app.controller

	health := handlers.NewHealthHandler(s.logger)
	health.RegisterCheck(handlers.NewFuncCheck("rag_index", s.app.ragReady(s.cfg.RAG)))
	health.RegisterCheck(handlers.NewFuncCheck("llm", s.app.llmReady))

	var retriever session.Retriever
	if s.app.retriever != nil {
		retriever = s.app.retriever
	}

	ptt := handlers.NewPTTHandler(ctrl, s.logger)
	ragHandler := handlers.NewRAGHandler(retriever, s.cfg.RAG, s.logger)
	events := handlers.NewEventsHandler(ctrl.Bus(), s.cfg.Server.CORSAllowedOrigins, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", health.HandleHealth)
	mux.HandleFunc("/healthz", health.HandleHealthz)
	mux.HandleFunc("/ready", health.HandleReady)
	mux.HandleFunc("/version", health.HandleVersion(Version, BuildTime, GitCommit))

	mux.HandleFunc("/v1/ptt/start", ptt.HandleStart)
	mux.HandleFunc("/v1/ptt/stop", ptt.HandleStop)
	mux.HandleFunc("/v1/camera/capture", ptt.HandleCapture)
	mux.HandleFunc("/v1/runtime/services", ptt.HandleServices)
	mux.HandleFunc("/v1/rag/search", ragHandler.HandleSearch)
	mux.Handle("/v1/events", events)

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
		OTelTracing(),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(ctx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
		APIKeyAuth(s.cfg.Server.APIKeys, skipAuthPaths, s.logger),
	)
}

// =============================================================================
// 🌐 HTTP 服务器
// =============================================================================

func (s *Server) startHTTPServer(ctx context.Context) error {
	cfg := server.FromServerConfig(s.cfg.Server, s.cfg.Server.HTTPPort)
	s.httpManager = server.NewManager("api", s.routes(ctx), cfg, s.logger)
	return s.httpManager.Start()
}

// =============================================================================
// 📊 Metrics 服务器
// =============================================================================

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	cfg := server.FromServerConfig(s.cfg.Server, s.cfg.Server.MetricsPort)
	s.metricsManager = server.NewManager("metrics", mux, cfg, s.logger)
	return s.metricsManager.Start()
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// WaitForShutdown 等待关闭信号并优雅关闭
func (s *Server) WaitForShutdown() {
	ctx, cancel := context.WithCancel(context.Background())
	server.WaitForSignal(ctx, s.logger, s.httpManager, s.metricsManager)
	cancel()
	s.Shutdown()
}

// Shutdown 优雅关闭所有服务
func (s *Server) Shutdown() {
	s.logger.Info("starting graceful shutdown")
	ctx := context.Background()

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.app != nil {
		s.app.controller.Stop(session.SourceSystem)
		s.app.controller.Bus().Close()
	}
	s.wg.Wait()

	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Error("telemetry shutdown error", zap.Error(err))
	}
	s.logger.Info("graceful shutdown completed")
}
