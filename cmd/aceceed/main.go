// =============================================================================
// aceceed-edge 主入口
// =============================================================================
// 设备端语音辅导运行时：按键说话会话、HTTP API、健康检查、Prometheus 指标
//
// 使用方法:
//
//	aceceed serve                        # 启动服务
//	aceceed serve --config default.yaml  # 指定配置文件
//	aceceed index -i docs -o index.json  # 构建 RAG 索引（另需 -s -g -t --source-id）
//	aceceed status                       # 查看服务就绪情况
//	aceceed health                       # 健康检查
//	aceceed version                      # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/telemetry"
	"github.com/jjfwang/aceceed-edge/session"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "index":
		os.Exit(runIndex(context.Background(), os.Args[2:], os.Stdout, os.Stderr))
	case "status":
		runStatus(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// loadConfig 解析配置路径并加载、验证配置
func loadConfig(configPath, envFile string) (*config.Config, error) {
	loader := config.NewLoader().
		WithEnvPrefix(config.DefaultEnvPrefix).
		WithValidator(func(c *config.Config) error { return c.Validate() })
	if path := config.ResolveConfigPath(configPath); path != "" {
		loader = loader.WithConfigPath(path)
	}
	if envFile != "" {
		loader = loader.WithDotEnv(envFile)
	}
	return loader.Load()
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting aceceed-edge",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	server := NewServer(cfg, logger, otelProviders, os.Stdin)
	if err := server.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	server.WaitForShutdown()
	logger.Info("aceceed-edge stopped")
}

// =============================================================================
// 📋 status 命令
// =============================================================================

func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !printStatus(os.Stdout, session.Services(cfg)) {
		os.Exit(1)
	}
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://127.0.0.1:8000", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("OK")
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("aceceed-edge %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`aceceed-edge - on-device voice tutor runtime

Usage:
  aceceed <command> [options]

Commands:
  serve     Start the runtime (HTTP API, metrics, push-to-talk)
  index     Build a RAG index from .txt files
  status    Show service readiness from configuration
  health    Check server health
  version   Show version information
  help      Show this help message

Options for 'serve' and 'status':
  --config <path>     Path to configuration file (YAML)
  --env-file <path>   Path to .env file (default .env)

Options for 'index':
  -i <dir>              Directory containing .txt files
  -o <file>             Output JSON file
  -s <subject>          Subject, e.g. mathematics
  -g <grade>            Grade band: primary, secondary, jc
  -t <topic>            Topic, e.g. algebra
  --source-id <id>      Identifier for the source document set
  --source-type <type>  Source type tag (default textbook)

Examples:
  aceceed serve --config configs/default.yaml
  aceceed index -i docs/fractions -o data/rag/index.json -s mathematics -g primary -t fractions --source-id moe-math-p4
  aceceed status
  aceceed health --addr http://127.0.0.1:8000
  aceceed version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputs,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	var opts []zap.Option
	if cfg.EnableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	logger, err := zapConfig.Build(opts...)
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}
