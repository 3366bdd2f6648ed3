package factory

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/metrics"
	"github.com/jjfwang/aceceed-edge/llm"
	"github.com/jjfwang/aceceed-edge/llm/circuitbreaker"
	"github.com/jjfwang/aceceed-edge/llm/providers/llm8850"
	"github.com/jjfwang/aceceed-edge/llm/providers/openaicompat"
	"github.com/jjfwang/aceceed-edge/llm/retry"
	"github.com/jjfwang/aceceed-edge/types"
)

// BackendName 返回用于日志、指标和服务状态的后端标识，
// 云端为 "cloud:<provider>"，本地为 "local:<backend>"。
func BackendName(cfg config.LLMConfig) string {
	if cfg.Mode == config.ModeCloud {
		return "cloud:" + cfg.Cloud.Provider
	}
	return "local:" + cfg.Local.Backend
}

// NewClient 按配置创建 LLM 客户端，并套上日志、指标与熔断中间件。
// collector 可以为 nil。
func NewClient(cfg config.LLMConfig, collector *metrics.Collector, logger *zap.Logger) (llm.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := newBaseClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	backend := BackendName(cfg)
	breaker := circuitbreaker.New(circuitbreaker.DefaultConfig(), logger.With(zap.String("backend", backend)))
	return llm.Chain(base,
		llm.LoggingMiddleware(backend, logger),
		llm.MetricsMiddleware(backend, collector),
		llm.BreakerMiddleware(breaker),
	), nil
}

func newBaseClient(cfg config.LLMConfig, logger *zap.Logger) (llm.Client, error) {
	switch cfg.Mode {
	case config.ModeCloud:
		return newCloudClient(cfg.Cloud, logger)
	case config.ModeLocal, "":
		return newLocalClient(cfg.Local, logger)
	default:
		return nil, types.NewError(types.ErrNotConfigured, fmt.Sprintf("unsupported llm mode %q", cfg.Mode))
	}
}

func newCloudClient(cfg config.LLMCloudConfig, logger *zap.Logger) (llm.Client, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider != "" && provider != "openai" {
		return nil, types.NewError(types.ErrNotConfigured, fmt.Sprintf("unsupported cloud llm provider %q", cfg.Provider))
	}

	apiKey := os.Getenv(cfg.APIKeyEnv)
	if cfg.APIKeyEnv == "" || apiKey == "" {
		return nil, types.NewError(types.ErrNotConfigured, "Missing API key in env "+cfg.APIKeyEnv)
	}

	return openaicompat.New(openaicompat.Config{
		Label:       "OpenAI API",
		APIKey:      apiKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.RequestTimeout,
		Retry:       retry.DefaultRetryPolicy(),
	}, logger), nil
}

func newLocalClient(cfg config.LLMLocalConfig, logger *zap.Logger) (llm.Client, error) {
	switch cfg.Backend {
	case config.BackendLLM8850:
		temp := cfg.LLM8850.Temperature
		if temp == 0 {
			temp = cfg.Temperature
		}
		return llm8850.New(llm8850.Config{
			Host:           cfg.LLM8850.Host,
			Temperature:    temp,
			TopK:           cfg.LLM8850.TopK,
			RequestTimeout: cfg.LLM8850.RequestTimeout,
			PollInterval:   cfg.LLM8850.PollInterval,
			MaxWait:        cfg.LLM8850.MaxWait,
			EnableThinking: cfg.LLM8850.EnableThinking,
			ResetOnRequest: cfg.LLM8850.ResetOnRequest,
		}, logger), nil

	case config.BackendLlamaCpp, "":
		if cfg.LlamaServerURL == "" {
			return nil, types.NewError(types.ErrNotConfigured, "llama-server url is not configured")
		}
		return openaicompat.New(openaicompat.Config{
			Label:              "llama.cpp server",
			BaseURL:            cfg.LlamaServerURL,
			EndpointPath:       "/v1/chat/completions",
			Model:              "local",
			Temperature:        cfg.Temperature,
			UnreachableMessage: fmt.Sprintf("Unable to reach llama-server at %s. Start llama-server first.", cfg.LlamaServerURL),
			Local:              true,
		}, logger), nil

	default:
		return nil, types.NewError(types.ErrNotConfigured, fmt.Sprintf("unsupported local llm backend %q", cfg.Backend))
	}
}
