package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/metrics"
	"github.com/jjfwang/aceceed-edge/llm/circuitbreaker"
)

// Middleware wraps a client with additional functionality.
type Middleware func(next Client) Client

// Chain applies middlewares so that the first one is outermost.
func Chain(c Client, middlewares ...Middleware) Client {
	for i := len(middlewares) - 1; i >= 0; i-- {
		c = middlewares[i](c)
	}
	return c
}

// LoggingMiddleware logs request size, outcome and latency at debug level.
func LoggingMiddleware(backend string, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, messages []Message) (string, error) {
			start := time.Now()
			text, err := next.Generate(ctx, messages)
			fields := []zap.Field{
				zap.String("backend", backend),
				zap.Int("messages", len(messages)),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Debug("llm request failed", append(fields, zap.Error(err))...)
				return text, err
			}
			logger.Debug("llm request completed", append(fields, zap.Int("chars", len(text)))...)
			return text, nil
		})
	}
}

// MetricsMiddleware records request counts and latency per backend.
func MetricsMiddleware(backend string, collector *metrics.Collector) Middleware {
	return func(next Client) Client {
		return ClientFunc(func(ctx context.Context, messages []Message) (string, error) {
			start := time.Now()
			text, err := next.Generate(ctx, messages)
			status := "success"
			if err != nil {
				status = "error"
			}
			collector.RecordLLMRequest(backend, status, time.Since(start))
			return text, err
		})
	}
}

// TimeoutMiddleware bounds each request.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Client) Client {
		if timeout <= 0 {
			return next
		}
		return ClientFunc(func(ctx context.Context, messages []Message) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next.Generate(ctx, messages)
		})
	}
}

// BreakerMiddleware 后端连续失败后短路请求，熔断期间返回 circuitbreaker.ErrOpen。
func BreakerMiddleware(b *circuitbreaker.Breaker) Middleware {
	return func(next Client) Client {
		if b == nil {
			return next
		}
		return ClientFunc(func(ctx context.Context, messages []Message) (string, error) {
			return circuitbreaker.Call(ctx, b, func(ctx context.Context) (string, error) {
				return next.Generate(ctx, messages)
			})
		})
	}
}
