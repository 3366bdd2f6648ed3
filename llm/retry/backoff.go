package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/types"
)

// RetryPolicy 指数退避参数
type RetryPolicy struct {
	MaxRetries   int           // 失败后的额外尝试次数，0 表示只调用一次
	InitialDelay time.Duration // 第一次重试前的等待
	MaxDelay     time.Duration // 单次等待上限
	Multiplier   float64       // 每次重试的延迟倍数
	Jitter       bool          // 在 ±25% 范围内随机化延迟

	// ShouldRetry 为 nil 时使用 types.IsRetryable
	ShouldRetry func(err error) bool
	// OnRetry 每次等待前回调，attempt 从 1 开始
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy 云端 LLM 调用的默认策略：最多重试 2 次，等待 200ms、400ms
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// NoRetryPolicy 本地推理服务使用，只调用一次
func NoRetryPolicy() *RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxRetries = 0
	return p
}

// Retryer 按策略重复执行 fn，直到成功、遇到不可重试错误或次数耗尽。
// 返回最后一次的原始错误，调用方依赖其中的 *types.Error 错误码。
type Retryer interface {
	Do(ctx context.Context, fn func() error) error
}

type backoffRetryer struct {
	policy RetryPolicy
	logger *zap.Logger
}

// NewBackoffRetryer 复制并规范化 policy，之后修改入参不影响已创建的重试器
func NewBackoffRetryer(policy *RetryPolicy, logger *zap.Logger) Retryer {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := *policy
	p.MaxRetries = max(p.MaxRetries, 0)
	if p.InitialDelay <= 0 {
		p.InitialDelay = 200 * time.Millisecond
	}
	p.MaxDelay = max(p.MaxDelay, p.InitialDelay)
	if p.Multiplier < 1.0 {
		p.Multiplier = 2.0
	}
	return &backoffRetryer{policy: p, logger: logger}
}

func (r *backoffRetryer) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			if attempt > 0 {
				r.logger.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return nil
		}
		if !r.retryable(err) {
			return err
		}
		if attempt == r.policy.MaxRetries {
			break
		}

		delay := r.calculateDelay(attempt + 1)
		r.logger.Debug("retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", r.policy.MaxRetries),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if r.policy.OnRetry != nil {
			r.policy.OnRetry(attempt+1, err, delay)
		}
		if werr := wait(ctx, delay); werr != nil {
			return fmt.Errorf("retry cancelled: %w", werr)
		}
	}

	r.logger.Warn("retries exhausted",
		zap.Int("attempts", r.policy.MaxRetries+1),
		zap.Error(err),
	)
	return err
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// calculateDelay initial * multiplier^(attempt-1)，不超过 MaxDelay，抖动后不低于 InitialDelay
func (r *backoffRetryer) calculateDelay(attempt int) time.Duration {
	p := r.policy
	delay := math.Min(float64(p.InitialDelay)*math.Pow(p.Multiplier, float64(attempt-1)), float64(p.MaxDelay))
	if p.Jitter {
		delay += (rand.Float64()*2 - 1) * delay * 0.25
	}
	return time.Duration(math.Max(delay, float64(p.InitialDelay)))
}

func (r *backoffRetryer) retryable(err error) bool {
	if r.policy.ShouldRetry != nil {
		return r.policy.ShouldRetry(err)
	}
	return types.IsRetryable(err)
}
