// Package circuitbreaker 在 LLM 后端连续不可用时短路请求，避免每次会话都走完整的重试与超时。
package circuitbreaker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/types"
)

// State 熔断器状态
type State int

const (
	// StateClosed 正常放行
	StateClosed State = iota
	// StateOpen 熔断中，直接拒绝
	StateOpen
	// StateHalfOpen 试探性恢复
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Config 熔断器配置
type Config struct {
	// Threshold 连续失败次数阈值
	Threshold int
	// ResetTimeout 从 Open 进入 HalfOpen 的等待时间
	ResetTimeout time.Duration
	// HalfOpenMaxCalls 半开状态下同时放行的试探请求数
	HalfOpenMaxCalls int
	// OnStateChange 状态变更回调，在锁外同步调用
	OnStateChange func(from, to State)
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Threshold:        3,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 1,
	}
}

// ErrOpen 熔断期间返回的错误，面向用户的文本直接可播报
var ErrOpen = types.NewError(types.ErrUpstreamError, "The language model is temporarily unavailable. Please try again shortly.").
	WithHTTPStatus(http.StatusServiceUnavailable)

// Breaker 连续失败计数熔断器。
// 只有可重试错误（网络、5xx、超时）计入失败，请求本身的问题不触发熔断。
type Breaker struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu           sync.Mutex
	state        State
	failures     int
	openedAt     time.Time
	halfOpenUsed int
}

// New 创建熔断器，非法配置项回落到默认值
func New(cfg Config, logger *zap.Logger) *Breaker {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = def.ResetTimeout
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "circuit_breaker")),
		now:    time.Now,
	}
}

// Do 熔断打开时立即返回 ErrOpen，否则执行 fn 并记录结果
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := fn(ctx)
	b.after(err)
	return err
}

// Call 带返回值的 Do
func Call[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	var changed func()
	defer func() {
		b.mu.Unlock()
		if changed != nil {
			changed()
		}
	}()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return ErrOpen
		}
		changed = b.setState(StateHalfOpen)
		b.halfOpenUsed = 1
		b.logger.Info("circuit half-open, probing backend")
		return nil
	case StateHalfOpen:
		if b.halfOpenUsed >= b.cfg.HalfOpenMaxCalls {
			return ErrOpen
		}
		b.halfOpenUsed++
		return nil
	default:
		return nil
	}
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	var changed func()
	defer func() {
		b.mu.Unlock()
		if changed != nil {
			changed()
		}
	}()

	if err == nil || !countsAsFailure(err) {
		if b.state == StateHalfOpen {
			b.logger.Info("circuit closed, backend recovered")
			changed = b.setState(StateClosed)
		}
		b.failures = 0
		return
	}

	b.failures++
	switch b.state {
	case StateClosed:
		if b.failures >= b.cfg.Threshold {
			b.logger.Warn("circuit opened",
				zap.Int("failures", b.failures),
				zap.Error(err),
			)
			b.openedAt = b.now()
			changed = b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.logger.Warn("trial call failed, circuit reopened", zap.Error(err))
		b.openedAt = b.now()
		changed = b.setState(StateOpen)
	}
}

// countsAsFailure 调用方取消不算后端故障
func countsAsFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return types.IsRetryable(err)
}

// setState 须持锁调用，返回需在锁外执行的回调
func (b *Breaker) setState(to State) func() {
	from := b.state
	b.state = to
	if to != StateHalfOpen {
		b.halfOpenUsed = 0
	}
	if cb := b.cfg.OnStateChange; cb != nil && from != to {
		return func() { cb(from, to) }
	}
	return nil
}

// State 当前状态
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset 手动恢复到关闭状态
func (b *Breaker) Reset() {
	b.mu.Lock()
	changed := b.setState(StateClosed)
	b.failures = 0
	b.mu.Unlock()
	if changed != nil {
		changed()
	}
}
