package vision

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jjfwang/aceceed-edge/internal/metrics"
)

// DefaultDetectorTimeout 单个检测器的默认超时
const DefaultDetectorTimeout = 1500 * time.Millisecond

// Orchestrator 并发运行所有检测器，每个检测器独立超时。
// 任何检测器失败、超时或 panic 都只会让它自己的结果变为中性值。
type Orchestrator struct {
	detectors []Detector
	timeout   time.Duration
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewOrchestrator timeout <= 0 时使用 DefaultDetectorTimeout
func NewOrchestrator(detectors []Detector, timeout time.Duration, collector *metrics.Collector, logger *zap.Logger) *Orchestrator {
	if timeout <= 0 {
		timeout = DefaultDetectorTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		detectors: detectors,
		timeout:   timeout,
		metrics:   collector,
		logger:    logger.With(zap.String("component", "detectors")),
	}
}

// Detectors 已注册的检测器
func (o *Orchestrator) Detectors() []Detector { return o.detectors }

// Run 返回与注册顺序一致的结果列表，总是每个检测器一条
func (o *Orchestrator) Run(ctx context.Context, image []byte) []Result {
	results := make([]Result, len(o.detectors))

	var g errgroup.Group
	for i, d := range o.detectors {
		g.Go(func() error {
			det, outcome := o.runOne(ctx, d, image)
			results[i] = Result{ID: d.ID(), Detection: det}
			o.metrics.RecordDetector(d.ID(), outcome)
			return nil // 单个检测器失败不影响其他检测器
		})
	}
	_ = g.Wait()

	return results
}

type detectOutcome struct {
	det Detection
	err error
}

func (o *Orchestrator) runOne(ctx context.Context, d Detector, image []byte) (Detection, string) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// 检测器未必尊重 ctx，放到独立协程中与超时赛跑
	done := make(chan detectOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- detectOutcome{err: fmt.Errorf("detector panic: %v", r)}
			}
		}()
		det, err := d.Detect(ctx, image)
		done <- detectOutcome{det: det, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			o.logger.Warn("detector failed", zap.String("detector", d.ID()), zap.Error(out.err))
			return neutral, "error"
		}
		return out.det, "ok"
	case <-ctx.Done():
		o.logger.Warn("detector timed out",
			zap.String("detector", d.ID()),
			zap.Duration("timeout", o.timeout))
		return neutral, "timeout"
	}
}
