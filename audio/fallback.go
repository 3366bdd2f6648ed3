package audio

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// FallbackRecorder 依次尝试多个录音器，返回第一个成功的结果。
// 停止信号到达后不再尝试后续录音器。
type FallbackRecorder struct {
	providers []Recorder
	logger    *zap.Logger
}

func NewFallbackRecorder(logger *zap.Logger, providers ...Recorder) *FallbackRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackRecorder{providers: providers, logger: logger}
}

// Record 实现 Recorder
func (f *FallbackRecorder) Record(ctx context.Context, opts RecordOptions) (string, error) {
	if len(f.providers) == 0 {
		return "", errors.New("no recorders configured")
	}

	var lastErr error
	for i, p := range f.providers {
		path, err := p.Record(ctx, opts)
		if err == nil {
			return path, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", err
		}
		if i < len(f.providers)-1 {
			f.logger.Warn("recorder failed, falling back",
				zap.String("recorder", fmt.Sprintf("%T", p)),
				zap.Int("attempt", i+1),
				zap.Error(err))
		}
	}
	return "", lastErr
}
