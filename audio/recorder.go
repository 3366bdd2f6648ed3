package audio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
	"github.com/jjfwang/aceceed-edge/types"
)

// Recorder 录制一段语音并返回 WAV 文件路径。
// ctx 取消即停止录音：已采集到非空音频时返回部分录音，否则返回 CAPTURE_FAILED。
type Recorder interface {
	Record(ctx context.Context, opts RecordOptions) (string, error)
}

// RecordOptions 单次录音参数
type RecordOptions struct {
	Duration time.Duration
}

// RecorderFunc 函数适配器
type RecorderFunc func(ctx context.Context, opts RecordOptions) (string, error)

// Record 实现 Recorder
func (f RecorderFunc) Record(ctx context.Context, opts RecordOptions) (string, error) {
	return f(ctx, opts)
}

// 输入后端名称
const (
	BackendStream  = "stream"
	BackendLegacy  = "node-record-lpcm16"
	BackendArecord = "arecord"
	BackendAplay   = "aplay"
)

// NewRecorder 按 audio.input 配置组装录音器：
// stream 后端失败时回退到 arecord，arecord 后端只使用 arecord。
func NewRecorder(cfg config.AudioInputConfig, runner cmdexec.Runner, logger *zap.Logger) (Recorder, error) {
	if runner == nil {
		runner = cmdexec.OSRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case BackendStream, BackendLegacy:
		return NewFallbackRecorder(logger,
			NewStreamRecorder(cfg, runner, logger),
			NewArecordRecorder(cfg, runner, logger),
		), nil
	case BackendArecord, "":
		return NewArecordRecorder(cfg, runner, logger), nil
	default:
		return nil, types.NewError(types.ErrNotConfigured, fmt.Sprintf("unsupported audio input backend %q", cfg.Backend))
	}
}

// resolveInputDevice 设备为空或 auto 时自动探测
func resolveInputDevice(ctx context.Context, device string, runner cmdexec.Runner, logger *zap.Logger) string {
	if device != "" && !strings.EqualFold(device, "auto") {
		return device
	}
	found := DiscoverInputDevice(ctx, runner, logger)
	logger.Info("resolved input device", zap.String("device", found))
	return found
}

func captureFailed(device string, cause error) error {
	return types.NewError(types.ErrCaptureFailed,
		fmt.Sprintf("Audio capture failed. Check input device '%s'.", device)).WithCause(cause)
}

func recordingAborted() error {
	return types.NewError(types.ErrCaptureFailed, "Recording aborted")
}
