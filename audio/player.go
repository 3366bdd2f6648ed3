package audio

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
	"github.com/jjfwang/aceceed-edge/types"
)

// Player 播放 WAV 文件，返回时播放已结束
type Player interface {
	Play(ctx context.Context, path string) error
}

// PlayerFunc 函数适配器
type PlayerFunc func(ctx context.Context, path string) error

// Play 实现 Player
func (f PlayerFunc) Play(ctx context.Context, path string) error { return f(ctx, path) }

// AplayPlayer 通过 aplay 播放；后端不是 aplay 时只记录警告并跳过
type AplayPlayer struct {
	cfg    config.AudioOutputConfig
	runner cmdexec.Runner
	logger *zap.Logger
}

func NewAplayPlayer(cfg config.AudioOutputConfig, runner cmdexec.Runner, logger *zap.Logger) *AplayPlayer {
	if cfg.AplayPath == "" {
		cfg.AplayPath = "aplay"
	}
	if runner == nil {
		runner = cmdexec.OSRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AplayPlayer{cfg: cfg, runner: runner, logger: logger.With(zap.String("component", "audio_output"))}
}

// Play 实现 Player
func (p *AplayPlayer) Play(ctx context.Context, path string) error {
	if p.cfg.Backend != BackendAplay {
		p.logger.Warn("unsupported audio output backend, skipping playback", zap.String("backend", p.cfg.Backend))
		return nil
	}

	device := p.cfg.Device
	if device == "" || strings.EqualFold(device, "auto") {
		device = DiscoverOutputDevice(ctx, p.runner, p.logger)
	}

	if _, err := p.runner.Run(ctx, p.cfg.AplayPath, []string{"-D", device, path}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return types.NewError(types.ErrPlaybackFailed,
			fmt.Sprintf("Audio playback failed. Check output device '%s'.", device)).WithCause(err)
	}
	return nil
}
