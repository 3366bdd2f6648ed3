package speech

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
	"github.com/jjfwang/aceceed-edge/types"
)

// PiperTTS 调用本地 piper CLI，文本经 stdin 传入
type PiperTTS struct {
	cfg    config.PiperConfig
	runner cmdexec.Runner
	logger *zap.Logger
}

func NewPiperTTS(cfg config.PiperConfig, runner cmdexec.Runner, logger *zap.Logger) *PiperTTS {
	if runner == nil {
		runner = cmdexec.OSRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PiperTTS{
		cfg:    cfg,
		runner: runner,
		logger: logger.With(zap.String("component", "tts"), zap.String("provider", "piper")),
	}
}

func (p *PiperTTS) Name() string { return "piper" }

// Synthesize 实现 TTSProvider
func (p *PiperTTS) Synthesize(ctx context.Context, text string) (string, error) {
	outputPath := artifact.TempPath("piper", ".wav")
	args := []string{"--model", p.cfg.VoicePath, "--output_file", outputPath}

	if _, err := p.runner.Run(ctx, p.cfg.BinPath, args, cmdexec.WithStdin(text)); err != nil {
		artifact.Cleanup(p.logger, outputPath)
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", types.NewError(types.ErrSynthesisFailed, fmt.Sprintf(
			"Piper failed. Check binPath '%s' and voicePath '%s'.", p.cfg.BinPath, p.cfg.VoicePath)).WithCause(err)
	}
	return outputPath, nil
}
