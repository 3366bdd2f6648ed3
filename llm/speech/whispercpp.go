package speech

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
	"github.com/jjfwang/aceceed-edge/types"
)

// WhisperCppSTT 调用本地 whisper.cpp CLI 转写，结果写入 <prefix>.txt 后读取。
type WhisperCppSTT struct {
	cfg    config.WhisperCppConfig
	runner cmdexec.Runner
	logger *zap.Logger
}

// NewWhisperCppSTT runner 为 nil 时使用 cmdexec.OSRunner
func NewWhisperCppSTT(cfg config.WhisperCppConfig, runner cmdexec.Runner, logger *zap.Logger) *WhisperCppSTT {
	if runner == nil {
		runner = cmdexec.OSRunner{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhisperCppSTT{
		cfg:    cfg,
		runner: runner,
		logger: logger.With(zap.String("component", "stt"), zap.String("provider", "whispercpp")),
	}
}

func (w *WhisperCppSTT) Name() string { return "whispercpp" }

// Transcribe 实现 STTProvider
func (w *WhisperCppSTT) Transcribe(ctx context.Context, audioPath string) (string, error) {
	outPrefix := artifact.TempPath("whisper", "")
	outputTxt := outPrefix + ".txt"
	defer artifact.Cleanup(w.logger, outputTxt)

	args := []string{"-m", w.cfg.ModelPath, "-f", audioPath, "-otxt", "-of", outPrefix}
	if w.cfg.Language != "" {
		args = append(args, "-l", w.cfg.Language)
	}

	if _, err := w.runner.Run(ctx, w.cfg.BinPath, args); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", types.NewError(types.ErrTranscriptionFailed, fmt.Sprintf(
			"whisper.cpp failed. Check binPath '%s' and modelPath '%s'.", w.cfg.BinPath, w.cfg.ModelPath)).WithCause(err)
	}

	data, err := os.ReadFile(outputTxt)
	if err != nil {
		return "", types.NewError(types.ErrTranscriptionFailed, "whisper.cpp produced no transcript file").WithCause(err)
	}

	text := cleanTranscript(string(data))
	if text == "" {
		w.logger.Warn("empty transcript from whisper.cpp")
	}
	return text, nil
}
