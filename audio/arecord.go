package audio

import (
	"context"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
)

// ArecordRecorder 让 arecord 直接写 WAV 文件
type ArecordRecorder struct {
	cfg    config.AudioInputConfig
	runner cmdexec.Runner
	logger *zap.Logger
}

func NewArecordRecorder(cfg config.AudioInputConfig, runner cmdexec.Runner, logger *zap.Logger) *ArecordRecorder {
	if cfg.ArecordPath == "" {
		cfg.ArecordPath = "arecord"
	}
	return &ArecordRecorder{cfg: cfg, runner: runner, logger: logger.With(zap.String("recorder", "arecord"))}
}

// Record 实现 Recorder
func (r *ArecordRecorder) Record(ctx context.Context, opts RecordOptions) (string, error) {
	device := resolveInputDevice(ctx, r.cfg.Device, r.runner, r.logger)
	outPath := artifact.TempPath("aceceed-ptt", ".wav")

	args := []string{
		"-D", device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(r.cfg.SampleRate),
		"-c", strconv.Itoa(r.cfg.Channels),
		"-d", strconv.Itoa(durationSeconds(opts.Duration, r.cfg.RecordSeconds)),
		"-t", "wav",
		outPath,
	}

	_, err := r.runner.Run(ctx, r.cfg.ArecordPath, args)
	if err == nil {
		return outPath, nil
	}

	// 被停止时接受已写出的部分录音
	if ctx.Err() != nil {
		if info, statErr := os.Stat(outPath); statErr == nil && info.Size() > WAVHeaderSize {
			r.logger.Debug("accepting partial recording", zap.Int64("bytes", info.Size()))
			return outPath, nil
		}
		artifact.Cleanup(r.logger, outPath)
		return "", recordingAborted()
	}
	artifact.Cleanup(r.logger, outPath)
	return "", captureFailed(device, err)
}

func durationSeconds(d time.Duration, fallback int) int {
	secs := int(d.Round(time.Second) / time.Second)
	if secs <= 0 {
		secs = fallback
	}
	if secs <= 0 {
		secs = 1
	}
	return secs
}
