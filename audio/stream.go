package audio

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
)

// streamGrace 给 arecord -d 自然结束留出的余量
const streamGrace = 2 * time.Second

// StreamRecorder 从 arecord 的 stdout 读取原始 PCM，结束后自行封装 WAV 头。
// 停止时已读到的 PCM 全部保留。
type StreamRecorder struct {
	cfg    config.AudioInputConfig
	runner cmdexec.Runner
	logger *zap.Logger
}

func NewStreamRecorder(cfg config.AudioInputConfig, runner cmdexec.Runner, logger *zap.Logger) *StreamRecorder {
	if cfg.ArecordPath == "" {
		cfg.ArecordPath = "arecord"
	}
	return &StreamRecorder{cfg: cfg, runner: runner, logger: logger.With(zap.String("recorder", "stream"))}
}

// Record 实现 Recorder
func (r *StreamRecorder) Record(ctx context.Context, opts RecordOptions) (string, error) {
	device := resolveInputDevice(ctx, r.cfg.Device, r.runner, r.logger)
	secs := durationSeconds(opts.Duration, r.cfg.RecordSeconds)

	args := []string{
		"-D", device,
		"-f", "S16_LE",
		"-r", strconv.Itoa(r.cfg.SampleRate),
		"-c", strconv.Itoa(r.cfg.Channels),
		"-d", strconv.Itoa(secs),
		"-t", "raw",
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Duration(secs)*time.Second+streamGrace)
	defer cancel()

	pcm := &syncBuffer{}
	_, err := r.runner.Run(runCtx, r.cfg.ArecordPath, args, cmdexec.WithStdout(pcm))
	data := pcm.Bytes()

	switch {
	case err == nil, errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
	case ctx.Err() != nil:
		if len(data) == 0 {
			return "", recordingAborted()
		}
		r.logger.Debug("accepting partial recording", zap.Int("bytes", len(data)))
	default:
		return "", captureFailed(device, err)
	}

	if len(data) == 0 {
		return "", captureFailed(device, errors.New("no audio captured"))
	}

	outPath := artifact.TempPath("aceceed-ptt", ".wav")
	format := PCMFormat{SampleRate: r.cfg.SampleRate, Channels: r.cfg.Channels, BitsPerSample: 16}
	if err := WriteWAV(outPath, data, format); err != nil {
		return "", captureFailed(device, err)
	}
	return outPath, nil
}

// syncBuffer 允许子进程输出协程写入的同时安全读取
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
