// Package speech 提供统一的语音识别 (STT) 与语音合成 (TTS) 接口.
package speech

import (
	"context"
	"regexp"
	"strings"
)

// STTProvider 将录音文件转写为文本。
// 返回的文本已折叠空白；静音或识别为空时返回 ""。
type STTProvider interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)

	// Name 返回提供者名称
	Name() string
}

// TTSProvider 将文本合成为可直接播放的 WAV 文件，返回文件路径。
// 调用方负责删除该文件。
type TTSProvider interface {
	Synthesize(ctx context.Context, text string) (string, error)

	Name() string
}

var whitespace = regexp.MustCompile(`\s+`)

// cleanTranscript 折叠连续空白并去掉首尾空白
func cleanTranscript(text string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
