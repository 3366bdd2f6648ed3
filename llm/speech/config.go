package speech

import (
	"cmp"
	"time"
)

// CloudConfig 云端语音供应商的连接参数，各供应商只读取自己用到的字段
type CloudConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Voice      string // OpenAI 音色名或 ElevenLabs voice id
	Language   string // Deepgram 识别语言，空表示自动检测
	SampleRate int    // ElevenLabs 返回的 PCM 采样率
	Timeout    time.Duration
}

// 各供应商的默认值，零值字段由 withDefaults 填充
var (
	openAISTTDefaults  = CloudConfig{BaseURL: "https://api.openai.com", Model: "whisper-1", Timeout: 120 * time.Second}
	openAITTSDefaults  = CloudConfig{BaseURL: "https://api.openai.com", Model: "tts-1", Voice: "alloy", Timeout: 60 * time.Second}
	deepgramDefaults   = CloudConfig{BaseURL: "https://api.deepgram.com", Model: "nova-2", Timeout: 120 * time.Second}
	elevenLabsDefaults = CloudConfig{
		BaseURL:    "https://api.elevenlabs.io",
		Model:      "eleven_multilingual_v2",
		Voice:      "21m00Tcm4TlvDq8ikWAM",
		SampleRate: 22050,
		Timeout:    60 * time.Second,
	}
)

func (c CloudConfig) withDefaults(d CloudConfig) CloudConfig {
	c.BaseURL = cmp.Or(c.BaseURL, d.BaseURL)
	c.Model = cmp.Or(c.Model, d.Model)
	c.Voice = cmp.Or(c.Voice, d.Voice)
	c.Language = cmp.Or(c.Language, d.Language)
	c.SampleRate = cmp.Or(c.SampleRate, d.SampleRate)
	c.Timeout = cmp.Or(c.Timeout, d.Timeout)
	return c
}
