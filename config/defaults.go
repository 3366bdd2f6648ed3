// =============================================================================
// 📦 aceceed-edge 默认配置
// =============================================================================
// 提供所有配置项的合理默认值，与树莓派 + USB 麦克风的参考部署一致
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		LLM:       DefaultLLMConfig(),
		STT:       DefaultSTTConfig(),
		TTS:       DefaultTTSConfig(),
		Vision:    DefaultVisionConfig(),
		Audio:     DefaultAudioConfig(),
		Runtime:   DefaultRuntimeConfig(),
		RAG:       DefaultRAGConfig(),
		Server:    DefaultServerConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultLLMConfig 返回默认 LLM 配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Mode: ModeLocal,
		Local: LLMLocalConfig{
			Backend:        BackendLlamaCpp,
			LlamaServerURL: "http://127.0.0.1:8080",
			Ctx:            2048,
			Temperature:    0.2,
			LLM8850: LLM8850Config{
				Temperature:    0.2,
				TopK:           40,
				RequestTimeout: 10 * time.Second,
				PollInterval:   200 * time.Millisecond,
				MaxWait:        60 * time.Second,
				EnableThinking: true,
				ResetOnRequest: true,
			},
		},
		Cloud: LLMCloudConfig{
			Provider:       "openai",
			APIKeyEnv:      "OPENAI_API_KEY",
			Model:          "gpt-4o-mini",
			BaseURL:        "https://api.openai.com/v1",
			Temperature:    0.2,
			MaxTokens:      256,
			RequestTimeout: 10 * time.Second,
		},
	}
}

// DefaultSTTConfig 返回默认语音识别配置
func DefaultSTTConfig() STTConfig {
	return STTConfig{
		Mode:    ModeLocal,
		Backend: "whispercpp",
		WhisperCpp: WhisperCppConfig{
			BinPath:   "/usr/local/bin/whisper-cli",
			ModelPath: "models/ggml-base.en.bin",
		},
	}
}

// DefaultTTSConfig 返回默认语音合成配置
func DefaultTTSConfig() TTSConfig {
	return TTSConfig{
		Mode:    ModeLocal,
		Backend: "piper",
		Piper: PiperConfig{
			BinPath:          "/usr/local/bin/piper",
			VoicePath:        "models/en_US-lessac-medium.onnx",
			OutputSampleRate: 22050,
		},
	}
}

// DefaultVisionConfig 返回默认视觉配置
func DefaultVisionConfig() VisionConfig {
	return VisionConfig{
		Enabled: false,
		Capture: CaptureConfig{
			Backend:   "rpicam-still",
			StillArgs: []string{},
		},
		OCR: OCRConfig{
			Enabled: false,
			Timeout: 3 * time.Second,
		},
	}
}

// DefaultAudioConfig 返回默认音频配置
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		Input: AudioInputConfig{
			Backend:       "arecord",
			Device:        "default",
			SampleRate:    16000,
			Channels:      1,
			RecordSeconds: 4,
			ArecordPath:   "arecord",
		},
		Output: AudioOutputConfig{
			Backend:   "aplay",
			Device:    "default",
			AplayPath: "aplay",
		},
	}
}

// DefaultCoachKeywords 默认的学习教练意图关键词
func DefaultCoachKeywords() []string {
	return []string{
		"coach", "study plan", "plan", "schedule", "routine", "focus",
		"motivate", "motivation", "goal", "habit", "discipline",
		"time management", "procrastinate",
	}
}

// DefaultRuntimeConfig 返回默认会话运行时配置
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		PushToTalkMode:  "api",
		CameraIndicator: true,
		MicIndicator:    true,
		Agents: AgentsConfig{
			Enabled: []string{"tutor", "coach"},
		},
		Vision: RuntimeVisionConfig{
			TriggerKeywords: []string{},
		},
		CoachKeywords:   DefaultCoachKeywords(),
		DetectorTimeout: 1500 * time.Millisecond,
		Safety: SafetyConfig{
			MaxSentences: 2,
			MaxChars:     400,
		},
	}
}

// DefaultRAGConfig 返回默认检索配置
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		Enabled:        false,
		IndexPath:      "data/rag/index.json",
		GradeBand:      "primary",
		Subjects:       []string{},
		MaxChunks:      3,
		IncludeSources: true,
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "127.0.0.1",
		HTTPPort:        8000,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: true,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "aceceed-edge",
		SampleRate:   0.1,
	}
}
