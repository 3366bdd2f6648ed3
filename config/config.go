package config

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 aceceed-edge 的完整配置结构
type Config struct {
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	STT       STTConfig       `yaml:"stt" env:"STT"`
	TTS       TTSConfig       `yaml:"tts" env:"TTS"`
	Vision    VisionConfig    `yaml:"vision" env:"VISION"`
	Audio     AudioConfig     `yaml:"audio" env:"AUDIO"`
	Runtime   RuntimeConfig   `yaml:"runtime" env:"RUNTIME"`
	RAG       RAGConfig       `yaml:"rag" env:"RAG"`
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// LLM 模式
const (
	ModeLocal = "local"
	ModeCloud = "cloud"
)

// 本地 LLM 后端
const (
	BackendLlamaCpp = "llama.cpp"
	BackendLLM8850  = "llm8850"
)

// LLMConfig LLM 配置
type LLMConfig struct {
	// 模式: local, cloud
	Mode  string         `yaml:"mode" env:"MODE"`
	Local LLMLocalConfig `yaml:"local" env:"LOCAL"`
	Cloud LLMCloudConfig `yaml:"cloud" env:"CLOUD"`
}

// LLMLocalConfig 本地 LLM 配置
type LLMLocalConfig struct {
	// 后端: llama.cpp, llm8850
	Backend        string        `yaml:"backend" env:"BACKEND"`
	LlamaServerURL string        `yaml:"llama_server_url" env:"LLAMA_SERVER_URL"`
	Model          string        `yaml:"model" env:"MODEL"`
	ModelPath      string        `yaml:"model_path" env:"MODEL_PATH"`
	Ctx            int           `yaml:"ctx" env:"CTX"`
	Temperature    float64       `yaml:"temperature" env:"TEMPERATURE"`
	LLM8850        LLM8850Config `yaml:"llm8850" env:"LLM8850"`
}

// LLM8850Config LLM-8850 加速卡配置
type LLM8850Config struct {
	Host           string        `yaml:"host" env:"HOST"`
	Temperature    float64       `yaml:"temperature" env:"TEMPERATURE"`
	TopK           int           `yaml:"top_k" env:"TOP_K"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	PollInterval   time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
	MaxWait        time.Duration `yaml:"max_wait" env:"MAX_WAIT"`
	EnableThinking bool          `yaml:"enable_thinking" env:"ENABLE_THINKING"`
	ResetOnRequest bool          `yaml:"reset_on_request" env:"RESET_ON_REQUEST"`
}

// LLMCloudConfig 云端 LLM 配置
type LLMCloudConfig struct {
	// 提供商: openai
	Provider string `yaml:"provider" env:"PROVIDER"`
	// 存放 API Key 的环境变量名
	APIKeyEnv      string        `yaml:"api_key_env" env:"API_KEY_ENV"`
	Model          string        `yaml:"model" env:"MODEL"`
	BaseURL        string        `yaml:"base_url" env:"BASE_URL"`
	Temperature    float64       `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens      int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
}

// STTConfig 语音识别配置
type STTConfig struct {
	Mode       string           `yaml:"mode" env:"MODE"`
	Backend    string           `yaml:"backend" env:"BACKEND"`
	WhisperCpp WhisperCppConfig `yaml:"whispercpp" env:"WHISPERCPP"`
	Cloud      SpeechCloud      `yaml:"cloud" env:"CLOUD"`
}

// WhisperCppConfig whisper.cpp 配置
type WhisperCppConfig struct {
	BinPath   string `yaml:"bin_path" env:"BIN_PATH"`
	ModelPath string `yaml:"model_path" env:"MODEL_PATH"`
	Language  string `yaml:"language" env:"LANGUAGE"`
}

// SpeechCloud 云端语音服务配置（STT/TTS 共用）
type SpeechCloud struct {
	Provider  string `yaml:"provider" env:"PROVIDER"`
	APIKeyEnv string `yaml:"api_key_env" env:"API_KEY_ENV"`
	BaseURL   string `yaml:"base_url" env:"BASE_URL"`
	Model     string `yaml:"model" env:"MODEL"`
	VoiceID   string `yaml:"voice_id" env:"VOICE_ID"`
}

// TTSConfig 语音合成配置
type TTSConfig struct {
	Mode    string      `yaml:"mode" env:"MODE"`
	Backend string      `yaml:"backend" env:"BACKEND"`
	Piper   PiperConfig `yaml:"piper" env:"PIPER"`
	Cloud   SpeechCloud `yaml:"cloud" env:"CLOUD"`
}

// PiperConfig Piper 配置
type PiperConfig struct {
	BinPath          string `yaml:"bin_path" env:"BIN_PATH"`
	VoicePath        string `yaml:"voice_path" env:"VOICE_PATH"`
	OutputSampleRate int    `yaml:"output_sample_rate" env:"OUTPUT_SAMPLE_RATE"`
}

// VisionConfig 视觉配置
type VisionConfig struct {
	Enabled bool          `yaml:"enabled" env:"ENABLED"`
	Capture CaptureConfig `yaml:"capture" env:"CAPTURE"`
	OCR     OCRConfig     `yaml:"ocr" env:"OCR"`
}

// CaptureConfig 拍照后端配置
type CaptureConfig struct {
	// 后端: rpicam-still, libcamera-still, camera-service
	Backend          string   `yaml:"backend" env:"BACKEND"`
	StillArgs        []string `yaml:"still_args" env:"STILL_ARGS"`
	CameraServiceURL string   `yaml:"camera_service_url" env:"CAMERA_SERVICE_URL"`
}

// OCRConfig OCR 服务配置
type OCRConfig struct {
	Enabled    bool          `yaml:"enabled" env:"ENABLED"`
	ServiceURL string        `yaml:"service_url" env:"SERVICE_URL"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MockText   string        `yaml:"mock_text" env:"MOCK_TEXT"`
}

// AudioConfig 音频配置
type AudioConfig struct {
	Input  AudioInputConfig  `yaml:"input" env:"INPUT"`
	Output AudioOutputConfig `yaml:"output" env:"OUTPUT"`
}

// AudioInputConfig 录音配置
type AudioInputConfig struct {
	// 后端: stream (旧名 node-record-lpcm16), arecord
	Backend       string `yaml:"backend" env:"BACKEND"`
	Device        string `yaml:"device" env:"DEVICE"`
	SampleRate    int    `yaml:"sample_rate" env:"SAMPLE_RATE"`
	Channels      int    `yaml:"channels" env:"CHANNELS"`
	RecordSeconds int    `yaml:"record_seconds" env:"RECORD_SECONDS"`
	ArecordPath   string `yaml:"arecord_path" env:"ARECORD_PATH"`
}

// AudioOutputConfig 播放配置
type AudioOutputConfig struct {
	Backend   string `yaml:"backend" env:"BACKEND"`
	Device    string `yaml:"device" env:"DEVICE"`
	AplayPath string `yaml:"aplay_path" env:"APLAY_PATH"`
}

// RuntimeConfig 会话运行时配置
type RuntimeConfig struct {
	// PTT 触发方式: keyboard, api, whisplay, mhs-display
	PushToTalkMode  string              `yaml:"push_to_talk_mode" env:"PUSH_TO_TALK_MODE"`
	CameraIndicator bool                `yaml:"camera_indicator" env:"CAMERA_INDICATOR"`
	MicIndicator    bool                `yaml:"mic_indicator" env:"MIC_INDICATOR"`
	Agents          AgentsConfig        `yaml:"agents" env:"AGENTS"`
	Vision          RuntimeVisionConfig `yaml:"vision" env:"VISION"`
	CoachKeywords   []string            `yaml:"coach_keywords" env:"COACH_KEYWORDS"`
	DetectorTimeout time.Duration       `yaml:"detector_timeout" env:"DETECTOR_TIMEOUT"`
	Safety          SafetyConfig        `yaml:"safety" env:"SAFETY"`
}

// AgentsConfig Agent 启用配置
type AgentsConfig struct {
	Enabled []string `yaml:"enabled" env:"ENABLED"`
	Default string   `yaml:"default" env:"DEFAULT"`
}

// RuntimeVisionConfig 会话内视觉触发策略
type RuntimeVisionConfig struct {
	AlwaysCapture      bool     `yaml:"always_capture" env:"ALWAYS_CAPTURE"`
	TriggerKeywords    []string `yaml:"trigger_keywords" env:"TRIGGER_KEYWORDS"`
	RequirePaperForOCR bool     `yaml:"require_paper_for_ocr" env:"REQUIRE_PAPER_FOR_OCR"`
}

// SafetyConfig 安全过滤配置
type SafetyConfig struct {
	// 严格模式下截断为前 N 句并限制长度
	Strict       bool `yaml:"strict" env:"STRICT"`
	MaxSentences int  `yaml:"max_sentences" env:"MAX_SENTENCES"`
	MaxChars     int  `yaml:"max_chars" env:"MAX_CHARS"`
	// 为空时使用内置禁用词表
	BannedPhrases []string `yaml:"banned_phrases" env:"BANNED_PHRASES"`
}

// RAGConfig 检索配置
type RAGConfig struct {
	Enabled        bool     `yaml:"enabled" env:"ENABLED"`
	IndexPath      string   `yaml:"index_path" env:"INDEX_PATH"`
	GradeBand      string   `yaml:"grade_band" env:"GRADE_BAND"`
	Subjects       []string `yaml:"subjects" env:"SUBJECTS"`
	MaxChunks      int      `yaml:"max_chunks" env:"MAX_CHUNKS"`
	IncludeSources bool     `yaml:"include_sources" env:"INCLUDE_SOURCES"`
	SourceTypes    []string `yaml:"source_types" env:"SOURCE_TYPES"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host               string        `yaml:"host" env:"HOST"`
	HTTPPort           int           `yaml:"http_port" env:"HTTP_PORT"`
	MetricsPort        int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ReadTimeout        time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout       time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	APIKeys            []string      `yaml:"api_keys" env:"API_KEYS"`
	RateLimitRPS       int           `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst     int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// GradeBands 支持的学段
var GradeBands = []string{"primary", "secondary", "jc"}

// Validate 验证配置，收集全部问题后一次返回
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains([]string{ModeLocal, ModeCloud}, c.LLM.Mode) {
		errs = append(errs, fmt.Sprintf("llm.mode must be local or cloud, got %q", c.LLM.Mode))
	}
	if c.LLM.Mode == ModeLocal && !slices.Contains([]string{BackendLlamaCpp, BackendLLM8850}, c.LLM.Local.Backend) {
		errs = append(errs, fmt.Sprintf("llm.local.backend must be llama.cpp or llm8850, got %q", c.LLM.Local.Backend))
	}
	if c.LLM.Local.Temperature < 0 || c.LLM.Local.Temperature > 1 {
		errs = append(errs, "llm.local.temperature must be between 0 and 1")
	}
	if c.LLM.Cloud.Temperature < 0 || c.LLM.Cloud.Temperature > 1 {
		errs = append(errs, "llm.cloud.temperature must be between 0 and 1")
	}
	if !slices.Contains([]string{ModeLocal, ModeCloud}, c.STT.Mode) {
		errs = append(errs, fmt.Sprintf("stt.mode must be local or cloud, got %q", c.STT.Mode))
	}
	if !slices.Contains([]string{ModeLocal, ModeCloud}, c.TTS.Mode) {
		errs = append(errs, fmt.Sprintf("tts.mode must be local or cloud, got %q", c.TTS.Mode))
	}
	if !slices.Contains([]string{"rpicam-still", "libcamera-still", "camera-service"}, c.Vision.Capture.Backend) {
		errs = append(errs, fmt.Sprintf("vision.capture.backend is not supported: %q", c.Vision.Capture.Backend))
	}
	if !slices.Contains([]string{"stream", "node-record-lpcm16", "arecord"}, c.Audio.Input.Backend) {
		errs = append(errs, fmt.Sprintf("audio.input.backend is not supported: %q", c.Audio.Input.Backend))
	}
	if c.Audio.Input.RecordSeconds <= 0 {
		errs = append(errs, "audio.input.record_seconds must be positive")
	}
	if c.Audio.Input.SampleRate <= 0 || c.Audio.Input.Channels <= 0 {
		errs = append(errs, "audio.input.sample_rate and channels must be positive")
	}
	if !slices.Contains([]string{"keyboard", "api", "whisplay", "mhs-display"}, c.Runtime.PushToTalkMode) {
		errs = append(errs, fmt.Sprintf("runtime.push_to_talk_mode is not supported: %q", c.Runtime.PushToTalkMode))
	}
	if c.Runtime.DetectorTimeout <= 0 {
		errs = append(errs, "runtime.detector_timeout must be positive")
	}
	if d := c.Runtime.Agents.Default; d != "" && len(c.Runtime.Agents.Enabled) > 0 &&
		!slices.Contains(c.Runtime.Agents.Enabled, d) {
		errs = append(errs, fmt.Sprintf("runtime.agents.default %q is not in runtime.agents.enabled", d))
	}
	if c.RAG.Enabled && !slices.Contains(GradeBands, c.RAG.GradeBand) {
		errs = append(errs, fmt.Sprintf("rag.grade_band must be one of %s", strings.Join(GradeBands, ", ")))
	}
	if c.RAG.MaxChunks <= 0 {
		errs = append(errs, "rag.max_chunks must be positive")
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, "invalid metrics port")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}
