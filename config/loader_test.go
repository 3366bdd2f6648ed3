// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ModeLocal, cfg.LLM.Mode)
	assert.Equal(t, BackendLlamaCpp, cfg.LLM.Local.Backend)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.LLM.Local.LlamaServerURL)
	assert.Equal(t, 256, cfg.LLM.Cloud.MaxTokens)
	assert.Equal(t, 10*time.Second, cfg.LLM.Cloud.RequestTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.LLM.Local.LLM8850.PollInterval)
	assert.True(t, cfg.LLM.Local.LLM8850.EnableThinking)

	assert.Equal(t, 16000, cfg.Audio.Input.SampleRate)
	assert.Equal(t, 4, cfg.Audio.Input.RecordSeconds)
	assert.Equal(t, "default", cfg.Audio.Output.Device)

	assert.Equal(t, 1500*time.Millisecond, cfg.Runtime.DetectorTimeout)
	assert.Contains(t, cfg.Runtime.CoachKeywords, "study plan")
	assert.False(t, cfg.Runtime.Safety.Strict)
	assert.Equal(t, 2, cfg.Runtime.Safety.MaxSentences)
	assert.Equal(t, 400, cfg.Runtime.Safety.MaxChars)

	assert.Equal(t, 3*time.Second, cfg.Vision.OCR.Timeout)
	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	require.NoError(t, cfg.Validate())
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"tutor", "coach"}, cfg.Runtime.Agents.Enabled)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
llm:
  mode: cloud
  cloud:
    provider: openai
    api_key_env: MY_KEY
    model: gpt-4o
    request_timeout: 5s
stt:
  whispercpp:
    bin_path: /opt/whisper
    language: zh
runtime:
  push_to_talk_mode: keyboard
  agents:
    enabled: [tutor]
    default: tutor
  vision:
    always_capture: true
    trigger_keywords: [look, worksheet]
  detector_timeout: 750ms
rag:
  enabled: true
  grade_band: secondary
  subjects: [math, science]
  source_types: [textbook]
server:
  http_port: 9000
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, ModeCloud, cfg.LLM.Mode)
	assert.Equal(t, "MY_KEY", cfg.LLM.Cloud.APIKeyEnv)
	assert.Equal(t, 5*time.Second, cfg.LLM.Cloud.RequestTimeout)
	// 未在文件中出现的字段保持默认值
	assert.Equal(t, 256, cfg.LLM.Cloud.MaxTokens)
	assert.Equal(t, "/opt/whisper", cfg.STT.WhisperCpp.BinPath)
	assert.Equal(t, "zh", cfg.STT.WhisperCpp.Language)
	assert.Equal(t, "keyboard", cfg.Runtime.PushToTalkMode)
	assert.Equal(t, "tutor", cfg.Runtime.Agents.Default)
	assert.True(t, cfg.Runtime.Vision.AlwaysCapture)
	assert.Equal(t, []string{"look", "worksheet"}, cfg.Runtime.Vision.TriggerKeywords)
	assert.Equal(t, 750*time.Millisecond, cfg.Runtime.DetectorTimeout)
	assert.Equal(t, "secondary", cfg.RAG.GradeBand)
	assert.Equal(t, []string{"math", "science"}, cfg.RAG.Subjects)
	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	require.NoError(t, cfg.Validate())
}

func TestLoader_ShippedDefaultYAML(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join("..", "configs", "default.yaml")).Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	defaults := DefaultConfig()
	assert.Equal(t, defaults.Server.HTTPPort, cfg.Server.HTTPPort)
	assert.Equal(t, defaults.Runtime.DetectorTimeout, cfg.Runtime.DetectorTimeout)
	assert.Equal(t, defaults.Runtime.CoachKeywords, cfg.Runtime.CoachKeywords)
	assert.Equal(t, defaults.Runtime.Safety.MaxChars, cfg.Runtime.Safety.MaxChars)
	assert.Equal(t, defaults.RAG.IndexPath, cfg.RAG.IndexPath)
	assert.Equal(t, "tutor", cfg.Runtime.Agents.Default)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.HTTPPort, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm: [unclosed"), 0o644))

	_, err := NewLoader().WithConfigPath(configPath).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("ACECEED_LLM_MODE", "cloud")
	t.Setenv("ACECEED_LLM_CLOUD_MAX_TOKENS", "128")
	t.Setenv("ACECEED_RUNTIME_DETECTOR_TIMEOUT", "2s")
	t.Setenv("ACECEED_RUNTIME_SAFETY_STRICT", "true")
	t.Setenv("ACECEED_RUNTIME_AGENTS_ENABLED", "coach, tutor")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, ModeCloud, cfg.LLM.Mode)
	assert.Equal(t, 128, cfg.LLM.Cloud.MaxTokens)
	assert.Equal(t, 2*time.Second, cfg.Runtime.DetectorTimeout)
	assert.True(t, cfg.Runtime.Safety.Strict)
	assert.Equal(t, []string{"coach", "tutor"}, cfg.Runtime.Agents.Enabled)
}

func TestLoader_EnvOverrideInvalidValue(t *testing.T) {
	t.Setenv("ACECEED_SERVER_HTTP_PORT", "not-a-number")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACECEED_SERVER_HTTP_PORT")
}

func TestLoader_LegacyAliases(t *testing.T) {
	t.Setenv("ACECEED_LLAMA_SERVER_URL", "http://10.0.0.2:8080")
	t.Setenv("ACECEED_STT_BIN", "/bin/whisper")
	t.Setenv("ACECEED_TTS_VOICE", "/voices/amy.onnx")
	t.Setenv("ACECEED_AUDIO_DEVICE", "plughw:1,0")
	t.Setenv("ACECEED_API_PORT", "8123")
	t.Setenv("ACECEED_RAG_SUBJECTS", "math,english")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.2:8080", cfg.LLM.Local.LlamaServerURL)
	assert.Equal(t, "/bin/whisper", cfg.STT.WhisperCpp.BinPath)
	assert.Equal(t, "/voices/amy.onnx", cfg.TTS.Piper.VoicePath)
	assert.Equal(t, "plughw:1,0", cfg.Audio.Input.Device)
	assert.Equal(t, "plughw:1,0", cfg.Audio.Output.Device)
	assert.Equal(t, 8123, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"math", "english"}, cfg.RAG.Subjects)
}

func TestLoader_LegacyInvalidPort(t *testing.T) {
	t.Setenv("ACECEED_API_PORT", "abc")

	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ACECEED_API_PORT")
}

func TestLoader_DotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	content := "ACECEED_LOG_LEVEL=debug\nACECEED_SERVER_METRICS_PORT=9200\n"
	require.NoError(t, os.WriteFile(envPath, []byte(content), 0o644))

	t.Setenv("ACECEED_LOG_LEVEL", "warn")
	// godotenv 写入的变量需要在测试结束后清理
	t.Cleanup(func() { os.Unsetenv("ACECEED_SERVER_METRICS_PORT") })

	cfg, err := NewLoader().WithDotEnv(envPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9200, cfg.Server.MetricsPort)
}

func TestLoader_Validator(t *testing.T) {
	called := false
	_, err := NewLoader().
		WithValidator(func(c *Config) error {
			called = true
			return c.Validate()
		}).
		Load()
	require.NoError(t, err)
	assert.True(t, called)
}

func TestResolveConfigPath(t *testing.T) {
	assert.Equal(t, "explicit.yaml", ResolveConfigPath("explicit.yaml"))

	t.Setenv(ConfigPathEnv, "/etc/aceceed.yaml")
	assert.Equal(t, "/etc/aceceed.yaml", ResolveConfigPath(""))
}

// --- Validate 测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad llm mode", func(c *Config) { c.LLM.Mode = "remote" }, "llm.mode"},
		{"bad local backend", func(c *Config) { c.LLM.Local.Backend = "ollama" }, "llm.local.backend"},
		{"bad temperature", func(c *Config) { c.LLM.Local.Temperature = 1.5 }, "temperature"},
		{"zero record seconds", func(c *Config) { c.Audio.Input.RecordSeconds = 0 }, "record_seconds"},
		{"bad ptt mode", func(c *Config) { c.Runtime.PushToTalkMode = "gpio" }, "push_to_talk_mode"},
		{"zero detector timeout", func(c *Config) { c.Runtime.DetectorTimeout = 0 }, "detector_timeout"},
		{"default not enabled", func(c *Config) { c.Runtime.Agents.Default = "mentor" }, "runtime.agents.default"},
		{"bad grade band", func(c *Config) {
			c.RAG.Enabled = true
			c.RAG.GradeBand = "college"
		}, "rag.grade_band"},
		{"bad port", func(c *Config) { c.Server.HTTPPort = 70000 }, "invalid HTTP port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Mode = "remote"
	cfg.Server.HTTPPort = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm.mode")
	assert.Contains(t, err.Error(), "invalid HTTP port")
}
