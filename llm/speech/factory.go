package speech

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
	"github.com/jjfwang/aceceed-edge/types"
)

// NewSTT 按 stt 配置创建识别提供者。云端模式要求 api_key_env 指向非空环境变量。
func NewSTT(cfg config.STTConfig, runner cmdexec.Runner, logger *zap.Logger) (STTProvider, error) {
	if cfg.Mode != config.ModeCloud {
		if cfg.Backend != "" && cfg.Backend != "whispercpp" {
			return nil, types.NewError(types.ErrNotConfigured, fmt.Sprintf("unsupported stt backend %q", cfg.Backend))
		}
		return NewWhisperCppSTT(cfg.WhisperCpp, runner, logger), nil
	}

	key, err := cloudKey("STT", cfg.Cloud)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Cloud.Provider) {
	case "openai":
		return NewOpenAISTTProvider(CloudConfig{APIKey: key, BaseURL: cfg.Cloud.BaseURL, Model: cfg.Cloud.Model}, logger), nil
	case "deepgram":
		return NewDeepgramProvider(CloudConfig{
			APIKey: key, BaseURL: cfg.Cloud.BaseURL, Model: cfg.Cloud.Model, Language: cfg.WhisperCpp.Language,
		}, logger), nil
	default:
		return nil, types.NewError(types.ErrNotConfigured, fmt.Sprintf("unsupported cloud stt provider %q", cfg.Cloud.Provider))
	}
}

// NewTTS 按 tts 配置创建合成提供者
func NewTTS(cfg config.TTSConfig, runner cmdexec.Runner, logger *zap.Logger) (TTSProvider, error) {
	if cfg.Mode != config.ModeCloud {
		if cfg.Backend != "" && cfg.Backend != "piper" {
			return nil, types.NewError(types.ErrNotConfigured, fmt.Sprintf("unsupported tts backend %q", cfg.Backend))
		}
		return NewPiperTTS(cfg.Piper, runner, logger), nil
	}

	key, err := cloudKey("TTS", cfg.Cloud)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Cloud.Provider) {
	case "openai":
		return NewOpenAITTSProvider(CloudConfig{
			APIKey: key, BaseURL: cfg.Cloud.BaseURL, Model: cfg.Cloud.Model, Voice: cfg.Cloud.VoiceID,
		}, logger), nil
	case "elevenlabs":
		return NewElevenLabsProvider(CloudConfig{
			APIKey: key, BaseURL: cfg.Cloud.BaseURL, Model: cfg.Cloud.Model, Voice: cfg.Cloud.VoiceID,
			SampleRate: cfg.Piper.OutputSampleRate,
		}, logger), nil
	default:
		return nil, types.NewError(types.ErrNotConfigured, fmt.Sprintf("unsupported cloud tts provider %q", cfg.Cloud.Provider))
	}
}

// CloudStatus 返回云端语音服务的就绪状态与说明，kind 为 "STT" 或 "TTS"
func CloudStatus(kind string, cloud config.SpeechCloud) (bool, string) {
	_, err := cloudKey(kind, cloud)
	if err != nil {
		if e, ok := types.AsError(err); ok {
			return false, e.Message
		}
		return false, err.Error()
	}
	return true, ""
}

func cloudKey(kind string, cloud config.SpeechCloud) (string, error) {
	if cloud.Provider == "" {
		return "", types.NewError(types.ErrNotConfigured, fmt.Sprintf("Cloud %s configured without provider details", kind))
	}
	if cloud.APIKeyEnv == "" {
		return "", types.NewError(types.ErrNotConfigured, fmt.Sprintf("Cloud %s apiKeyEnv is not configured", kind))
	}
	key := os.Getenv(cloud.APIKeyEnv)
	if key == "" {
		return "", types.NewError(types.ErrNotConfigured, "Missing API key in env "+cloud.APIKeyEnv)
	}
	return key, nil
}
