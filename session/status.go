package session

import (
	"os"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/llm/factory"
	"github.com/jjfwang/aceceed-edge/llm/speech"
)

// ServiceStatus 下游服务的配置就绪情况，不做网络探测
type ServiceStatus struct {
	ID      string `json:"id"`
	Backend string `json:"backend"`
	Ready   bool   `json:"ready"`
	Details string `json:"details,omitempty"`
}

// ServiceStatus 当前配置下 llm、stt、tts 的就绪情况
func (c *Controller) ServiceStatus() []ServiceStatus {
	return Services(c.cfg)
}

// Services 按配置与环境变量计算就绪情况，无副作用
func Services(cfg *config.Config) []ServiceStatus {
	return []ServiceStatus{llmStatus(cfg.LLM), sttStatus(cfg.STT), ttsStatus(cfg.TTS)}
}

func llmStatus(cfg config.LLMConfig) ServiceStatus {
	st := ServiceStatus{ID: "llm", Backend: factory.BackendName(cfg)}
	switch {
	case cfg.Mode == config.ModeCloud:
		st.Ready = cfg.Cloud.APIKeyEnv != "" && os.Getenv(cfg.Cloud.APIKeyEnv) != ""
		if !st.Ready {
			st.Details = "Missing API key in env " + cfg.Cloud.APIKeyEnv
		}
	case cfg.Local.Backend == config.BackendLLM8850:
		st.Ready = cfg.Local.LLM8850.Host != ""
		if !st.Ready {
			st.Details = "LLM-8850 host is not configured"
		}
	default:
		st.Ready = true
	}
	return st
}

func sttStatus(cfg config.STTConfig) ServiceStatus {
	st := ServiceStatus{ID: "stt", Backend: cfg.Mode + ":" + cfg.Backend}
	if cfg.Mode == config.ModeCloud {
		st.Ready, st.Details = speech.CloudStatus("STT", cfg.Cloud)
		return st
	}
	st.Ready = cfg.WhisperCpp.BinPath != "" && cfg.WhisperCpp.ModelPath != ""
	if !st.Ready && cfg.Backend == "whispercpp" {
		st.Details = "whisper.cpp binary or model path is not configured"
	}
	return st
}

func ttsStatus(cfg config.TTSConfig) ServiceStatus {
	st := ServiceStatus{ID: "tts", Backend: cfg.Mode + ":" + cfg.Backend}
	if cfg.Mode == config.ModeCloud {
		st.Ready, st.Details = speech.CloudStatus("TTS", cfg.Cloud)
		return st
	}
	st.Ready = cfg.Piper.BinPath != "" && cfg.Piper.VoicePath != ""
	if !st.Ready && cfg.Backend == "piper" {
		st.Details = "Piper binary or voice path is not configured"
	}
	return st
}
