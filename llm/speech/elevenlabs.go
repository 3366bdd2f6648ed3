package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/audio"
	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/tlsutil"
	"github.com/jjfwang/aceceed-edge/llm/providers"
	"github.com/jjfwang/aceceed-edge/types"
)

// ElevenLabsProvider 使用 ElevenLabs API 执行 TTS.
// 以 pcm_<rate> 格式请求原始 PCM，再封装为 WAV 以便 aplay 直接播放。
type ElevenLabsProvider struct {
	cfg    CloudConfig
	client *http.Client
	logger *zap.Logger
}

// NewElevenLabsProvider 创建新的 ElevenLabs TTS 提供者.
func NewElevenLabsProvider(cfg CloudConfig, logger *zap.Logger) *ElevenLabsProvider {
	cfg = cfg.withDefaults(elevenLabsDefaults)
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ElevenLabsProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "tts"), zap.String("provider", "elevenlabs")),
	}
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

type elevenLabsTTSRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize 合成语音并写入临时 wav
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(elevenLabsTTSRequest{Text: text, ModelID: p.cfg.Model})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	endpoint := fmt.Sprintf("%s?output_format=pcm_%d",
		providers.JoinURL(p.cfg.BaseURL, "/v1/text-to-speech/"+p.cfg.Voice), p.cfg.SampleRate)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", providers.NetworkError("elevenlabs request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(resp.Body), "ElevenLabs")
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.NewError(types.ErrSynthesisFailed, "failed to read elevenlabs audio").WithCause(err)
	}

	path := artifact.TempPath("elevenlabs", ".wav")
	format := audio.PCMFormat{SampleRate: p.cfg.SampleRate, Channels: 1, BitsPerSample: 16}
	if err := audio.WriteWAV(path, pcm, format); err != nil {
		return "", types.NewError(types.ErrSynthesisFailed, "failed to write audio").WithCause(err)
	}
	return path, nil
}
