package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/tlsutil"
	"github.com/jjfwang/aceceed-edge/llm/providers"
	"github.com/jjfwang/aceceed-edge/types"
)

// OpenAITTSProvider implements TTS using OpenAI's API.
type OpenAITTSProvider struct {
	cfg    CloudConfig
	client *http.Client
	logger *zap.Logger
}

// NewOpenAITTSProvider creates a new OpenAI TTS provider.
func NewOpenAITTSProvider(cfg CloudConfig, logger *zap.Logger) *OpenAITTSProvider {
	cfg = cfg.withDefaults(openAITTSDefaults)
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAITTSProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "tts"), zap.String("provider", "openai")),
	}
}

func (p *OpenAITTSProvider) Name() string { return "openai-tts" }

type openAITTSRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize requests WAV audio and streams it into a temp file.
func (p *OpenAITTSProvider) Synthesize(ctx context.Context, text string) (string, error) {
	payload, err := json.Marshal(openAITTSRequest{
		Model:          p.cfg.Model,
		Input:          text,
		Voice:          p.cfg.Voice,
		ResponseFormat: "wav",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		providers.JoinURL(p.cfg.BaseURL, "/v1/audio/speech"), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", providers.NetworkError("openai tts request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(resp.Body), "OpenAI TTS")
	}

	return saveAudio(resp.Body, "openai-tts")
}

// saveAudio 将音频流写入新的临时 wav 文件，失败时删除半成品
func saveAudio(r io.Reader, prefix string) (string, error) {
	path := artifact.TempPath(prefix, ".wav")
	file, err := os.Create(path)
	if err != nil {
		return "", types.NewError(types.ErrSynthesisFailed, "failed to create audio file").WithCause(err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		_ = artifact.SafeRemove(path)
		return "", types.NewError(types.ErrSynthesisFailed, "failed to write audio").WithCause(err)
	}
	if err := file.Close(); err != nil {
		_ = artifact.SafeRemove(path)
		return "", types.NewError(types.ErrSynthesisFailed, "failed to write audio").WithCause(err)
	}
	return path, nil
}
