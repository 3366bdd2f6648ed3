package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/tlsutil"
	"github.com/jjfwang/aceceed-edge/llm/providers"
	"github.com/jjfwang/aceceed-edge/types"
)

// DeepgramProvider使用Deepgram API执行STT.
type DeepgramProvider struct {
	cfg    CloudConfig
	client *http.Client
	logger *zap.Logger
}

// NewDeepgramProvider 创建新的 Deepgram STT 提供者.
func NewDeepgramProvider(cfg CloudConfig, logger *zap.Logger) *DeepgramProvider {
	cfg = cfg.withDefaults(deepgramDefaults)
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeepgramProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "stt"), zap.String("provider", "deepgram")),
	}
}

func (p *DeepgramProvider) Name() string { return "deepgram" }

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe 将 wav 文件直接上传给 /v1/listen
func (p *DeepgramProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", types.NewError(types.ErrTranscriptionFailed, "failed to open audio").WithCause(err)
	}
	defer file.Close()

	// 构建查询参数
	params := url.Values{}
	params.Set("model", p.cfg.Model)
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	if p.cfg.Language != "" {
		params.Set("language", p.cfg.Language)
	}
	endpoint := fmt.Sprintf("%s?%s", providers.JoinURL(p.cfg.BaseURL, "/v1/listen"), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, file)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "audio/wav")
	httpReq.Header.Set("Authorization", "Token "+p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", providers.NetworkError("deepgram request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(resp.Body), "Deepgram")
	}

	var dResp deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&dResp); err != nil {
		return "", types.NewError(types.ErrTranscriptionFailed, "failed to decode deepgram response").WithCause(err)
	}

	// 从第一个频道提取记录
	var text string
	if len(dResp.Results.Channels) > 0 && len(dResp.Results.Channels[0].Alternatives) > 0 {
		text = cleanTranscript(dResp.Results.Channels[0].Alternatives[0].Transcript)
	}
	if text == "" {
		p.logger.Warn("empty transcript from deepgram")
	}
	return text, nil
}
