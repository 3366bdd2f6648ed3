package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/internal/tlsutil"
	"github.com/jjfwang/aceceed-edge/llm/providers"
	"github.com/jjfwang/aceceed-edge/types"
)

// OpenAISTTProvider使用OpenAI Whisper API执行STT.
type OpenAISTTProvider struct {
	cfg    CloudConfig
	client *http.Client
	logger *zap.Logger
}

// NewOpenAISTTProvider 创建新的 OpenAI STT 提供者.
func NewOpenAISTTProvider(cfg CloudConfig, logger *zap.Logger) *OpenAISTTProvider {
	cfg = cfg.withDefaults(openAISTTDefaults)
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAISTTProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "stt"), zap.String("provider", "openai")),
	}
}

func (p *OpenAISTTProvider) Name() string { return "openai-stt" }

type whisperResponse struct {
	Text string `json:"text"`
}

// Transcribe 上传录音文件并返回转写文本
func (p *OpenAISTTProvider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", types.NewError(types.ErrTranscriptionFailed, "failed to open audio").WithCause(err)
	}
	defer file.Close()

	// 构建多部分形式
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy audio: %w", err)
	}
	_ = writer.WriteField("model", p.cfg.Model)
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		providers.JoinURL(p.cfg.BaseURL, "/v1/audio/transcriptions"), &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", providers.NetworkError("whisper request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(resp.Body), "OpenAI STT")
	}

	var wResp whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&wResp); err != nil {
		return "", types.NewError(types.ErrTranscriptionFailed, "failed to decode whisper response").WithCause(err)
	}

	text := cleanTranscript(wResp.Text)
	if text == "" {
		p.logger.Warn("empty transcript from openai")
	}
	p.logger.Debug("transcription completed", zap.Duration("latency", time.Since(start)))
	return text, nil
}
