package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/tlsutil"
	"github.com/jjfwang/aceceed-edge/types"
)

// DefaultOCRTimeout OCR 请求默认超时
const DefaultOCRTimeout = 3 * time.Second

// OCR 从照片中提取文字，无结果时返回 ""
type OCR interface {
	Run(ctx context.Context, image []byte) (string, error)
}

// OCRFunc 函数适配器
type OCRFunc func(ctx context.Context, image []byte) (string, error)

// Run 实现 OCR
func (f OCRFunc) Run(ctx context.Context, image []byte) (string, error) { return f(ctx, image) }

// ServiceOCR 把图像以 octet-stream POST 给 OCR 服务，响应为 {"text": "..."}
type ServiceOCR struct {
	cfg    config.OCRConfig
	client *http.Client
	logger *zap.Logger
}

func NewServiceOCR(cfg config.OCRConfig, logger *zap.Logger) *ServiceOCR {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOCRTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ServiceOCR{
		cfg:    cfg,
		client: tlsutil.LocalHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "ocr")),
	}
}

// Enabled OCR 是否开启
func (o *ServiceOCR) Enabled() bool { return o.cfg.Enabled }

// Run 实现 OCR
func (o *ServiceOCR) Run(ctx context.Context, image []byte) (string, error) {
	if !o.cfg.Enabled {
		return "", nil
	}
	if o.cfg.MockText != "" {
		return o.cfg.MockText, nil
	}
	if o.cfg.ServiceURL == "" {
		o.logger.Warn("OCR is enabled but no serviceUrl is configured.")
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.ServiceURL, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", types.NewError(types.ErrOCRFailed, "OCR request failed").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", types.NewError(types.ErrOCRFailed, fmt.Sprintf("OCR service returned %d", resp.StatusCode))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewError(types.ErrOCRFailed, "failed to decode OCR response").WithCause(err)
	}
	return out.Text, nil
}
