package vision

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/config"
	"github.com/jjfwang/aceceed-edge/internal/artifact"
	"github.com/jjfwang/aceceed-edge/internal/cmdexec"
	"github.com/jjfwang/aceceed-edge/internal/tlsutil"
	"github.com/jjfwang/aceceed-edge/llm/providers"
	"github.com/jjfwang/aceceed-edge/types"
)

// 拍照后端
const (
	BackendRpicamStill    = "rpicam-still"
	BackendLibcameraStill = "libcamera-still"
	BackendCameraService  = "camera-service"
)

// maxImageBytes camera-service 响应体上限
const maxImageBytes = 16 << 20

// Capture 一张静态照片
type Capture struct {
	Image    []byte
	MimeType string
}

// Capturer 拍摄一张静态照片
type Capturer interface {
	CaptureStill(ctx context.Context) (*Capture, error)
}

// CapturerFunc 函数适配器
type CapturerFunc func(ctx context.Context) (*Capture, error)

// CaptureStill 实现 Capturer
func (f CapturerFunc) CaptureStill(ctx context.Context) (*Capture, error) { return f(ctx) }

// NewCapturer 按 vision 配置创建拍照器；vision 关闭时返回的拍照器总是报 VISION_DISABLED
func NewCapturer(cfg config.VisionConfig, runner cmdexec.Runner, logger *zap.Logger) Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		return CapturerFunc(func(context.Context) (*Capture, error) {
			return nil, types.NewError(types.ErrVisionDisabled, "Vision is disabled")
		})
	}
	if cfg.Capture.Backend == BackendCameraService {
		return NewServiceCapturer(cfg.Capture.CameraServiceURL, logger)
	}
	return NewStillCapturer(cfg.Capture, runner, logger)
}

// StillCapturer 调用 rpicam-still / libcamera-still 写临时 jpg 后读取
type StillCapturer struct {
	command   string
	stillArgs []string
	runner    cmdexec.Runner
	logger    *zap.Logger
}

func NewStillCapturer(cfg config.CaptureConfig, runner cmdexec.Runner, logger *zap.Logger) *StillCapturer {
	command := BackendLibcameraStill
	if cfg.Backend == BackendRpicamStill || cfg.Backend == "" {
		command = BackendRpicamStill
	}
	if runner == nil {
		runner = cmdexec.OSRunner{}
	}
	return &StillCapturer{
		command:   command,
		stillArgs: cfg.StillArgs,
		runner:    runner,
		logger:    logger.With(zap.String("component", "camera"), zap.String("backend", command)),
	}
}

// CaptureStill 实现 Capturer
func (c *StillCapturer) CaptureStill(ctx context.Context) (*Capture, error) {
	outputPath := artifact.TempPath("camera", ".jpg")
	defer artifact.Cleanup(c.logger, outputPath)

	args := append([]string{"--nopreview", "--timeout", "100", "--output", outputPath}, c.stillArgs...)
	if _, err := c.runner.Run(ctx, c.command, args); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.NewError(types.ErrCaptureFailed, fmt.Sprintf(
			"Camera capture failed. Ensure '%s' is installed and the camera is enabled.", c.command)).WithCause(err)
	}

	image, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, types.NewError(types.ErrCaptureFailed, "camera produced no image").WithCause(err)
	}
	return &Capture{Image: image, MimeType: "image/jpeg"}, nil
}

// ServiceCapturer 通过 camera-service 的 POST /capture 拍照
type ServiceCapturer struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewServiceCapturer(baseURL string, logger *zap.Logger) *ServiceCapturer {
	return &ServiceCapturer{
		baseURL: baseURL,
		client:  tlsutil.LocalHTTPClient(10 * time.Second),
		logger:  logger.With(zap.String("component", "camera"), zap.String("backend", BackendCameraService)),
	}
}

// CaptureStill 实现 Capturer
func (c *ServiceCapturer) CaptureStill(ctx context.Context) (*Capture, error) {
	if c.baseURL == "" {
		return nil, types.NewError(types.ErrNotConfigured, "cameraServiceUrl is required for camera-service backend")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, providers.JoinURL(c.baseURL, "/capture"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.NewError(types.ErrCaptureFailed, "camera service unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewError(types.ErrCaptureFailed, fmt.Sprintf("Camera service error: %d", resp.StatusCode))
	}
	image, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, types.NewError(types.ErrCaptureFailed, "failed to read camera image").WithCause(err)
	}
	return &Capture{Image: image, MimeType: "image/jpeg"}, nil
}
