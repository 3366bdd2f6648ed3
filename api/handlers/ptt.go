package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/api"
	"github.com/jjfwang/aceceed-edge/session"
	"github.com/jjfwang/aceceed-edge/vision"
)

// Controller 会话控制器在 HTTP 层需要的能力
type Controller interface {
	Start(ctx context.Context, source session.Source, requestedAgent string, opts ...session.StartOption) (*session.Result, error)
	Stop(source session.Source) bool
	IsActive() bool
	CaptureWithDetectors(ctx context.Context, source session.Source) (*vision.Capture, []vision.Result, error)
	ServiceStatus() []session.ServiceStatus
	Bus() *session.Bus
}

// =============================================================================
// 🎙️ 按键通话 Handler
// =============================================================================

// PTTHandler 按键通话与相机端点
type PTTHandler struct {
	ctrl   Controller
	logger *zap.Logger
}

// NewPTTHandler 创建按键通话处理器
func NewPTTHandler(ctrl Controller, logger *zap.Logger) *PTTHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PTTHandler{
		ctrl:   ctrl,
		logger: logger.With(zap.String("handler", "ptt")),
	}
}

// HandleStart 处理 POST /v1/ptt/start，等待整个会话结束后返回
// @Summary 开始按键通话
// @Tags 会话
// @Accept json
// @Produce json
// @Param request body api.PTTStartRequest false "指定智能体"
// @Success 200 {object} api.PTTResponse "会话完成"
// @Failure 409 {object} api.PTTResponse "已有会话"
// @Failure 500 {object} api.PTTResponse "会话失败"
// @Router /v1/ptt/start [post]
func (h *PTTHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req api.PTTStartRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		return
	}

	if h.ctrl.IsActive() {
		WriteErrorMessage(w, http.StatusConflict, "PTT already active")
		return
	}

	// session-started 由控制器在抢到会话锁后发布，并发请求中落败的一方不会发布
	res, err := h.ctrl.Start(r.Context(), session.SourceAPI, req.Agent, session.WithAnnounce())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.PTTResponse{
		Status:     api.StatusCompleted,
		Transcript: res.Transcript,
		Response:   res.Response,
	})
}

// HandleStop 处理 POST /v1/ptt/stop，结束录音阶段
// @Summary 停止按键通话
// @Tags 会话
// @Produce json
// @Success 200 {object} api.PTTResponse "已停止"
// @Failure 409 {object} api.PTTResponse "没有会话"
// @Router /v1/ptt/stop [post]
func (h *PTTHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	if !h.ctrl.IsActive() {
		WriteErrorMessage(w, http.StatusConflict, "No active PTT session")
		return
	}

	h.ctrl.Bus().Publish(session.StoppedEvent(session.SourceAPI))
	h.ctrl.Stop(session.SourceAPI)
	WriteJSON(w, http.StatusOK, api.PTTResponse{Status: api.StatusStopped})
}

// HandleCapture 处理 POST /v1/camera/capture
// @Summary 拍照并运行检测器
// @Tags 视觉
// @Produce json
// @Success 200 {object} api.CaptureResponse "检测结果"
// @Failure 500 {object} api.PTTResponse "拍照失败"
// @Router /v1/camera/capture [post]
func (h *PTTHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	capture, results, err := h.ctrl.CaptureWithDetectors(r.Context(), session.SourceAPI)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, api.CaptureResponse{
		PaperPresent: vision.AnyPaper(results),
		MotionScore:  vision.MaxMotion(results),
		ImageBytes:   len(capture.Image),
		Detectors:    results,
	})
}

// HandleServices 处理 GET /v1/runtime/services
// @Summary 下游服务就绪情况
// @Tags 运行时
// @Produce json
// @Success 200 {object} api.ServicesResponse "服务列表"
// @Router /v1/runtime/services [get]
func (h *PTTHandler) HandleServices(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, api.ServicesResponse{Services: h.ctrl.ServiceStatus()})
}
