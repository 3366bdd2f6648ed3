package api

import (
	"github.com/jjfwang/aceceed-edge/rag"
	"github.com/jjfwang/aceceed-edge/session"
	"github.com/jjfwang/aceceed-edge/vision"
)

// =============================================================================
// 按键通话类型
// =============================================================================

// PTTStartRequest 开始一次会话；请求体可省略
// @Description 开始按键通话请求
type PTTStartRequest struct {
	// 指定智能体 ID（tutor、coach），为空时按意图选择
	Agent string `json:"agent,omitempty" example:"tutor"`
}

// PTTResponse 会话接口的统一响应
// @Description 按键通话响应
type PTTResponse struct {
	// completed、stopped 或 error
	Status string `json:"status" example:"completed"`
	// 识别文本
	Transcript string `json:"transcript,omitempty"`
	// 播报的回答
	Response string `json:"response,omitempty"`
	// 错误信息
	Message string `json:"message,omitempty" example:"PTT already active"`
}

// 会话响应状态
const (
	StatusCompleted = "completed"
	StatusStopped   = "stopped"
	StatusError     = "error"
)

// =============================================================================
// 视觉类型
// =============================================================================

// CaptureResponse 拍照与检测结果
// @Description 相机拍照响应
type CaptureResponse struct {
	// 任一检测器识别到纸张
	PaperPresent bool `json:"paperPresent"`
	// 检测器中最大的运动分值，无检测器时为 0
	MotionScore float64 `json:"motionScore"`
	// 图片字节数
	ImageBytes int `json:"imageBytes"`
	// 每个检测器的结果，顺序与注册顺序一致
	Detectors []vision.Result `json:"detectors"`
}

// =============================================================================
// 运行时类型
// =============================================================================

// ServicesResponse 下游服务就绪情况
// @Description 服务状态列表
type ServicesResponse struct {
	Services []session.ServiceStatus `json:"services"`
}

// =============================================================================
// 知识检索类型
// =============================================================================

// RAGSearchRequest 会话之外的直接检索
// @Description 知识检索请求
type RAGSearchRequest struct {
	// 查询文本
	Query string `json:"query" example:"fractions" binding:"required"`
	// 返回条数，缺省为 rag.max_chunks
	Limit int `json:"limit,omitempty" example:"3"`
}

// RAGSearchResponse 检索结果
// @Description 知识检索响应
type RAGSearchResponse struct {
	Chunks []rag.Chunk `json:"chunks"`
}
