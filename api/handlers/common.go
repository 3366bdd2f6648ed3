package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/api"
	"github.com/jjfwang/aceceed-edge/session"
	"github.com/jjfwang/aceceed-edge/types"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

// =============================================================================
// 🎯 响应辅助函数
// =============================================================================

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	// 编码失败时响应头已写出，只能放弃
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError 写入 {status:"error", message} 响应。
// 结构化错误按错误码映射状态码，其余为 500。
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	if e, ok := types.AsError(err); ok {
		status = e.HTTPStatus
		if status == 0 {
			status = types.HTTPStatusFor(e.Code)
		}
	}

	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("API error",
			zap.String("code", string(types.GetErrorCode(err))),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	WriteJSON(w, status, api.PTTResponse{
		Status:  api.StatusError,
		Message: session.ErrorMessage(err),
	})
}

// WriteErrorMessage 写入简单错误消息
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, api.PTTResponse{Status: api.StatusError, Message: message})
}

// =============================================================================
// 🛡️ 请求验证辅助函数
// =============================================================================

// DecodeJSONBody 解码 JSON 请求体，空请求体视为零值。
// 失败时已写出 400 响应。
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		apiErr := types.NewError(types.ErrInvalidRequest, "invalid JSON body").WithCause(err)
		WriteError(w, apiErr, nil)
		return apiErr
	}
	return nil
}

// requireMethod 方法不匹配时写出 405
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// =============================================================================
// 📊 响应包装器（用于捕获状态码）
// =============================================================================

// ResponseWriter 包装 http.ResponseWriter 以捕获状态码
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	Written    bool
}

// NewResponseWriter 创建新的 ResponseWriter
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		StatusCode:     http.StatusOK,
	}
}

// WriteHeader 重写 WriteHeader 以捕获状态码
func (rw *ResponseWriter) WriteHeader(code int) {
	if !rw.Written {
		rw.StatusCode = code
		rw.Written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write 重写 Write 以标记已写入
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.Written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap 供 http.ResponseController 与 websocket 升级取得底层连接
func (rw *ResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack 供 WebSocket 升级使用
func (rw *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying ResponseWriter does not support hijacking")
	}
	rw.Written = true
	return hj.Hijack()
}

// Flush 透传到底层 ResponseWriter
func (rw *ResponseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
