package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jjfwang/aceceed-edge/types"
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 2048

// MapHTTPError 将上游 HTTP 状态转换为带重试标记的结构化错误。
// 408/429/5xx 可重试，其余 4xx 不可重试。
func MapHTTPError(status int, msg string, label string) *types.Error {
	text := fmt.Sprintf("%s error: %d %s", label, status, msg)
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return types.NewError(types.ErrUpstreamTimeout, text).
			WithHTTPStatus(status).WithRetryable(true)
	case status == http.StatusTooManyRequests || status >= 500:
		return types.NewError(types.ErrUpstreamError, text).
			WithHTTPStatus(status).WithRetryable(true)
	default:
		return types.NewError(types.ErrInvalidRequest, text).
			WithHTTPStatus(status)
	}
}

// NetworkError 包装连接失败；message 为空时使用 cause 文本
func NetworkError(message string, cause error) *types.Error {
	if message == "" {
		message = cause.Error()
	}
	return types.NewError(types.ErrUpstreamError, message).
		WithCause(cause).WithHTTPStatus(http.StatusBadGateway).WithRetryable(true)
}

// ReadErrorMessage 读取错误响应体，优先提取 OpenAI 风格的 error.message
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}

	return strings.TrimSpace(string(data))
}

// JoinURL 拼接基础地址与路径，处理两侧多余的斜杠
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
