package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/jjfwang/aceceed-edge/session"
)

// writeTimeout 单帧写入期限，超时视为客户端失联并断开连接
const writeTimeout = 5 * time.Second

// EventsHandler 以 WebSocket 推送生命周期事件，每个事件一个 JSON 文本帧。
// 事件在总线投递协程内直接写出，积压由总线的订阅队列承担；
// 写入超时或失败时断开连接，而不是跳过事件。连接建立前的事件不会补发。
type EventsHandler struct {
	bus            *session.Bus
	originPatterns []string
	logger         *zap.Logger
}

// NewEventsHandler originPatterns 为空时只接受同源连接
func NewEventsHandler(bus *session.Bus, originPatterns []string, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{
		bus:            bus,
		originPatterns: originPatterns,
		logger:         logger.With(zap.String("handler", "events")),
	}
}

// ServeHTTP 处理 GET /v1/events
// @Summary 生命周期事件流
// @Tags 会话
// @Router /v1/events [get]
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "closing")

	// 客户端不发送数据；CloseRead 在对端关闭时取消 ctx
	ctx, cancel := context.WithCancel(conn.CloseRead(r.Context()))
	defer cancel()

	unsubscribe := h.bus.Subscribe(func(e session.Event) {
		if ctx.Err() != nil {
			return
		}
		if err := h.write(ctx, conn, e); err != nil {
			h.logger.Warn("event stream write failed, closing connection",
				zap.String("event", string(e.Type)), zap.Error(err))
			_ = conn.Close(websocket.StatusPolicyViolation, "event stream write failed")
			cancel()
		}
	})
	defer unsubscribe()

	h.logger.Debug("event stream client connected", zap.String("remote_addr", r.RemoteAddr))
	<-ctx.Done()
	h.logger.Debug("event stream client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

func (h *EventsHandler) write(ctx context.Context, conn *websocket.Conn, e session.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
