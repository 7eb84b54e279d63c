package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/BaSui01/designflow/types"
	"github.com/BaSui01/designflow/usercontext"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// DefaultWriteTimeout 单帧写超时
const DefaultWriteTimeout = 5 * time.Second

// =============================================================================
// 📡 快照推送 Handler
// =============================================================================

// StreamHandler 处理 GET /ws/context?userId=，把快照以 JSON 文本帧推送给客户端
type StreamHandler struct {
	service        *usercontext.Service
	broadcaster    *usercontext.Broadcaster
	originPatterns []string
	writeTimeout   time.Duration
	logger         *zap.Logger
}

// NewStreamHandler 创建处理器。originPatterns 为允许的跨域来源，空表示仅同源。
func NewStreamHandler(service *usercontext.Service, broadcaster *usercontext.Broadcaster, originPatterns []string, logger *zap.Logger) *StreamHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamHandler{
		service:        service,
		broadcaster:    broadcaster,
		originPatterns: originPatterns,
		writeTimeout:   DefaultWriteTimeout,
		logger:         logger.With(zap.String("handler", "stream")),
	}
}

// HandleStream 升级为 websocket，先发送当前快照，再推送后续每次更新
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		WriteError(w, types.NewInvalidRequestError("Missing userId"), h.logger)
		return
	}

	// 先订阅再读当前值，避免两者之间的更新丢失
	updates, cancel := h.broadcaster.Subscribe(userID)
	defer cancel()

	current, err := h.service.Current(r.Context(), userID)
	if err != nil {
		WriteErrorFrom(w, err, h.logger)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Debug("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// 只读取控制帧，客户端断开时 ctx 被取消
	ctx := conn.CloseRead(r.Context())

	h.logger.Debug("stream opened", zap.String("user_id", userID))
	if err := h.write(ctx, conn, current); err != nil {
		h.logClosed(userID, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			h.logClosed(userID, ctx.Err())
			return
		case snap, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.write(ctx, conn, snap); err != nil {
				h.logClosed(userID, err)
				return
			}
		}
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, v any) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}

func (h *StreamHandler) logClosed(userID string, err error) {
	if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1 {
		h.logger.Debug("stream closed", zap.String("user_id", userID))
		return
	}
	h.logger.Warn("stream write failed", zap.String("user_id", userID), zap.Error(err))
}
