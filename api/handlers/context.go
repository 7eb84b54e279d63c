package handlers

import (
	"io"
	"net/http"

	"github.com/BaSui01/designflow/types"
	"github.com/BaSui01/designflow/usercontext"
	"go.uber.org/zap"
)

// RootMessage GET / 的响应文本
const RootMessage = "Design in Action API is running!"

// UpdateContextRequest POST /update-context 的请求体
type UpdateContextRequest struct {
	UserID string `json:"userId"`
	Input  string `json:"input"`
}

// =============================================================================
// 🧊 偏好上下文 Handler
// =============================================================================

// ContextHandler 处理偏好更新与读取
type ContextHandler struct {
	service *usercontext.Service
	logger  *zap.Logger
}

// NewContextHandler 创建处理器
func NewContextHandler(service *usercontext.Service, logger *zap.Logger) *ContextHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextHandler{
		service: service,
		logger:  logger.With(zap.String("handler", "context")),
	}
}

// HandleRoot 处理 GET /
func (h *ContextHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, RootMessage)
}

// HandleUpdateContext 处理 POST /update-context，成功时返回扁平快照。
// 请求体不是 JSON、缺少字段或字段为空都返回同一个 400。
func (h *ContextHandler) HandleUpdateContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req UpdateContextRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		if apiErr, ok := types.AsError(err); ok && apiErr.HTTPStatus == http.StatusRequestEntityTooLarge {
			WriteError(w, apiErr, h.logger)
			return
		}
		WriteError(w, types.NewInvalidRequestError(usercontext.MsgMissingFields).WithCause(err), h.logger)
		return
	}
	if req.UserID == "" || req.Input == "" {
		WriteError(w, types.NewInvalidRequestError(usercontext.MsgMissingFields), h.logger)
		return
	}

	snap, err := h.service.Update(r.Context(), req.UserID, req.Input)
	if err != nil {
		WriteErrorFrom(w, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, snap)
}

// HandleGetContext 处理 GET /context/{userId}
func (h *ContextHandler) HandleGetContext(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	snap, err := h.service.Current(r.Context(), userID)
	if err != nil {
		WriteErrorFrom(w, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}
