package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BaSui01/designflow/types"
	"go.uber.org/zap"
)

// MaxBodyBytes 请求体大小上限
const MaxBodyBytes = 1 << 20

// MsgInternalError 5xx 响应对外统一的消息
const MsgInternalError = "Internal server error"

// =============================================================================
// 📦 通用响应结构
// =============================================================================

// Response 运维端点（/version）使用的包装结构
type Response struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorBody 业务端点的错误响应：{"error": "..."}
type ErrorBody struct {
	Error string `json:"error"`
}

// =============================================================================
// 🎯 响应辅助函数
// =============================================================================

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	// 头已写出，编码失败只能放弃
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess 写入包装后的成功响应
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteError 把 types.Error 写为 {"error": message}。
// 5xx 的细节只进日志，响应体固定为 MsgInternalError。
func WriteError(w http.ResponseWriter, err *types.Error, logger *zap.Logger) {
	status := err.HTTPStatus
	if status == 0 {
		status = mapErrorCodeToHTTPStatus(err.Code)
	}

	message := err.Message
	if status >= http.StatusInternalServerError {
		message = MsgInternalError
	}

	if logger != nil {
		fields := []zap.Field{
			zap.String("code", string(types.GetErrorCode(err))),
			zap.String("message", err.Message),
			zap.Int("status", status),
			zap.Bool("retryable", types.IsRetryable(err)),
		}
		if err.Cause != nil {
			fields = append(fields, zap.Error(err.Cause))
		}
		if status >= http.StatusInternalServerError {
			logger.Error("API error", fields...)
		} else {
			logger.Debug("API error", fields...)
		}
	}

	WriteJSON(w, status, ErrorBody{Error: message})
}

// WriteErrorFrom 写入任意错误，非 types.Error 视为内部错误
func WriteErrorFrom(w http.ResponseWriter, err error, logger *zap.Logger) {
	if apiErr, ok := types.AsError(err); ok {
		WriteError(w, apiErr, logger)
		return
	}
	WriteError(w, types.NewError(types.ErrInternalError, "unexpected error").WithCause(err), logger)
}

// WriteMethodNotAllowed 写入 405 并设置 Allow 头
func WriteMethodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	WriteJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: "Method not allowed"})
}

// =============================================================================
// 🔄 错误码到 HTTP 状态码映射
// =============================================================================

func mapErrorCodeToHTTPStatus(code types.ErrorCode) int {
	switch code {
	case types.ErrInvalidRequest:
		return http.StatusBadRequest
	case types.ErrUnauthorized:
		return http.StatusUnauthorized
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrRateLimited:
		return http.StatusTooManyRequests
	case types.ErrUpstreamTimeout:
		return http.StatusGatewayTimeout
	case types.ErrUpstreamError:
		return http.StatusBadGateway
	case types.ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// 🛡️ 请求解析
// =============================================================================

// DecodeJSONBody 解码 JSON 请求体，限制大小并拒绝尾随数据。
// 返回的错误为 ErrInvalidRequest，由调用方决定对外消息。
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return types.NewInvalidRequestError("request body is empty")
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return types.NewError(types.ErrInvalidRequest, "request body too large").
				WithCause(err).
				WithHTTPStatus(http.StatusRequestEntityTooLarge)
		}
		return types.NewInvalidRequestError("invalid JSON body").WithCause(err)
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return types.NewInvalidRequestError("invalid JSON body").
			WithCause(fmt.Errorf("unexpected data after JSON value"))
	}

	return nil
}
