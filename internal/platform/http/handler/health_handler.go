// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stock_trader/internal/api"
)

// DegradationState は台帳ストレージの縮退状態を返します。
// *degrade.Latch が実装します。
type DegradationState interface {
	Tripped() bool
}

// HealthHandler は /health と /healthz を処理します。
type HealthHandler struct {
	state DegradationState
	now   func() time.Time
}

// NewHealthHandler は HealthHandler を生成します。state が nil の場合は常に CONNECTED を返します。
func NewHealthHandler(state DegradationState) *HealthHandler {
	return &HealthHandler{state: state, now: time.Now}
}

// Health はHTTPメソッドに応じてレスポンスし、キャッシュを防止します。
// 縮退中も 200 を返し、database フィールドで FALLBACK_MODE を通知します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, api.HealthResponse{
			Status:    "ok",
			Database:  h.database(),
			Timestamp: h.now().UTC(),
		})
	}
}

func (h *HealthHandler) database() string {
	if h.state != nil && h.state.Tripped() {
		return api.DatabaseFallbackMode
	}
	return api.DatabaseConnected
}
