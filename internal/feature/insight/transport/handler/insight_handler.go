// Package handler はinsightフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_trader/internal/api"
	"stock_trader/internal/feature/insight/domain"
	"stock_trader/internal/feature/insight/domain/entity"
	ledgerdomain "stock_trader/internal/feature/ledger/domain"
	jwtmw "stock_trader/internal/platform/jwt"
)

// InsightService はAI分析のユースケースです。
type InsightService interface {
	Stock(ctx context.Context, userID uint, code string) (*entity.Insight, error)
	Portfolio(ctx context.Context, userID uint) (*entity.Insight, error)
}

// InsightHandler はAI分析のHTTPリクエストを処理します。
type InsightHandler struct {
	svc InsightService
}

// NewInsightHandler はInsightHandlerの新しいインスタンスを生成します。
func NewInsightHandler(svc InsightService) *InsightHandler {
	return &InsightHandler{svc: svc}
}

// Stock は銘柄のAI分析を返します。生成に失敗しても200で available:false を返します。
//
// エンドポイント例:
// GET /insights/stocks/600519
func (h *InsightHandler) Stock(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	insight, err := h.svc.Stock(c.Request.Context(), userID, c.Param("code"))
	if errors.Is(err, domain.ErrInvalidCode) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	h.write(c, insight, err)
}

// Portfolio はポートフォリオ診断を返します。
func (h *InsightHandler) Portfolio(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	insight, err := h.svc.Portfolio(c.Request.Context(), userID)
	switch {
	case errors.Is(err, ledgerdomain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
		return
	case errors.Is(err, ledgerdomain.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "storage unavailable"})
		return
	}
	h.write(c, insight, err)
}

func (h *InsightHandler) write(c *gin.Context, insight *entity.Insight, err error) {
	if err != nil {
		slog.Error("insight failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, api.InsightResponse{
		Subject:     insight.Subject,
		Available:   insight.Available,
		Markdown:    insight.Markdown,
		HTML:        insight.HTML,
		GeneratedAt: insight.GeneratedAt,
	})
}
