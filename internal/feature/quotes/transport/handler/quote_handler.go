// Package handler はquotesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"stock_trader/internal/api"
	"stock_trader/internal/feature/quotes/domain"
	"stock_trader/internal/feature/quotes/domain/entity"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// QuoteService は価格取得とキャッシュ操作のユースケースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type QuoteService interface {
	GetQuotes(ctx context.Context, codes []string) ([]entity.Quote, error)
	List(ctx context.Context, page, pageSize int) (int, []entity.Quote)
	Status() entity.Status
	Refresh(ctx context.Context) int
}

// QuoteHandler は価格関連のHTTPリクエストを処理します。
type QuoteHandler struct {
	svc QuoteService
}

// NewQuoteHandler はQuoteHandlerの新しいインスタンスを生成します。
func NewQuoteHandler(svc QuoteService) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// GetQuotes は指定された銘柄の価格を返します。取得できなかった銘柄は価格0で返します。
//
// エンドポイント例:
// GET /quotes?codes=600000,000001
func (h *QuoteHandler) GetQuotes(c *gin.Context) {
	codes := strings.Split(c.Query("codes"), ",")

	quotes, err := h.svc.GetQuotes(c.Request.Context(), codes)
	if errors.Is(err, domain.ErrTooManyCodes) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		slog.Error("get quotes failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, api.QuotesResponse{Stocks: toStockQuotes(quotes)})
}

// List はキャッシュ済みの全銘柄一覧をページ単位で返します。
//
// エンドポイント例:
// GET /quotes/list?page=2&pageSize=100
func (h *QuoteHandler) List(c *gin.Context) {
	var params api.QuoteListParams
	query := c.Request.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &params.Page); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid page"})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "pageSize", query, &params.PageSize); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid pageSize"})
		return
	}

	page, pageSize := 1, defaultPageSize
	if params.Page != nil {
		page = *params.Page
	}
	if params.PageSize != nil {
		pageSize = *params.PageSize
	}
	if page < 1 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "page must be >= 1"})
		return
	}
	if pageSize < 1 || pageSize > maxPageSize {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "pageSize must be between 1 and 500"})
		return
	}

	total, quotes := h.svc.List(c.Request.Context(), page, pageSize)
	c.JSON(http.StatusOK, api.QuoteListResponse{Total: total, Page: page, Stocks: toStockQuotes(quotes)})
}

// Status はキャッシュの出所と鮮度を返します。
func (h *QuoteHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, toStatusResponse(h.svc.Status()))
}

// Refresh はキャッシュの更新を実行し、実行中であればその完了を待ちます。
func (h *QuoteHandler) Refresh(c *gin.Context) {
	n := h.svc.Refresh(c.Request.Context())
	slog.Info("quote refresh requested", "updated", n, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, api.QuoteRefreshResponse{Updated: n, Status: toStatusResponse(h.svc.Status())})
}

func toStockQuotes(quotes []entity.Quote) []api.StockQuote {
	out := make([]api.StockQuote, 0, len(quotes))
	for _, q := range quotes {
		out = append(out, api.StockQuote{
			ID:        q.Code,
			Code:      q.Code,
			Name:      q.Name,
			Price:     q.Price,
			ChangePct: q.ChangePct,
		})
	}
	return out
}

func toStatusResponse(st entity.Status) api.QuoteStatusResponse {
	out := api.QuoteStatusResponse{
		Source: string(st.Source),
		Stale:  st.Stale,
		Count:  st.Count,
	}
	if !st.LastRefresh.IsZero() {
		t := st.LastRefresh.UTC()
		out.LastRefresh = &t
	}
	return out
}
