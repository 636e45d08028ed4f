// Package handler はledgerフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"stock_trader/internal/api"
	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/feature/ledger/domain/entity"
	"stock_trader/internal/feature/ledger/usecase"
	jwtmw "stock_trader/internal/platform/jwt"
)

// TradeSettler は売買の約定を行うユースケースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type TradeSettler interface {
	Settle(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error)
}

// PortfolioReader はポートフォリオの読み取りを行うユースケースです。
type PortfolioReader interface {
	Get(ctx context.Context, userID uint) (*entity.Portfolio, error)
}

// LedgerHandler は売買とポートフォリオ参照のHTTPリクエストを処理します。
type LedgerHandler struct {
	settler   TradeSettler
	portfolio PortfolioReader
}

// NewLedgerHandler はLedgerHandlerの新しいインスタンスを生成します。
func NewLedgerHandler(settler TradeSettler, portfolio PortfolioReader) *LedgerHandler {
	return &LedgerHandler{settler: settler, portfolio: portfolio}
}

// Trade は売買APIエンドポイントを処理します。
// - 認証ミドルウェアが設定したユーザーIDを使用
// - JSONが不正な場合は400を返却
// - 検証エラーは400、残高・保有不足は422を返却
// - 成功時は約定後のポートフォリオ付きで200を返却
//
// エンドポイント例:
// POST /trade {"code":"600000","name":"浦发银行","type":"buy","price":8.5,"shares":100}
func (h *LedgerHandler) Trade(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req api.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("trade request binding failed", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	p, err := h.settler.Settle(c.Request.Context(), usecase.TradeCommand{
		UserID: userID,
		Code:   req.SecurityCode(),
		Name:   req.SecurityName(),
		Type:   req.Type,
		Price:  req.Price,
		Shares: req.Shares,
	})
	if err != nil {
		writeLedgerError(c, "trade", userID, err)
		return
	}

	c.JSON(http.StatusOK, api.TradeResponse{Success: true, Portfolio: NewPortfolioResponse(p)})
}

// Portfolio は残高・保有・直近取引を返します。
//
// エンドポイント例:
// GET /portfolio
func (h *LedgerHandler) Portfolio(c *gin.Context) {
	userID, ok := jwtmw.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	p, err := h.portfolio.Get(c.Request.Context(), userID)
	if err != nil {
		writeLedgerError(c, "portfolio", userID, err)
		return
	}
	c.JSON(http.StatusOK, NewPortfolioResponse(p))
}

// writeLedgerError はドメインエラーをHTTPステータスに変換します。
// 検証・業務ルールのメッセージはそのまま返し、それ以外の内部エラーは公開しません。
func writeLedgerError(c *gin.Context, op string, userID uint, err error) {
	switch {
	case domain.IsValidation(err):
		slog.Warn(op+" rejected", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case domain.IsBusinessRule(err):
		slog.Warn(op+" rejected", "error", err, "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUserNotFound):
		slog.Warn(op+" for unknown user", "user_id", userID, "remote_addr", c.ClientIP())
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
	case errors.Is(err, domain.ErrStorageUnavailable):
		slog.Error(op+" failed: storage unavailable", "error", err, "user_id", userID)
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "storage unavailable"})
	default:
		slog.Error(op+" failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

// NewPortfolioResponse はポートフォリオをレスポンス形式に変換します。
func NewPortfolioResponse(p *entity.Portfolio) api.PortfolioResponse {
	out := api.PortfolioResponse{
		Balance:      p.Balance.InexactFloat64(),
		Holdings:     make([]api.HoldingResponse, 0, len(p.Holdings)),
		Transactions: make([]api.TransactionResponse, 0, len(p.Transactions)),
	}
	for _, h := range p.Holdings {
		out.Holdings = append(out.Holdings, api.HoldingResponse{
			StockID: h.Code,
			Code:    h.Code,
			Name:    h.Name,
			Shares:  h.Shares,
			AvgCost: h.AvgCost.InexactFloat64(),
		})
	}
	for _, t := range p.Transactions {
		out.Transactions = append(out.Transactions, api.TransactionResponse{
			ID:          t.ID,
			Code:        t.Code,
			Name:        t.Name,
			Type:        string(t.Type),
			Price:       t.Price.InexactFloat64(),
			Shares:      t.Shares,
			TotalAmount: t.TotalAmount.InexactFloat64(),
			CreatedAt:   t.CreatedAt,
		})
	}
	return out
}
