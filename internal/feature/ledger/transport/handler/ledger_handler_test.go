package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/feature/ledger/domain/entity"
	"stock_trader/internal/feature/ledger/transport/handler"
	"stock_trader/internal/feature/ledger/usecase"
	jwtmw "stock_trader/internal/platform/jwt"
)

// mockSettler はTradeSettlerインターフェースのモック実装です。
type mockSettler struct {
	SettleFunc func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error)
}

func (m *mockSettler) Settle(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
	return m.SettleFunc(ctx, cmd)
}

// mockPortfolioReader はPortfolioReaderインターフェースのモック実装です。
type mockPortfolioReader struct {
	GetFunc func(ctx context.Context, userID uint) (*entity.Portfolio, error)
}

func (m *mockPortfolioReader) Get(ctx context.Context, userID uint) (*entity.Portfolio, error) {
	return m.GetFunc(ctx, userID)
}

func samplePortfolio() *entity.Portfolio {
	return &entity.Portfolio{
		UserID:  7,
		Balance: decimal.RequireFromString("998500.5"),
		Holdings: []entity.Holding{
			{Code: "600000", Name: "浦发银行", Shares: 100, AvgCost: decimal.RequireFromString("14.995")},
		},
		Transactions: []entity.Transaction{{
			ID: "0190b5e6-0000-7000-8000-000000000001", Code: "600000", Name: "浦发银行", Type: entity.TradeBuy,
			Price: decimal.RequireFromString("14.995"), Shares: 100, TotalAmount: decimal.RequireFromString("1499.5"),
			CreatedAt: time.Date(2026, 1, 5, 1, 30, 0, 0, time.UTC),
		}},
	}
}

// withUser は認証ミドルウェアの代わりにユーザーIDをコンテキストに設定します。
func withUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id != 0 {
			c.Set(jwtmw.ContextUserID, id)
		}
		c.Next()
	}
}

func TestLedgerHandler_Trade(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		userID         uint
		body           string
		settle         func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "success: buy",
			userID: 7,
			body:   `{"code":"600000","name":"浦发银行","type":"buy","price":14.995,"shares":100}`,
			settle: func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
				assert.Equal(t, usecase.TradeCommand{UserID: 7, Code: "600000", Name: "浦发银行", Type: "buy", Price: 14.995, Shares: 100}, cmd)
				return samplePortfolio(), nil
			},
			expectedStatus: http.StatusOK,
			expectedBody: `{"success":true,"portfolio":{"balance":998500.5,` +
				`"holdings":[{"stockId":"600000","code":"600000","name":"浦发银行","shares":100,"avgCost":14.995}],` +
				`"transactions":[{"id":"0190b5e6-0000-7000-8000-000000000001","code":"600000","name":"浦发银行","type":"buy",` +
				`"price":14.995,"shares":100,"total_amount":1499.5,"created_at":"2026-01-05T01:30:00Z"}]}}`,
		},
		{
			name:   "success: legacy field names",
			userID: 7,
			body:   `{"stockCode":"000001","stockName":"平安银行","type":"sell","price":10,"shares":5}`,
			settle: func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
				assert.Equal(t, "000001", cmd.Code)
				assert.Equal(t, "平安银行", cmd.Name)
				return &entity.Portfolio{Balance: decimal.Zero}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"portfolio":{"balance":0,"holdings":[],"transactions":[]}}`,
		},
		{
			name:           "error: no authenticated user",
			userID:         0,
			body:           `{}`,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"unauthorized"}`,
		},
		{
			name:           "error: malformed json",
			userID:         7,
			body:           `{"code":`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name:           "error: shares as string",
			userID:         7,
			body:           `{"code":"600000","type":"buy","price":1,"shares":"100"}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request"}`,
		},
		{
			name:   "error: invalid type surfaced verbatim",
			userID: 7,
			body:   `{"code":"600000","type":"hold","price":1,"shares":1}`,
			settle: func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
				return nil, domain.ErrInvalidType
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid trade type: must be buy or sell"}`,
		},
		{
			name:   "error: insufficient balance",
			userID: 7,
			body:   `{"code":"600000","type":"buy","price":1e6,"shares":100}`,
			settle: func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
				return nil, domain.ErrInsufficientBalance
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"error":"insufficient balance"}`,
		},
		{
			name:   "error: insufficient holding",
			userID: 7,
			body:   `{"code":"600000","type":"sell","price":1,"shares":100}`,
			settle: func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
				return nil, domain.ErrInsufficientHolding
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"error":"insufficient holding"}`,
		},
		{
			name:   "error: user not found",
			userID: 7,
			body:   `{"code":"600000","type":"buy","price":1,"shares":1}`,
			settle: func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
				return nil, domain.ErrUserNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"user not found"}`,
		},
		{
			name:   "error: storage unavailable hides details",
			userID: 7,
			body:   `{"code":"600000","type":"buy","price":1,"shares":1}`,
			settle: func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
				return nil, fmt.Errorf("%w: dial tcp 10.0.0.1:5432: connection refused", domain.ErrStorageUnavailable)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"storage unavailable"}`,
		},
		{
			name:   "error: unexpected failure hides details",
			userID: 7,
			body:   `{"code":"600000","type":"buy","price":1,"shares":1}`,
			settle: func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
				return nil, errors.New("pq: relation \"users\" does not exist")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settler := &mockSettler{SettleFunc: tt.settle}
			if tt.settle == nil {
				settler.SettleFunc = func(ctx context.Context, cmd usecase.TradeCommand) (*entity.Portfolio, error) {
					t.Fatal("usecase must not be called")
					return nil, nil
				}
			}
			h := handler.NewLedgerHandler(settler, &mockPortfolioReader{})

			r := gin.New()
			r.POST("/trade", withUser(tt.userID), h.Trade)

			req := httptest.NewRequest(http.MethodPost, "/trade", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestLedgerHandler_Portfolio(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("success", func(t *testing.T) {
		reader := &mockPortfolioReader{GetFunc: func(ctx context.Context, userID uint) (*entity.Portfolio, error) {
			assert.Equal(t, uint(7), userID)
			return samplePortfolio(), nil
		}}
		h := handler.NewLedgerHandler(&mockSettler{}, reader)

		r := gin.New()
		r.GET("/portfolio", withUser(7), h.Portfolio)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/portfolio", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"balance":998500.5`)
		assert.Contains(t, w.Body.String(), `"avgCost":14.995`)
	})

	t.Run("storage unavailable", func(t *testing.T) {
		reader := &mockPortfolioReader{GetFunc: func(ctx context.Context, userID uint) (*entity.Portfolio, error) {
			return nil, domain.ErrStorageUnavailable
		}}
		h := handler.NewLedgerHandler(&mockSettler{}, reader)

		r := gin.New()
		r.GET("/portfolio", withUser(7), h.Portfolio)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/portfolio", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"error":"storage unavailable"}`, w.Body.String())
	})
}
