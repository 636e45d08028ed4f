package api

import "time"

// TradeRequest は POST /trade のリクエストボディです。
// 数量と価格は検証をユースケースに任せるため float64 のまま受け取ります。
type TradeRequest struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
	Shares float64 `json:"shares"`

	// 旧クライアント互換のフィールド名
	StockCode string `json:"stockCode,omitempty"`
	StockName string `json:"stockName,omitempty"`
}

// SecurityCode returns Code, falling back to the legacy stockCode field.
func (r TradeRequest) SecurityCode() string {
	if r.Code != "" {
		return r.Code
	}
	return r.StockCode
}

// SecurityName returns Name, falling back to the legacy stockName field.
func (r TradeRequest) SecurityName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.StockName
}

// HoldingResponse is one position in a portfolio.
type HoldingResponse struct {
	StockID string  `json:"stockId"`
	Code    string  `json:"code"`
	Name    string  `json:"name"`
	Shares  int64   `json:"shares"`
	AvgCost float64 `json:"avgCost"`
}

// TransactionResponse is one settled trade.
type TransactionResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Price       float64   `json:"price"`
	Shares      int64     `json:"shares"`
	TotalAmount float64   `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// PortfolioResponse is the body of GET /portfolio.
type PortfolioResponse struct {
	Balance      float64               `json:"balance"`
	Holdings     []HoldingResponse     `json:"holdings"`
	Transactions []TransactionResponse `json:"transactions"`
}

// TradeResponse is the body of a successful POST /trade.
type TradeResponse struct {
	Success   bool              `json:"success"`
	Portfolio PortfolioResponse `json:"portfolio"`
}
