package api

import "time"

// StockQuote is one entry of a quote response. ID mirrors the code.
type StockQuote struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
}

// QuotesResponse is the body of GET /quotes.
type QuotesResponse struct {
	Stocks []StockQuote `json:"stocks"`
}

// QuoteListParams are the query parameters of GET /quotes/list.
type QuoteListParams struct {
	Page     *int `form:"page" json:"page,omitempty"`
	PageSize *int `form:"pageSize" json:"pageSize,omitempty"`
}

// QuoteListResponse is the body of GET /quotes/list.
type QuoteListResponse struct {
	Total  int          `json:"total"`
	Page   int          `json:"page"`
	Stocks []StockQuote `json:"stocks"`
}

// QuoteStatusResponse is the body of GET /quotes/status.
type QuoteStatusResponse struct {
	Source      string     `json:"source"`
	Stale       bool       `json:"stale"`
	Count       int        `json:"count"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
}

// QuoteRefreshResponse is the body of POST /quotes/refresh.
type QuoteRefreshResponse struct {
	Updated int                 `json:"updated"`
	Status  QuoteStatusResponse `json:"status"`
}
