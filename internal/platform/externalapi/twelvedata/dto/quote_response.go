// Package dto defines the Twelve Data response bodies.
package dto

// QuoteResponse は /quote のレスポンスです。数値はすべて文字列で返されます。
// エラー時は Status が "error" になり、Message に理由が入ります。
type QuoteResponse struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Exchange      string `json:"exchange"`
	Close         string `json:"close"`
	PercentChange string `json:"percent_change"`

	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
