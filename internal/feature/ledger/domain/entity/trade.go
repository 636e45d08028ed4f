// Package entity defines the domain entities for the ledger feature.
package entity

// TradeType is the side of a trade.
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// ParseTradeType accepts exactly "buy" or "sell".
func ParseTradeType(s string) (TradeType, bool) {
	switch TradeType(s) {
	case TradeBuy, TradeSell:
		return TradeType(s), true
	default:
		return "", false
	}
}
