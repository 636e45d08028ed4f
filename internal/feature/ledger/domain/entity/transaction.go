package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an append-only record of one settled trade.
type Transaction struct {
	// ID is a UUIDv7, so lexical order follows creation time.
	ID          string
	UserID      uint
	Code        string
	Name        string
	Type        TradeType
	Price       decimal.Decimal
	Shares      int64
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
}
