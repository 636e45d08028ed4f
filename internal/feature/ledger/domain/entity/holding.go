package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is a user's position in one security.
// A holding with zero shares is never stored.
type Holding struct {
	UserID uint
	Code   string
	Name   string
	// Shares is always > 0 for a stored holding.
	Shares int64
	// AvgCost is the weighted average buy price; sells leave it unchanged.
	AvgCost   decimal.Decimal
	UpdatedAt time.Time
}
