package entity

import "github.com/shopspring/decimal"

// Portfolio is the derived view of a user's ledger.
// It is recomputed on every read and never cached across trades.
type Portfolio struct {
	UserID   uint
	Balance  decimal.Decimal
	Holdings []Holding
	// Transactions holds the most recent records, newest first.
	Transactions []Transaction
}

// Holding returns the holding for code, if any.
func (p *Portfolio) Holding(code string) (Holding, bool) {
	for _, h := range p.Holdings {
		if h.Code == code {
			return h, true
		}
	}
	return Holding{}, false
}
