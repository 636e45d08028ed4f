// Package usecase implements trade settlement and the portfolio read path.
package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"stock_trader/internal/feature/ledger/domain/entity"
)

// Account is a user's ledger held under exclusive access for the duration of WithAccount.
// Writes become visible to other callers only if the enclosing WithAccount callback returns nil.
type Account interface {
	// Balance returns the cash balance as of the latest SetBalance in this unit.
	Balance() decimal.Decimal
	// Holding returns the holding for code, or nil if the user holds none.
	Holding(ctx context.Context, code string) (*entity.Holding, error)
	SetBalance(ctx context.Context, balance decimal.Decimal) error
	// SaveHolding inserts or replaces the holding keyed by (user, code).
	SaveHolding(ctx context.Context, h entity.Holding) error
	DeleteHolding(ctx context.Context, code string) error
	AppendTransaction(ctx context.Context, tx entity.Transaction) error
	// Portfolio builds a snapshot including the writes made so far in this unit.
	Portfolio(ctx context.Context, recent int) (*entity.Portfolio, error)
}

// LedgerStore persists balances, holdings and transactions.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type LedgerStore interface {
	// WithAccount runs fn with exclusive access to userID's account. All writes made
	// through the Account are applied atomically when fn returns nil and discarded otherwise.
	// It returns domain.ErrUserNotFound when the account does not exist and
	// domain.ErrStorageUnavailable when the backing storage cannot be reached.
	WithAccount(ctx context.Context, userID uint, fn func(ctx context.Context, acc Account) error) error
}

// TradeObserver records settlement outcomes (metrics).
type TradeObserver interface {
	ObserveTrade(tradeType, result string)
}

type noopObserver struct{}

func (noopObserver) ObserveTrade(string, string) {}
