package usecase

import (
	"context"
	"errors"
	"log/slog"

	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/shared/degrade"
)

// Stores selects between the durable ledger and the in-memory fallback.
// Once the latch trips every operation for every user goes to the fallback
// until the process restarts, so the two ledgers never serve the same user concurrently.
type Stores struct {
	durable  LedgerStore
	fallback LedgerStore
	latch    *degrade.Latch
}

// NewStores creates a selector. durable may be nil when the database was
// unreachable at startup; in that case the latch is tripped immediately.
func NewStores(durable, fallback LedgerStore, latch *degrade.Latch) *Stores {
	if latch == nil {
		latch = degrade.NewLatch()
	}
	if durable == nil {
		latch.Trip("durable ledger not configured")
	}
	return &Stores{durable: durable, fallback: fallback, latch: latch}
}

// Degraded reports whether the fallback ledger is in use.
func (s *Stores) Degraded() bool {
	return s.latch.Tripped()
}

// Do runs fn against the active store. When the durable store reports
// ErrStorageUnavailable the latch is tripped and fn is retried once on the fallback.
func (s *Stores) Do(ctx context.Context, op string, fn func(store LedgerStore) error) error {
	if s.latch.Tripped() {
		return s.onFallback(fn)
	}

	err := fn(s.durable)
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		return err
	}
	// 呼び出し側の期限切れ・キャンセルではラッチを倒さない
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	s.latch.Trip(err.Error())
	slog.Warn("retrying ledger operation on in-memory fallback", "op", op, "error", err)
	return s.onFallback(fn)
}

func (s *Stores) onFallback(fn func(store LedgerStore) error) error {
	if s.fallback == nil {
		return domain.ErrStorageUnavailable
	}
	return fn(s.fallback)
}
