// Package usecase implements the quote cache and the quote-by-code lookup.
package usecase

import (
	"context"
	"time"

	"stock_trader/internal/feature/quotes/domain/entity"
)

// UniverseSource pages through every listed security.
// An empty page means the listing is exhausted.
type UniverseSource interface {
	FetchPage(ctx context.Context, page, pageSize int) ([]entity.Quote, error)
}

// BatchQuoteSource returns quotes for several codes in one call.
// Codes unknown to the source are simply absent from the result.
type BatchQuoteSource interface {
	Quotes(ctx context.Context, codes []string) ([]entity.Quote, error)
}

// SingleQuoteSource returns the quote for one code.
type SingleQuoteSource interface {
	Quote(ctx context.Context, code string) (*entity.Quote, error)
}

// SnapshotStore persists the universe between restarts.
// Load returns domain.ErrSnapshotNotFound when nothing has been saved.
type SnapshotStore interface {
	Load(ctx context.Context) (*entity.Snapshot, error)
	Save(ctx context.Context, snap entity.Snapshot) error
}

// SeedSource provides the universe bundled with the binary.
type SeedSource interface {
	Seed() ([]entity.Quote, error)
}

// RefreshObserver records refresh outcomes (metrics).
type RefreshObserver interface {
	ObserveRefresh(outcome string, elapsed time.Duration, size int)
}

type noopObserver struct{}

func (noopObserver) ObserveRefresh(string, time.Duration, int) {}
