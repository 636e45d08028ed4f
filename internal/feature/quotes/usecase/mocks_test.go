package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"stock_trader/internal/feature/quotes/domain"
	"stock_trader/internal/feature/quotes/domain/entity"
)

// mockUniverseSource is a mock implementation of UniverseSource.
type mockUniverseSource struct {
	FetchPageFunc func(ctx context.Context, page, pageSize int) ([]entity.Quote, error)
	calls         atomic.Int32
}

func (m *mockUniverseSource) FetchPage(ctx context.Context, page, pageSize int) ([]entity.Quote, error) {
	if page == 1 {
		m.calls.Add(1)
	}
	if m.FetchPageFunc != nil {
		return m.FetchPageFunc(ctx, page, pageSize)
	}
	return nil, nil
}

// pagesOf returns a source serving the given pages followed by an empty page.
func pagesOf(pages ...[]entity.Quote) *mockUniverseSource {
	return &mockUniverseSource{FetchPageFunc: func(ctx context.Context, page, pageSize int) ([]entity.Quote, error) {
		if page > len(pages) {
			return nil, nil
		}
		return pages[page-1], nil
	}}
}

// memorySnapshots is an in-memory SnapshotStore.
type memorySnapshots struct {
	mu    sync.Mutex
	snap  *entity.Snapshot
	saves int
}

func (m *memorySnapshots) Load(context.Context) (*entity.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	cp := *m.snap
	return &cp, nil
}

func (m *memorySnapshots) Save(_ context.Context, snap entity.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = &snap
	m.saves++
	return nil
}

type seedFunc func() ([]entity.Quote, error)

func (f seedFunc) Seed() ([]entity.Quote, error) { return f() }

// mockBatchSource is a mock implementation of BatchQuoteSource.
type mockBatchSource struct {
	QuotesFunc func(ctx context.Context, codes []string) ([]entity.Quote, error)
}

func (m *mockBatchSource) Quotes(ctx context.Context, codes []string) ([]entity.Quote, error) {
	return m.QuotesFunc(ctx, codes)
}

// mockSingleSource is a mock implementation of SingleQuoteSource.
type mockSingleSource struct {
	QuoteFunc func(ctx context.Context, code string) (*entity.Quote, error)
	calls     atomic.Int32
}

func (m *mockSingleSource) Quote(ctx context.Context, code string) (*entity.Quote, error) {
	m.calls.Add(1)
	return m.QuoteFunc(ctx, code)
}

// recordingObserver records ObserveRefresh outcomes.
type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveRefresh(outcome string, _ time.Duration, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func quotes(codes ...string) []entity.Quote {
	out := make([]entity.Quote, 0, len(codes))
	for _, c := range codes {
		out = append(out, entity.Quote{Code: c, Name: "name-" + c, Price: 10})
	}
	return out
}

func codesOf(qs []entity.Quote) []string {
	out := make([]string, 0, len(qs))
	for _, q := range qs {
		out = append(out, q.Code)
	}
	return out
}
