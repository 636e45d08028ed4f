package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_trader/internal/feature/quotes/domain"
	"stock_trader/internal/feature/quotes/domain/entity"
	"stock_trader/internal/feature/quotes/usecase"
)

func TestFileSnapshotStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "quote_cache.json")
	store := NewFileSnapshotStore(path)

	snap := entity.Snapshot{
		LastCacheTime: time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC),
		Stocks: []entity.Quote{
			{Code: "600000", Name: "浦发银行", Price: 11.8, ChangePct: -0.17},
			{Code: "300750", Name: "宁德时代", Price: 365, ChangePct: 1.62},
		},
	}
	require.NoError(t, store.Save(context.Background(), snap))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.LastCacheTime.Equal(got.LastCacheTime))
	assert.Equal(t, snap.Stocks, got.Stocks)

	// 一時ファイルが残っていないこと
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileSnapshotStore_Overwrite(t *testing.T) {
	t.Parallel()

	store := NewFileSnapshotStore(filepath.Join(t.TempDir(), "quote_cache.json"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, entity.Snapshot{Stocks: []entity.Quote{{Code: "1"}, {Code: "2"}}}))
	require.NoError(t, store.Save(ctx, entity.Snapshot{Stocks: []entity.Quote{{Code: "3"}}}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.Quote{{Code: "3"}}, got.Stocks)
}

func TestFileSnapshotStore_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewFileSnapshotStore(filepath.Join(t.TempDir(), "none.json")).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestFileSnapshotStore_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "quote_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileSnapshotStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestEmbeddedSeed(t *testing.T) {
	t.Parallel()

	quotes, err := NewEmbeddedSeed().Seed()
	require.NoError(t, err)
	require.NotEmpty(t, quotes)

	seen := map[string]bool{}
	for _, q := range quotes {
		assert.Len(t, q.Code, 6, "code %q", q.Code)
		assert.NotEmpty(t, q.Name)
		assert.Positive(t, q.Price)
		assert.False(t, seen[q.Code], "duplicate %s", q.Code)
		seen[q.Code] = true
	}
}

// TestUniverse_SnapshotSurvivesRestart は永続化したスナップショットが再起動後に同じ内容で復元されることを確認します。
func TestUniverse_SnapshotSurvivesRestart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "quote_cache.json")
	pages := [][]entity.Quote{
		{{Code: "600000", Name: "浦发银行", Price: 11.8}, {Code: "000001", Name: "平安银行", Price: 11.45}},
		{},
	}
	source := sourceFunc(func(ctx context.Context, page, size int) ([]entity.Quote, error) {
		if page > len(pages) {
			return nil, nil
		}
		return pages[page-1], nil
	})

	first := usecase.NewUniverse(usecase.Config{PageSize: 2}, source, NewFileSnapshotStore(path), nil, nil)
	require.Equal(t, 2, first.Refresh(context.Background()))

	restarted := usecase.NewUniverse(usecase.Config{}, nil, NewFileSnapshotStore(path), NewEmbeddedSeed(), nil)
	st := restarted.Warm(context.Background())

	assert.Equal(t, entity.SourceSnapshot, st.Source)
	assert.Equal(t, first.All(context.Background()), restarted.All(context.Background()))
}

type sourceFunc func(ctx context.Context, page, size int) ([]entity.Quote, error)

func (f sourceFunc) FetchPage(ctx context.Context, page, size int) ([]entity.Quote, error) {
	return f(ctx, page, size)
}
