// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"github.com/redis/go-redis/v9"

	quoteadapters "stock_trader/internal/feature/quotes/adapters"
	quoteusecase "stock_trader/internal/feature/quotes/usecase"
	"stock_trader/internal/platform/cache"
	"stock_trader/internal/platform/externalapi/eastmoney"
	"stock_trader/internal/platform/externalapi/twelvedata"
	infrahttp "stock_trader/internal/platform/http"
	"stock_trader/internal/shared/env"
)

// Market はクォート関連のコンポーネント一式です。
type Market struct {
	Universe  *quoteusecase.Universe
	Quotes    *quoteusecase.QuoteUsecase
	Snapshots *quoteadapters.FileSnapshotStore
}

// NewMarket creates the quote universe and the quote-by-code usecase.
//
// Eastmoney serves both the paged listing and batch lookups (cached in Redis when rdb is non-nil).
// Twelve Data is used for single-code lookups only when an API key is configured.
func NewMarket(rdb *redis.Client, observer quoteusecase.RefreshObserver) *Market {
	emCfg := eastmoney.LoadConfig()
	em := eastmoney.NewClient(emCfg, infrahttp.NewHTTPClient(emCfg.Timeout), nil)

	snapshots := quoteadapters.NewFileSnapshotStore(quoteadapters.SnapshotPathFromEnv())
	universe := quoteusecase.NewUniverse(quoteusecase.LoadConfig(), em, snapshots, quoteadapters.NewEmbeddedSeed(), observer)

	primary := cache.NewCachingQuoteSource(rdb, env.Duration("QUOTE_CACHE_TTL", 30*time.Second), em, "quotes")

	var secondary quoteusecase.SingleQuoteSource
	if tdCfg := twelvedata.LoadConfig(); tdCfg.Enabled() {
		secondary = twelvedata.NewTwelveDataQuotes(tdCfg, infrahttp.NewHTTPClient(tdCfg.Timeout))
	}

	return &Market{
		Universe:  universe,
		Quotes:    quoteusecase.NewQuoteUsecase(universe, primary, secondary),
		Snapshots: snapshots,
	}
}
