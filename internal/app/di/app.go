package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"stock_trader/internal/app/router"
	authhandler "stock_trader/internal/feature/auth/transport/handler"
	authusecase "stock_trader/internal/feature/auth/usecase"
	"stock_trader/internal/feature/insight/adapters/gemini"
	insighthandler "stock_trader/internal/feature/insight/transport/handler"
	insightusecase "stock_trader/internal/feature/insight/usecase"
	ledgerhandler "stock_trader/internal/feature/ledger/transport/handler"
	ledgerusecase "stock_trader/internal/feature/ledger/usecase"
	quotehandler "stock_trader/internal/feature/quotes/transport/handler"
	platformhandler "stock_trader/internal/platform/http/handler"
	jwtmw "stock_trader/internal/platform/jwt"
	"stock_trader/internal/platform/metrics"
	"stock_trader/internal/shared/degrade"
)

// App はアプリケーション全体のコンポーネントです。
type App struct {
	Latch    *degrade.Latch
	Metrics  *metrics.Metrics
	Market   *Market
	Auth     *authusecase.AuthUsecase
	Ledger   *ledgerusecase.SettlementUsecase
	Verifier *jwtmw.Verifier
	Handlers router.Handlers
}

// NewApp は全コンポーネントを組み立てます。
// db が nil の場合は台帳・ユーザー・セッションがインメモリで動作し、rdb が nil の場合はRedisを使いません。
func NewApp(ctx context.Context, db *gorm.DB, rdb *redis.Client, latch *degrade.Latch) *App {
	if latch == nil {
		latch = degrade.NewLatch()
	}
	m := metrics.New(latch.Tripped)

	// クォート
	market := NewMarket(rdb, m)

	// 台帳
	stores := NewLedgerStores(db, latch)
	settlement := ledgerusecase.NewSettlementUsecase(stores, m)
	portfolio := ledgerusecase.NewPortfolioUsecase(stores)

	// 認証
	jwtCfg := jwtmw.LoadConfig()
	if jwtCfg.Secret == "" {
		slog.Warn("JWT_SECRET is not set. Set a strong secret in production.")
	}
	auth := authusecase.NewAuthUsecase(
		NewUserRepository(db, latch),
		NewSessionRepository(rdb, db, latch),
		jwtmw.NewGenerator(jwtCfg.Secret, jwtCfg.AccessTTL),
		authusecase.Config{
			AccessTTL:      jwtCfg.AccessTTL,
			RefreshTTL:     jwtCfg.RefreshTTL,
			MaxSessions:    authusecase.DefaultMaxSessions,
			InitialBalance: InitialBalance(),
		},
	)

	// AI分析
	insight := insightusecase.NewInsightUsecase(NewInsightGenerator(ctx), market.Quotes, portfolio, auth, insightusecase.LoadConfig())

	verifier := jwtmw.NewVerifier(jwtCfg.Secret)
	return &App{
		Latch:    latch,
		Metrics:  m,
		Market:   market,
		Auth:     auth,
		Ledger:   settlement,
		Verifier: verifier,
		Handlers: router.Handlers{
			Auth:    authhandler.NewAuthHandler(auth),
			Ledger:  ledgerhandler.NewLedgerHandler(settlement, portfolio),
			Quotes:  quotehandler.NewQuoteHandler(market.Quotes),
			Insight: insighthandler.NewInsightHandler(insight),
			Health:  platformhandler.NewHealthHandler(latch),
		},
	}
}

// NewInsightGenerator はGeminiクライアントを生成します。認証情報がない場合は nil（代替テキストのみ）を返します。
func NewInsightGenerator(ctx context.Context) insightusecase.Generator {
	g, err := gemini.NewGeminiGenerator(ctx, gemini.LoadConfig())
	if errors.Is(err, gemini.ErrDisabled) {
		slog.Info("insight generator disabled: no Gemini credentials configured")
		return nil
	}
	if err != nil {
		slog.Warn("insight generator unavailable", "error", err)
		return nil
	}
	return g
}

// Router はルーターを生成します。
func (a *App) Router() *gin.Engine {
	return router.NewRouter(router.LoadConfig(), a.Handlers, a.Verifier, a.Metrics)
}
