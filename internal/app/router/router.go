// Package router はHTTPルーティングとミドルウェアの組み立てを行います。
package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authhandler "stock_trader/internal/feature/auth/transport/handler"
	insighthandler "stock_trader/internal/feature/insight/transport/handler"
	ledgerhandler "stock_trader/internal/feature/ledger/transport/handler"
	quotehandler "stock_trader/internal/feature/quotes/transport/handler"
	platformhandler "stock_trader/internal/platform/http/handler"
	jwtmw "stock_trader/internal/platform/jwt"
	"stock_trader/internal/platform/metrics"
	"stock_trader/internal/shared/env"
	"stock_trader/internal/shared/ratelimiter"
)

// Config はルーター全体の設定です。
type Config struct {
	// AllowedOrigins が空、または "*" を含む場合は全オリジンを許可します。
	AllowedOrigins []string
	TradeRPS       float64
	TradeBurst     int
}

// LoadConfig は環境変数からルーター設定を読み込みます。
func LoadConfig() Config {
	return Config{
		AllowedOrigins: env.List("CORS_ALLOWED_ORIGINS"),
		TradeRPS:       env.Float("TRADE_RATE_LIMIT_RPS", 5),
		TradeBurst:     env.Int("TRADE_RATE_LIMIT_BURST", 10),
	}
}

// Handlers はルーターに登録するハンドラー一式です。
type Handlers struct {
	Auth    *authhandler.AuthHandler
	Ledger  *ledgerhandler.LedgerHandler
	Quotes  *quotehandler.QuoteHandler
	Insight *insighthandler.InsightHandler
	Health  *platformhandler.HealthHandler
}

// NewRouter はすべてのルートを登録したGinエンジンを返します。m が nil の場合はメトリクスを無効にします。
func NewRouter(cfg Config, h Handlers, verifier *jwtmw.Verifier, m *metrics.Metrics) *gin.Engine {
	r := gin.Default()
	r.Use(newCORS(cfg.AllowedOrigins))
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// 認証不要
	// 導通確認用
	for _, path := range []string{"/health", "/healthz"} {
		r.GET(path, h.Health.Health)
		r.HEAD(path, h.Health.Health)
		r.OPTIONS(path, h.Health.Health)
	}
	// 新規ユーザー登録
	r.POST("/signup", h.Auth.Signup)
	// ログイン（JWT 発行）
	r.POST("/login", h.Auth.Login)
	// トークン更新・ログアウト（リフレッシュトークンで識別）
	r.POST("/refresh", h.Auth.Refresh)
	r.POST("/logout", h.Auth.Logout)
	// 価格参照
	r.GET("/quotes", h.Quotes.GetQuotes)
	r.GET("/quotes/list", h.Quotes.List)
	r.GET("/quotes/status", h.Quotes.Status)

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(verifier))
	{
		auth.GET("/me", h.Auth.Me)
		auth.PUT("/me/risk-profile", h.Auth.UpdateRiskProfile)

		// 売買はユーザー単位でレート制限する
		limiter := ratelimiter.NewClientLimiter(cfg.TradeRPS, cfg.TradeBurst)
		auth.POST("/trade", limiter.Middleware(jwtmw.UserKey), h.Ledger.Trade)
		auth.GET("/portfolio", h.Ledger.Portfolio)

		auth.POST("/quotes/refresh", h.Quotes.Refresh)

		auth.GET("/insights/stocks/:code", h.Insight.Stock)
		auth.GET("/insights/portfolio", h.Insight.Portfolio)
	}

	return r
}

func newCORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions, http.MethodHead},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
