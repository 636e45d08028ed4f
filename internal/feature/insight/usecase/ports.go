package usecase

import (
	"context"

	authentity "stock_trader/internal/feature/auth/domain/entity"
	ledgerentity "stock_trader/internal/feature/ledger/domain/entity"
	quoteentity "stock_trader/internal/feature/quotes/domain/entity"
)

// Generator はプロンプトからテキストを生成するAIクライアントです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// QuoteReader は銘柄コードから現在値を取得します。
type QuoteReader interface {
	GetQuotes(ctx context.Context, codes []string) ([]quoteentity.Quote, error)
}

// PortfolioReader はユーザーのポートフォリオを取得します。
type PortfolioReader interface {
	Get(ctx context.Context, userID uint) (*ledgerentity.Portfolio, error)
}

// ProfileReader はユーザー情報（リスク許容度）を取得します。
type ProfileReader interface {
	Me(ctx context.Context, userID uint) (*authentity.User, error)
}
