package di

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	authadapters "stock_trader/internal/feature/auth/adapters"
	ledgeradapters "stock_trader/internal/feature/ledger/adapters"
	"stock_trader/internal/feature/ledger/usecase"
	"stock_trader/internal/shared/degrade"
	"stock_trader/internal/shared/env"
)

// DefaultInitialBalance は新規口座の初期残高（元）です。
const DefaultInitialBalance = 1000000

// InitialBalance は LEDGER_INITIAL_BALANCE を分単位に丸めて返します。
func InitialBalance() decimal.Decimal {
	return decimal.NewFromFloat(env.Float("LEDGER_INITIAL_BALANCE", DefaultInitialBalance)).Round(2)
}

// NewLedgerStores は DB（nil可）とインメモリ台帳を latch で切り替える Stores を生成します。
// db が nil の場合は起動時点で縮退モードになります。
func NewLedgerStores(db *gorm.DB, latch *degrade.Latch) *usecase.Stores {
	var durable usecase.LedgerStore
	if db != nil {
		durable = ledgeradapters.NewLedgerGorm(db)
	}
	fallback := ledgeradapters.NewLedgerMemory(ledgeradapters.WithAutoProvision(InitialBalance()))
	return usecase.NewStores(durable, fallback, latch)
}

// Models はマイグレーション対象の全モデルです。
// users テーブルは auth と ledger の両方が参照するため auth のモデルで作成します。
func Models() []any {
	return append(authadapters.Models(), ledgeradapters.Models()...)
}
