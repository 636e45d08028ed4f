package usecase

import (
	"context"

	"stock_trader/internal/feature/ledger/domain/entity"
)

// PortfolioUsecase は残高・保有・直近取引をまとめて返す読み取り経路です。
// 取引と同じ Stores を共有するため、縮退後は常にフォールバック台帳から読みます。
type PortfolioUsecase struct {
	stores *Stores
	recent int
}

// NewPortfolioUsecase はPortfolioUsecaseを生成します。
func NewPortfolioUsecase(stores *Stores) *PortfolioUsecase {
	return &PortfolioUsecase{stores: stores, recent: RecentTransactions}
}

// Get はユーザーのポートフォリオを返します。
// 残高・保有・履歴は同じ排他区間で読み取るため、取引の途中状態は見えません。
func (u *PortfolioUsecase) Get(ctx context.Context, userID uint) (*entity.Portfolio, error) {
	var out *entity.Portfolio
	err := u.stores.Do(ctx, "portfolio", func(store LedgerStore) error {
		return store.WithAccount(ctx, userID, func(ctx context.Context, acc Account) error {
			p, err := acc.Portfolio(ctx, u.recent)
			out = p
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Degraded はフォールバック台帳を使用中かを返します。
func (u *PortfolioUsecase) Degraded() bool {
	return u.stores.Degraded()
}
