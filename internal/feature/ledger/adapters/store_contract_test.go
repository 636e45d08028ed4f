package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/feature/ledger/domain/entity"
	"stock_trader/internal/feature/ledger/usecase"
	"stock_trader/internal/shared/degrade"
)

const contractUserID uint = 1

var contractInitialBalance = decimal.NewFromInt(1_000_000)

// storeFactory は初期残高 contractInitialBalance のユーザー contractUserID を持つストアを返します。
type storeFactory func(t *testing.T) usecase.LedgerStore

func newEngine(store usecase.LedgerStore) (*usecase.SettlementUsecase, *usecase.PortfolioUsecase) {
	stores := usecase.NewStores(store, nil, degrade.NewLatch())
	return usecase.NewSettlementUsecase(stores, nil), usecase.NewPortfolioUsecase(stores)
}

func trade(side, code string, price float64, shares float64) usecase.TradeCommand {
	return usecase.TradeCommand{UserID: contractUserID, Code: code, Name: code + " Corp", Type: side, Price: price, Shares: shares}
}

// runStoreContract は両方のストア実装が同じ不変条件を満たすことを検証します。
func runStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("weighted average cost on repeated buys", func(t *testing.T) {
		settle, _ := newEngine(newStore(t))

		_, err := settle.Settle(ctx, trade("buy", "600000", 10, 100))
		require.NoError(t, err)
		p, err := settle.Settle(ctx, trade("buy", "600000", 20, 100))
		require.NoError(t, err)

		h, ok := p.Holding("600000")
		require.True(t, ok)
		assert.Equal(t, int64(200), h.Shares)
		assert.Equal(t, "15.00", h.AvgCost.StringFixed(2))
		assert.Equal(t, "997000.00", p.Balance.StringFixed(2))
		assert.Len(t, p.Transactions, 2)
	})

	t.Run("partial sell keeps average cost and full sell removes holding", func(t *testing.T) {
		settle, portfolio := newEngine(newStore(t))

		_, err := settle.Settle(ctx, trade("buy", "000001", 12.5, 300))
		require.NoError(t, err)

		p, err := settle.Settle(ctx, trade("sell", "000001", 15, 100))
		require.NoError(t, err)
		h, ok := p.Holding("000001")
		require.True(t, ok)
		assert.Equal(t, int64(200), h.Shares)
		assert.True(t, h.AvgCost.Equal(decimal.RequireFromString("12.5")), "avg cost changed: %s", h.AvgCost)

		p, err = settle.Settle(ctx, trade("sell", "000001", 9, 200))
		require.NoError(t, err)
		_, ok = p.Holding("000001")
		assert.False(t, ok, "depleted holding must be removed")

		// 1000000 - 3750 + 1500 + 1800
		assert.Equal(t, "999550.00", p.Balance.StringFixed(2))

		reread, err := portfolio.Get(ctx, contractUserID)
		require.NoError(t, err)
		assert.Empty(t, reread.Holdings)
		assert.Len(t, reread.Transactions, 3)
	})

	t.Run("oversell leaves state unchanged", func(t *testing.T) {
		settle, portfolio := newEngine(newStore(t))

		_, err := settle.Settle(ctx, trade("buy", "600519", 100, 10))
		require.NoError(t, err)
		before, err := portfolio.Get(ctx, contractUserID)
		require.NoError(t, err)

		_, err = settle.Settle(ctx, trade("sell", "600519", 100, 11))
		assert.ErrorIs(t, err, domain.ErrInsufficientHolding)

		_, err = settle.Settle(ctx, trade("sell", "300750", 100, 1))
		assert.ErrorIs(t, err, domain.ErrInsufficientHolding)

		after, err := portfolio.Get(ctx, contractUserID)
		require.NoError(t, err)
		assertSameLedger(t, before, after)
	})

	t.Run("overbuy leaves state unchanged", func(t *testing.T) {
		settle, portfolio := newEngine(newStore(t))

		before, err := portfolio.Get(ctx, contractUserID)
		require.NoError(t, err)

		_, err = settle.Settle(ctx, trade("buy", "600519", 1800.01, 1000))
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

		after, err := portfolio.Get(ctx, contractUserID)
		require.NoError(t, err)
		assertSameLedger(t, before, after)
		assert.Empty(t, after.Transactions)
	})

	t.Run("buying the exact balance is allowed", func(t *testing.T) {
		settle, _ := newEngine(newStore(t))

		p, err := settle.Settle(ctx, trade("buy", "600036", 1000, 1000))
		require.NoError(t, err)
		assert.True(t, p.Balance.IsZero(), "balance: %s", p.Balance)
	})

	t.Run("unknown user", func(t *testing.T) {
		settle, portfolio := newEngine(newStore(t))

		cmd := trade("buy", "600000", 10, 1)
		cmd.UserID = 999
		_, err := settle.Settle(ctx, cmd)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = portfolio.Get(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("failed unit is rolled back", func(t *testing.T) {
		store := newStore(t)
		boom := errors.New("boom")

		err := store.WithAccount(ctx, contractUserID, func(ctx context.Context, acc usecase.Account) error {
			require.NoError(t, acc.SetBalance(ctx, decimal.NewFromInt(1)))
			require.NoError(t, acc.SaveHolding(ctx, entity.Holding{Code: "600000", Name: "x", Shares: 5, AvgCost: decimal.NewFromInt(3)}))
			require.NoError(t, acc.AppendTransaction(ctx, entity.Transaction{
				ID: "00000000-0000-7000-8000-000000000001", Code: "600000", Name: "x", Type: entity.TradeBuy,
				Price: decimal.NewFromInt(3), Shares: 5, TotalAmount: decimal.NewFromInt(15),
			}))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, portfolio := newEngine(store)
		p, err := portfolio.Get(ctx, contractUserID)
		require.NoError(t, err)
		assert.True(t, p.Balance.Equal(contractInitialBalance))
		assert.Empty(t, p.Holdings)
		assert.Empty(t, p.Transactions)
	})

	t.Run("recent transactions are newest first and capped", func(t *testing.T) {
		settle, portfolio := newEngine(newStore(t))

		for i := 1; i <= usecase.RecentTransactions+5; i++ {
			_, err := settle.Settle(ctx, trade("buy", fmt.Sprintf("%06d", i), 1, 1))
			require.NoError(t, err)
		}

		p, err := portfolio.Get(ctx, contractUserID)
		require.NoError(t, err)
		require.Len(t, p.Transactions, usecase.RecentTransactions)
		assert.Equal(t, fmt.Sprintf("%06d", usecase.RecentTransactions+5), p.Transactions[0].Code)
		assert.Equal(t, "000006", p.Transactions[len(p.Transactions)-1].Code)
		assert.Len(t, p.Holdings, usecase.RecentTransactions+5)
	})

	t.Run("concurrent buys for one user never interleave", func(t *testing.T) {
		settle, portfolio := newEngine(newStore(t))

		const n = 20
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := settle.Settle(ctx, trade("buy", "601318", 10, 100))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		p, err := portfolio.Get(ctx, contractUserID)
		require.NoError(t, err)
		h, ok := p.Holding("601318")
		require.True(t, ok)
		assert.Equal(t, int64(n*100), h.Shares)
		assert.Len(t, p.Transactions, n)
		assert.Equal(t, "980000.00", p.Balance.StringFixed(2))
	})
}

func assertSameLedger(t *testing.T, before, after *entity.Portfolio) {
	t.Helper()
	assert.True(t, before.Balance.Equal(after.Balance), "balance %s != %s", before.Balance, after.Balance)
	require.Equal(t, len(before.Holdings), len(after.Holdings))
	for i := range before.Holdings {
		assert.Equal(t, before.Holdings[i].Code, after.Holdings[i].Code)
		assert.Equal(t, before.Holdings[i].Shares, after.Holdings[i].Shares)
		assert.True(t, before.Holdings[i].AvgCost.Equal(after.Holdings[i].AvgCost))
	}
	assert.Equal(t, len(before.Transactions), len(after.Transactions))
}
