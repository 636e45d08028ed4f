package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/feature/ledger/domain/entity"
	"stock_trader/internal/shared/degrade"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	base := TradeCommand{UserID: 1, Code: "600000", Name: "浦发银行", Type: "buy", Price: 10, Shares: 100}
	with := func(mod func(c *TradeCommand)) TradeCommand {
		c := base
		mod(&c)
		return c
	}

	tests := []struct {
		name    string
		cmd     TradeCommand
		wantErr error
	}{
		{"valid buy", base, nil},
		{"valid sell", with(func(c *TradeCommand) { c.Type = "sell" }), nil},
		{"uppercase type", with(func(c *TradeCommand) { c.Type = "BUY" }), domain.ErrInvalidType},
		{"empty type", with(func(c *TradeCommand) { c.Type = "" }), domain.ErrInvalidType},
		{"type checked before shares", with(func(c *TradeCommand) { c.Type = "hold"; c.Shares = -1 }), domain.ErrInvalidType},
		{"fractional shares", with(func(c *TradeCommand) { c.Shares = 1.5 }), domain.ErrInvalidQuantityOrPrice},
		{"zero shares", with(func(c *TradeCommand) { c.Shares = 0 }), domain.ErrInvalidQuantityOrPrice},
		{"negative shares", with(func(c *TradeCommand) { c.Shares = -10 }), domain.ErrInvalidQuantityOrPrice},
		{"NaN shares", with(func(c *TradeCommand) { c.Shares = math.NaN() }), domain.ErrInvalidQuantityOrPrice},
		{"huge shares", with(func(c *TradeCommand) { c.Shares = 1e18 }), domain.ErrInvalidQuantityOrPrice},
		{"zero price", with(func(c *TradeCommand) { c.Price = 0 }), domain.ErrInvalidQuantityOrPrice},
		{"negative price", with(func(c *TradeCommand) { c.Price = -3 }), domain.ErrInvalidQuantityOrPrice},
		{"infinite price", with(func(c *TradeCommand) { c.Price = math.Inf(1) }), domain.ErrInvalidQuantityOrPrice},
		{"price rounds to zero", with(func(c *TradeCommand) { c.Price = 0.00001 }), domain.ErrInvalidQuantityOrPrice},
		{"shares checked before code", with(func(c *TradeCommand) { c.Shares = 0; c.Code = "" }), domain.ErrInvalidQuantityOrPrice},
		{"empty code", with(func(c *TradeCommand) { c.Code = "" }), domain.ErrInvalidCode},
		{"blank code", with(func(c *TradeCommand) { c.Code = "   " }), domain.ErrInvalidCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := validate(tt.cmd)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_Normalizes(t *testing.T) {
	t.Parallel()

	tr, err := validate(TradeCommand{UserID: 3, Code: " 000001 ", Type: "sell", Price: 12.345678, Shares: 7})
	require.NoError(t, err)
	assert.Equal(t, "000001", tr.code)
	assert.Equal(t, "000001", tr.name, "name falls back to the code")
	assert.Equal(t, "12.3457", tr.price.String())
	assert.Equal(t, int64(7), tr.shares)
	assert.Equal(t, entity.TradeSell, tr.side)
}

func TestApplyBuy(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString

	tests := []struct {
		name        string
		balance     string
		current     *entity.Holding
		price       string
		shares      int64
		wantBalance string
		wantShares  int64
		wantAvg     string
		wantErr     error
	}{
		{"new position", "1000", nil, "10", 50, "500", 50, "10", nil},
		{"weighted average", "10000", &entity.Holding{Shares: 100, AvgCost: d("10")}, "20", 100, "8000", 200, "15", nil},
		{"average rounds to cents", "10000", &entity.Holding{Shares: 3, AvgCost: d("1")}, "2", 3, "9994", 6, "1.5", nil},
		{"average rounding half up", "10000", &entity.Holding{Shares: 2, AvgCost: d("1")}, "1.01", 1, "9998.99", 3, "1", nil},
		{"exact balance", "500", nil, "5", 100, "0", 100, "5", nil},
		{"total rounded before comparing", "3.33", nil, "0.3333", 10, "0", 10, "0.3333", nil},
		{"insufficient", "499.99", nil, "5", 100, "499.99", 0, "0", domain.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			balance, next, err := ApplyBuy(d(tt.balance), tt.current, d(tt.price), tt.shares)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, balance.Equal(d(tt.balance)), "balance must be unchanged")
				return
			}
			require.NoError(t, err)
			assert.True(t, balance.Equal(d(tt.wantBalance)), "balance %s", balance)
			assert.Equal(t, tt.wantShares, next.Shares)
			assert.True(t, next.AvgCost.Equal(d(tt.wantAvg)), "avg cost %s", next.AvgCost)
		})
	}
}

func TestApplySell(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString
	held := &entity.Holding{Code: "600000", Shares: 100, AvgCost: d("12.34")}

	balance, remaining, err := ApplySell(d("0"), held, d("15"), 40)
	require.NoError(t, err)
	assert.Equal(t, "600", balance.String())
	require.NotNil(t, remaining)
	assert.Equal(t, int64(60), remaining.Shares)
	assert.True(t, remaining.AvgCost.Equal(d("12.34")))
	assert.Equal(t, int64(100), held.Shares, "input must not be mutated")

	balance, remaining, err = ApplySell(d("10"), held, d("1"), 100)
	require.NoError(t, err)
	assert.Equal(t, "110", balance.String())
	assert.Nil(t, remaining)

	_, _, err = ApplySell(d("10"), held, d("1"), 101)
	assert.ErrorIs(t, err, domain.ErrInsufficientHolding)

	_, _, err = ApplySell(d("10"), nil, d("1"), 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientHolding)
}

func newTestSettlement(store LedgerStore, obs TradeObserver) *SettlementUsecase {
	u := NewSettlementUsecase(NewStores(store, nil, degrade.NewLatch()), obs)
	fixed := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)
	u.now = func() time.Time { return fixed }
	return u
}

func TestSettle_InvalidTradeNeverTouchesStore(t *testing.T) {
	t.Parallel()

	store := &mockLedgerStore{}
	obs := &mockObserver{}
	u := newTestSettlement(store, obs)

	_, err := u.Settle(context.Background(), TradeCommand{UserID: 1, Code: "600000", Type: "short", Price: 1, Shares: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidType)

	_, err = u.Settle(context.Background(), TradeCommand{UserID: 1, Code: "600000", Type: "sell", Price: 1, Shares: 0.5})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantityOrPrice)

	assert.Zero(t, store.calls)
	assert.Equal(t, [][2]string{{"unknown", "invalid"}, {"sell", "invalid"}}, obs.calls)
}

func TestSettle_RecordsTransaction(t *testing.T) {
	t.Parallel()

	store := newFakeStore(map[uint]decimal.Decimal{1: decimal.NewFromInt(10_000)})
	obs := &mockObserver{}
	u := newTestSettlement(store, obs)

	p, err := u.Settle(context.Background(), TradeCommand{UserID: 1, Code: "600000", Name: "浦发银行", Type: "buy", Price: 8.88, Shares: 100})
	require.NoError(t, err)

	assert.Equal(t, "9112.00", p.Balance.StringFixed(2))
	require.Len(t, p.Transactions, 1)
	tx := p.Transactions[0]
	assert.Len(t, tx.ID, 36)
	assert.Equal(t, entity.TradeBuy, tx.Type)
	assert.Equal(t, "888", tx.TotalAmount.String())
	assert.Equal(t, "浦发银行", tx.Name)
	assert.Equal(t, time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC), tx.CreatedAt)
	assert.Equal(t, [][2]string{{"buy", "ok"}}, obs.calls)
}

func TestSettle_ResultLabels(t *testing.T) {
	t.Parallel()

	store := newFakeStore(map[uint]decimal.Decimal{1: decimal.NewFromInt(100)})
	obs := &mockObserver{}
	u := newTestSettlement(store, obs)
	ctx := context.Background()

	_, err := u.Settle(ctx, TradeCommand{UserID: 1, Code: "600000", Type: "buy", Price: 101, Shares: 1})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	_, err = u.Settle(ctx, TradeCommand{UserID: 1, Code: "600000", Type: "sell", Price: 1, Shares: 1})
	assert.ErrorIs(t, err, domain.ErrInsufficientHolding)
	_, err = u.Settle(ctx, TradeCommand{UserID: 2, Code: "600000", Type: "buy", Price: 1, Shares: 1})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.Equal(t, [][2]string{{"buy", "rejected"}, {"sell", "rejected"}, {"buy", "not_found"}}, obs.calls)
}

func TestSettle_IgnoresCancellationAfterValidation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &mockLedgerStore{
		WithAccountFunc: func(ctx context.Context, userID uint, fn func(ctx context.Context, acc Account) error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fn(ctx, &fakeAccount{userID: userID, balance: decimal.NewFromInt(100), holdings: map[string]entity.Holding{}})
		},
	}
	u := newTestSettlement(store, nil)

	p, err := u.Settle(ctx, TradeCommand{UserID: 1, Code: "600000", Type: "buy", Price: 1, Shares: 10})
	require.NoError(t, err)
	assert.Equal(t, "90", p.Balance.String())
}

func TestSettle_IDGenerationFailureAborts(t *testing.T) {
	t.Parallel()

	store := newFakeStore(map[uint]decimal.Decimal{1: decimal.NewFromInt(100)})
	u := newTestSettlement(store, nil)
	u.newID = func() (string, error) { return "", errors.New("entropy exhausted") }

	_, err := u.Settle(context.Background(), TradeCommand{UserID: 1, Code: "600000", Type: "buy", Price: 1, Shares: 10})
	require.Error(t, err)
	assert.True(t, store.balances[1].Equal(decimal.NewFromInt(100)), "balance must be rolled back")
	assert.Empty(t, store.holdings[1])
}

// TestSettle_LedgerInvariants は任意の売買列に対して残高と保有が約定履歴と一致することを確認します。
func TestSettle_LedgerInvariants(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		initial := decimal.NewFromInt(int64(rapid.IntRange(0, 100_000).Draw(rt, "initial")))
		store := newFakeStore(map[uint]decimal.Decimal{1: initial})
		u := NewSettlementUsecase(NewStores(store, nil, degrade.NewLatch()), nil)
		codes := []string{"600000", "000001", "300750"}

		expected := initial
		shares := map[string]int64{}

		n := rapid.IntRange(1, 40).Draw(rt, "n")
		for i := 0; i < n; i++ {
			side := rapid.SampledFrom([]string{"buy", "sell"}).Draw(rt, "side")
			code := rapid.SampledFrom(codes).Draw(rt, "code")
			cents := rapid.IntRange(1, 100_000).Draw(rt, "cents")
			qty := rapid.IntRange(1, 500).Draw(rt, "qty")
			price := float64(cents) / 100

			_, err := u.Settle(context.Background(), TradeCommand{UserID: 1, Code: code, Type: side, Price: price, Shares: float64(qty)})
			total := TotalAmount(decimal.NewFromFloat(price).Round(pricePlaces), int64(qty))

			switch {
			case err == nil && side == "buy":
				expected = expected.Sub(total)
				shares[code] += int64(qty)
			case err == nil && side == "sell":
				expected = expected.Add(total)
				shares[code] -= int64(qty)
			case errors.Is(err, domain.ErrInsufficientBalance):
				if !expected.LessThan(total) {
					rt.Fatalf("buy of %s rejected with balance %s", total, expected)
				}
			case errors.Is(err, domain.ErrInsufficientHolding):
				if shares[code] >= int64(qty) {
					rt.Fatalf("sell of %d rejected while holding %d", qty, shares[code])
				}
			default:
				rt.Fatalf("unexpected error: %v", err)
			}

			got := store.balances[1]
			if !got.Equal(expected) {
				rt.Fatalf("balance = %s, want %s", got, expected)
			}
			if got.IsNegative() {
				rt.Fatalf("negative balance %s", got)
			}
			for _, c := range codes {
				h, ok := store.holdings[1][c]
				switch {
				case shares[c] == 0 && ok:
					rt.Fatalf("%s: zero-share holding stored", c)
				case shares[c] > 0 && (!ok || h.Shares != shares[c]):
					rt.Fatalf("%s: holding %+v, want %d shares", c, h, shares[c])
				}
			}
		}
	})
}

func TestResultLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ok", resultLabel(nil))
	assert.Equal(t, "rejected", resultLabel(domain.ErrInsufficientHolding))
	assert.Equal(t, "not_found", resultLabel(domain.ErrUserNotFound))
	assert.Equal(t, "unavailable", resultLabel(fmt.Errorf("%w: dial", domain.ErrStorageUnavailable)))
	assert.Equal(t, "error", resultLabel(errors.New("boom")))
}
