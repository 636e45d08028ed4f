package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/feature/ledger/domain/entity"
)

const (
	// RecentTransactions は返却するスナップショットに含める直近取引の件数です。
	RecentTransactions = 20
	// maxShares は1回の取引で受け付ける株数の上限です（float64で正確に表現できる範囲）。
	maxShares = 1 << 50
	// pricePlaces は約定価格を保持する小数桁数です。
	pricePlaces = 4
	// moneyPlaces は金額を丸める小数桁数です。
	moneyPlaces = 2
)

// TradeCommand は売買リクエストです。Price と Shares はクライアントから受け取った値のまま渡されます。
type TradeCommand struct {
	UserID uint
	Code   string
	Name   string
	Type   string
	Price  float64
	Shares float64
}

// trade は検証済みの売買です。
type trade struct {
	userID uint
	code   string
	name   string
	side   entity.TradeType
	price  decimal.Decimal
	shares int64
}

// SettlementUsecase は売買を検証し、残高・保有・取引履歴を1単位で更新します。
type SettlementUsecase struct {
	stores   *Stores
	observer TradeObserver
	now      func() time.Time
	newID    func() (string, error)
	recent   int
}

// NewSettlementUsecase はSettlementUsecaseを生成します。observer が nil の場合は計測しません。
func NewSettlementUsecase(stores *Stores, observer TradeObserver) *SettlementUsecase {
	if observer == nil {
		observer = noopObserver{}
	}
	return &SettlementUsecase{
		stores:   stores,
		observer: observer,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    newTransactionID,
		recent:   RecentTransactions,
	}
}

func newTransactionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Settle は売買を約定させ、約定後のポートフォリオを返します。
//
// 検証順序: 売買種別 → 株数・価格 → 銘柄コード → ユーザーの排他取得。
// いずれかで失敗した場合、台帳は一切変更されません。
func (u *SettlementUsecase) Settle(ctx context.Context, cmd TradeCommand) (*entity.Portfolio, error) {
	t, err := validate(cmd)
	if err != nil {
		side := "unknown"
		if st, ok := entity.ParseTradeType(cmd.Type); ok {
			side = string(st)
		}
		u.observer.ObserveTrade(side, "invalid")
		return nil, err
	}

	// 検証を通過した後はクライアント切断で中断させない
	ctx = context.WithoutCancel(ctx)

	var out *entity.Portfolio
	err = u.stores.Do(ctx, "settle", func(store LedgerStore) error {
		return store.WithAccount(ctx, t.userID, func(ctx context.Context, acc Account) error {
			var err error
			switch t.side {
			case entity.TradeBuy:
				err = u.buy(ctx, acc, t)
			case entity.TradeSell:
				err = u.sell(ctx, acc, t)
			}
			if err != nil {
				return err
			}
			out, err = acc.Portfolio(ctx, u.recent)
			return err
		})
	})

	u.observer.ObserveTrade(string(t.side), resultLabel(err))
	if err != nil {
		if !domain.IsDomain(err) {
			slog.Error("trade settlement failed", "user_id", t.userID, "code", t.code, "type", t.side, "error", err)
		}
		return nil, err
	}

	slog.Info("trade settled", "user_id", t.userID, "code", t.code, "type", t.side,
		"shares", t.shares, "price", t.price.String(), "balance", out.Balance.StringFixed(moneyPlaces))
	return out, nil
}

func (u *SettlementUsecase) buy(ctx context.Context, acc Account, t trade) error {
	holding, err := acc.Holding(ctx, t.code)
	if err != nil {
		return err
	}
	balance, next, err := ApplyBuy(acc.Balance(), holding, t.price, t.shares)
	if err != nil {
		return err
	}
	next.UserID, next.Code, next.Name, next.UpdatedAt = t.userID, t.code, t.name, u.now()

	if err := acc.SetBalance(ctx, balance); err != nil {
		return err
	}
	if err := acc.SaveHolding(ctx, next); err != nil {
		return err
	}
	return u.record(ctx, acc, t)
}

func (u *SettlementUsecase) sell(ctx context.Context, acc Account, t trade) error {
	holding, err := acc.Holding(ctx, t.code)
	if err != nil {
		return err
	}
	balance, remaining, err := ApplySell(acc.Balance(), holding, t.price, t.shares)
	if err != nil {
		return err
	}

	if err := acc.SetBalance(ctx, balance); err != nil {
		return err
	}
	if remaining == nil {
		if err := acc.DeleteHolding(ctx, t.code); err != nil {
			return err
		}
	} else {
		remaining.UpdatedAt = u.now()
		if err := acc.SaveHolding(ctx, *remaining); err != nil {
			return err
		}
	}
	return u.record(ctx, acc, t)
}

func (u *SettlementUsecase) record(ctx context.Context, acc Account, t trade) error {
	id, err := u.newID()
	if err != nil {
		return fmt.Errorf("generate transaction id: %w", err)
	}
	return acc.AppendTransaction(ctx, entity.Transaction{
		ID:          id,
		UserID:      t.userID,
		Code:        t.code,
		Name:        t.name,
		Type:        t.side,
		Price:       t.price,
		Shares:      t.shares,
		TotalAmount: TotalAmount(t.price, t.shares),
		CreatedAt:   u.now(),
	})
}

// validate checks the command in the documented order.
func validate(cmd TradeCommand) (trade, error) {
	side, ok := entity.ParseTradeType(cmd.Type)
	if !ok {
		return trade{}, domain.ErrInvalidType
	}

	s := cmd.Shares
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 || s != math.Trunc(s) || s > maxShares {
		return trade{}, domain.ErrInvalidQuantityOrPrice
	}
	p := cmd.Price
	if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
		return trade{}, domain.ErrInvalidQuantityOrPrice
	}
	price := decimal.NewFromFloat(p).Round(pricePlaces)
	if !price.IsPositive() {
		return trade{}, domain.ErrInvalidQuantityOrPrice
	}

	code := strings.TrimSpace(cmd.Code)
	if code == "" {
		return trade{}, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = code
	}

	return trade{
		userID: cmd.UserID,
		code:   code,
		name:   name,
		side:   side,
		price:  price,
		shares: int64(s),
	}, nil
}

// TotalAmount は price×shares を小数2桁に丸めた約定代金です。
func TotalAmount(price decimal.Decimal, shares int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(shares)).Round(moneyPlaces)
}

// ApplyBuy は買い注文適用後の残高と保有を計算します。
// 既存保有がある場合の平均取得単価は (旧単価×旧株数 + 約定代金) / 新株数 を小数2桁に丸めた値です。
func ApplyBuy(balance decimal.Decimal, current *entity.Holding, price decimal.Decimal, shares int64) (decimal.Decimal, entity.Holding, error) {
	total := TotalAmount(price, shares)
	if balance.LessThan(total) {
		return balance, entity.Holding{}, domain.ErrInsufficientBalance
	}

	if current == nil {
		return balance.Sub(total), entity.Holding{Shares: shares, AvgCost: price}, nil
	}

	next := *current
	next.Shares = current.Shares + shares
	cost := current.AvgCost.Mul(decimal.NewFromInt(current.Shares)).Add(total)
	next.AvgCost = cost.Div(decimal.NewFromInt(next.Shares)).Round(moneyPlaces)
	return balance.Sub(total), next, nil
}

// ApplySell は売り注文適用後の残高と残りの保有を計算します。
// 全株売却の場合は remaining が nil になります。平均取得単価は変わりません。
func ApplySell(balance decimal.Decimal, current *entity.Holding, price decimal.Decimal, shares int64) (decimal.Decimal, *entity.Holding, error) {
	if current == nil || current.Shares < shares {
		return balance, current, domain.ErrInsufficientHolding
	}

	total := TotalAmount(price, shares)
	if current.Shares == shares {
		return balance.Add(total), nil, nil
	}
	next := *current
	next.Shares = current.Shares - shares
	return balance.Add(total), &next, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case domain.IsBusinessRule(err):
		return "rejected"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
