package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_trader/internal/feature/ledger/domain"
	"stock_trader/internal/feature/ledger/domain/entity"
	"stock_trader/internal/feature/ledger/usecase"
	"stock_trader/internal/platform/db"
)

// ledgerGorm はLedgerStoreのGORM実装です。
// ユーザー行を SELECT ... FOR UPDATE でロックし、同一ユーザーの取引を直列化します。
type ledgerGorm struct {
	db *gorm.DB
}

// ledgerGormがLedgerStoreを実装していることをコンパイル時に検証します。
var _ usecase.LedgerStore = (*ledgerGorm)(nil)

// NewLedgerGorm は指定されたgorm.DB接続でledgerGormを生成します。
func NewLedgerGorm(db *gorm.DB) *ledgerGorm {
	return &ledgerGorm{db: db}
}

// WithAccount はトランザクション内でユーザー行をロックし、fn を実行します。
// fn がエラーを返した場合はロールバックされます。
func (s *ledgerGorm) WithAccount(ctx context.Context, userID uint, fn func(ctx context.Context, acc usecase.Account) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acc AccountModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "balance").
			Where("id = ?", userID).
			Take(&acc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return fn(ctx, &gormAccount{tx: tx, userID: userID, balance: acc.Balance})
	})
	return classify(err)
}

// classify はドライバのエラーを台帳のエラー分類に変換します。
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsDomain(err):
		return err
	case db.IsUnavailable(err):
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	default:
		return fmt.Errorf("ledger store: %w", err)
	}
}

// gormAccount はロック済みユーザーに対する操作です。
type gormAccount struct {
	tx      *gorm.DB
	userID  uint
	balance decimal.Decimal
}

func (a *gormAccount) Balance() decimal.Decimal {
	return a.balance
}

func (a *gormAccount) Holding(ctx context.Context, code string) (*entity.Holding, error) {
	var m HoldingModel
	err := a.tx.WithContext(ctx).Where("user_id = ? AND code = ?", a.userID, code).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h := m.toEntity()
	return &h, nil
}

func (a *gormAccount) SetBalance(ctx context.Context, balance decimal.Decimal) error {
	err := a.tx.WithContext(ctx).Model(&AccountModel{}).
		Where("id = ?", a.userID).
		Update("balance", balance).Error
	if err != nil {
		return err
	}
	a.balance = balance
	return nil
}

func (a *gormAccount) SaveHolding(ctx context.Context, h entity.Holding) error {
	m := holdingFromEntity(h)
	m.UserID = a.userID
	return a.tx.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "shares", "avg_cost", "updated_at"}),
	}).Create(&m).Error
}

func (a *gormAccount) DeleteHolding(ctx context.Context, code string) error {
	return a.tx.WithContext(ctx).
		Where("user_id = ? AND code = ?", a.userID, code).
		Delete(&HoldingModel{}).Error
}

func (a *gormAccount) AppendTransaction(ctx context.Context, t entity.Transaction) error {
	m := transactionFromEntity(t)
	m.UserID = a.userID
	return a.tx.WithContext(ctx).Omit(clause.Associations).Create(&m).Error
}

func (a *gormAccount) Portfolio(ctx context.Context, recent int) (*entity.Portfolio, error) {
	var holdings []HoldingModel
	if err := a.tx.WithContext(ctx).
		Where("user_id = ?", a.userID).
		Order("code ASC").
		Find(&holdings).Error; err != nil {
		return nil, err
	}

	var txs []TransactionModel
	q := a.tx.WithContext(ctx).
		Where("user_id = ?", a.userID).
		Order("created_at DESC").
		Order("id DESC")
	if recent > 0 {
		q = q.Limit(recent)
	}
	if err := q.Find(&txs).Error; err != nil {
		return nil, err
	}

	p := &entity.Portfolio{
		UserID:       a.userID,
		Balance:      a.balance,
		Holdings:     make([]entity.Holding, 0, len(holdings)),
		Transactions: make([]entity.Transaction, 0, len(txs)),
	}
	for _, m := range holdings {
		p.Holdings = append(p.Holdings, m.toEntity())
	}
	for _, m := range txs {
		p.Transactions = append(p.Transactions, m.toEntity())
	}
	return p, nil
}
