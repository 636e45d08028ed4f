// Package adapters provides the durable (gorm) and in-memory ledger stores.
package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"stock_trader/internal/feature/ledger/domain/entity"
)

// AccountModel は users テーブルのうち台帳が扱う列だけを写したモデルです。
// 列定義は auth の UserModel と一致させています（AutoMigrate で差分が出ないように）。
type AccountModel struct {
	ID      uint            `gorm:"primaryKey"`
	Balance decimal.Decimal `gorm:"type:numeric(18,2);not null;default:1000000"`
}

// TableName returns the table name for GORM.
func (AccountModel) TableName() string {
	return "users"
}

// HoldingModel is the GORM model for the holdings table.
type HoldingModel struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"not null;uniqueIndex:idx_holdings_user_code,priority:1"`
	Code      string          `gorm:"size:16;not null;uniqueIndex:idx_holdings_user_code,priority:2"`
	Name      string          `gorm:"size:64;not null"`
	Shares    int64           `gorm:"not null;check:chk_holdings_shares,shares > 0"`
	AvgCost   decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	UpdatedAt time.Time       `gorm:"not null"`

	User AccountModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (HoldingModel) TableName() string {
	return "holdings"
}

// TransactionModel is the GORM model for the append-only transactions table.
type TransactionModel struct {
	ID          string          `gorm:"primaryKey;size:36"`
	UserID      uint            `gorm:"not null;index:idx_transactions_user_created,priority:1"`
	Code        string          `gorm:"size:16;not null"`
	Name        string          `gorm:"size:64;not null"`
	Type        string          `gorm:"size:4;not null"`
	Price       decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	Shares      int64           `gorm:"not null"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(18,2);not null"`
	CreatedAt   time.Time       `gorm:"not null;index:idx_transactions_user_created,priority:2"`

	User AccountModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM.
func (TransactionModel) TableName() string {
	return "transactions"
}

// Models は台帳が所有するテーブルのモデル一覧です（マイグレーション用）。
func Models() []any {
	return []any{&HoldingModel{}, &TransactionModel{}}
}

func holdingFromEntity(h entity.Holding) HoldingModel {
	return HoldingModel{
		UserID:    h.UserID,
		Code:      h.Code,
		Name:      h.Name,
		Shares:    h.Shares,
		AvgCost:   h.AvgCost,
		UpdatedAt: h.UpdatedAt,
	}
}

func (m HoldingModel) toEntity() entity.Holding {
	return entity.Holding{
		UserID:    m.UserID,
		Code:      m.Code,
		Name:      m.Name,
		Shares:    m.Shares,
		AvgCost:   m.AvgCost,
		UpdatedAt: m.UpdatedAt,
	}
}

func transactionFromEntity(t entity.Transaction) TransactionModel {
	return TransactionModel{
		ID:          t.ID,
		UserID:      t.UserID,
		Code:        t.Code,
		Name:        t.Name,
		Type:        string(t.Type),
		Price:       t.Price,
		Shares:      t.Shares,
		TotalAmount: t.TotalAmount,
		CreatedAt:   t.CreatedAt,
	}
}

func (m TransactionModel) toEntity() entity.Transaction {
	return entity.Transaction{
		ID:          m.ID,
		UserID:      m.UserID,
		Code:        m.Code,
		Name:        m.Name,
		Type:        entity.TradeType(m.Type),
		Price:       m.Price,
		Shares:      m.Shares,
		TotalAmount: m.TotalAmount,
		CreatedAt:   m.CreatedAt,
	}
}
