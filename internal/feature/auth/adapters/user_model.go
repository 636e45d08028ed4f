package adapters

import (
	"time"

	"github.com/shopspring/decimal"

	"stock_trader/internal/feature/auth/domain/entity"
)

// UserModel is the GORM model for the users table.
// balance 列は台帳（ledger）の AccountModel と同じ定義です。
type UserModel struct {
	ID           uint            `gorm:"primaryKey"`
	Username     string          `gorm:"size:64;not null"`
	Email        string          `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string          `gorm:"column:password_hash;size:255;not null"`
	RiskProfile  string          `gorm:"size:16;not null;default:medium"`
	Balance      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:1000000"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// ToEntity converts the GORM model to a domain entity.
func (m *UserModel) ToEntity() *entity.User {
	return &entity.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		RiskProfile:  entity.RiskProfile(m.RiskProfile),
		Balance:      m.Balance,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// UserModelFromEntity converts a domain entity to a GORM model.
func UserModelFromEntity(u *entity.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		RiskProfile:  string(u.RiskProfile),
		Balance:      u.Balance,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// Models は auth が所有するテーブルのモデル一覧です（マイグレーション用）。
func Models() []any {
	return []any{&UserModel{}, &SessionModel{}}
}
