// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"stock_trader/internal/feature/auth/domain"
	"stock_trader/internal/feature/auth/domain/entity"
	"stock_trader/internal/feature/auth/usecase"
	"stock_trader/internal/platform/db"
)

// userGorm はUserRepositoryインターフェースのGORM実装です。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加します。
// 同じメールアドレスのユーザーが既に存在する場合、domain.ErrUserAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	m := UserModelFromEntity(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return domain.ErrUserAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, u.CreatedAt, u.UpdatedAt = m.ID, m.CreatedAt, m.UpdatedAt
	if u.Balance.IsZero() {
		u.Balance = m.Balance
	}
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "email = ?", email)
}

// FindByID はIDでユーザーを取得します。
func (r *userGorm) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userGorm) first(ctx context.Context, query string, arg any) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.ToEntity(), nil
}

// UpdateRiskProfile はリスク許容度を更新します。
func (r *userGorm) UpdateRiskProfile(ctx context.Context, id uint, profile entity.RiskProfile) error {
	result := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Where("id = ?", id).
		Update("risk_profile", string(profile))
	if result.Error != nil {
		return fmt.Errorf("update risk profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
