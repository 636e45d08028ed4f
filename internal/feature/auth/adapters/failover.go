package adapters

import (
	"context"

	"stock_trader/internal/feature/auth/domain/entity"
	"stock_trader/internal/feature/auth/usecase"
	"stock_trader/internal/platform/db"
	"stock_trader/internal/shared/degrade"
)

// failover は縮退ラッチに従って永続ストアとインメモリストアを切り替えます。
// 永続ストアが到達不能エラーを返した場合はラッチを倒し、同じ操作をインメモリ側で一度だけ再実行します。
type failover[T any] struct {
	durable    T
	hasDurable bool
	fallback   T
	latch      *degrade.Latch
}

func (f *failover[T]) do(fn func(T) error) error {
	if !f.hasDurable || f.latch.Tripped() {
		return fn(f.fallback)
	}
	err := fn(f.durable)
	if !db.IsUnavailable(err) {
		return err
	}
	f.latch.Trip("auth storage: " + err.Error())
	return fn(f.fallback)
}

// failoverUsers はラッチ連動のUserRepositoryです。
type failoverUsers struct {
	f failover[usecase.UserRepository]
}

var _ usecase.UserRepository = (*failoverUsers)(nil)

// NewFailoverUsers は durable（nil可）と fallback を latch で切り替えるUserRepositoryを生成します。
func NewFailoverUsers(durable, fallback usecase.UserRepository, latch *degrade.Latch) *failoverUsers {
	return &failoverUsers{f: failover[usecase.UserRepository]{
		durable: durable, hasDurable: durable != nil, fallback: fallback, latch: latch,
	}}
}

func (r *failoverUsers) Create(ctx context.Context, u *entity.User) error {
	return r.f.do(func(repo usecase.UserRepository) error { return repo.Create(ctx, u) })
}

func (r *failoverUsers) FindByEmail(ctx context.Context, email string) (user *entity.User, err error) {
	err = r.f.do(func(repo usecase.UserRepository) error {
		user, err = repo.FindByEmail(ctx, email)
		return err
	})
	return user, err
}

func (r *failoverUsers) FindByID(ctx context.Context, id uint) (user *entity.User, err error) {
	err = r.f.do(func(repo usecase.UserRepository) error {
		user, err = repo.FindByID(ctx, id)
		return err
	})
	return user, err
}

func (r *failoverUsers) UpdateRiskProfile(ctx context.Context, id uint, profile entity.RiskProfile) error {
	return r.f.do(func(repo usecase.UserRepository) error { return repo.UpdateRiskProfile(ctx, id, profile) })
}

// failoverSessions はラッチ連動のSessionRepositoryです。Redisを使う場合は不要です。
type failoverSessions struct {
	f failover[usecase.SessionRepository]
}

var _ usecase.SessionRepository = (*failoverSessions)(nil)

// NewFailoverSessions は durable（nil可）と fallback を latch で切り替えるSessionRepositoryを生成します。
func NewFailoverSessions(durable, fallback usecase.SessionRepository, latch *degrade.Latch) *failoverSessions {
	return &failoverSessions{f: failover[usecase.SessionRepository]{
		durable: durable, hasDurable: durable != nil, fallback: fallback, latch: latch,
	}}
}

func (r *failoverSessions) Create(ctx context.Context, s *entity.Session) error {
	return r.f.do(func(repo usecase.SessionRepository) error { return repo.Create(ctx, s) })
}

func (r *failoverSessions) FindByID(ctx context.Context, id string) (s *entity.Session, err error) {
	err = r.f.do(func(repo usecase.SessionRepository) error {
		s, err = repo.FindByID(ctx, id)
		return err
	})
	return s, err
}

func (r *failoverSessions) Revoke(ctx context.Context, id string) error {
	return r.f.do(func(repo usecase.SessionRepository) error { return repo.Revoke(ctx, id) })
}

func (r *failoverSessions) RevokeAllByUserID(ctx context.Context, userID uint) error {
	return r.f.do(func(repo usecase.SessionRepository) error { return repo.RevokeAllByUserID(ctx, userID) })
}

func (r *failoverSessions) DeleteExpired(ctx context.Context) (n int64, err error) {
	err = r.f.do(func(repo usecase.SessionRepository) error {
		n, err = repo.DeleteExpired(ctx)
		return err
	})
	return n, err
}

func (r *failoverSessions) CountByUserID(ctx context.Context, userID uint) (n int64, err error) {
	err = r.f.do(func(repo usecase.SessionRepository) error {
		n, err = repo.CountByUserID(ctx, userID)
		return err
	})
	return n, err
}

func (r *failoverSessions) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	return r.f.do(func(repo usecase.SessionRepository) error { return repo.DeleteOldestByUserID(ctx, userID) })
}
