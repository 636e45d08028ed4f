package adapters

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stock_trader/internal/feature/auth/domain"
	"stock_trader/internal/feature/auth/domain/entity"
	"stock_trader/internal/feature/auth/usecase"
)

// MemoryUserIDBase はインメモリで採番するIDの開始値です。
// 縮退前にDBで採番されたIDと衝突しないよう大きな値から始めます。
const MemoryUserIDBase uint = 1 << 31

// userMemory はDB到達不能時に使うUserRepositoryのインメモリ実装です。
type userMemory struct {
	mu      sync.RWMutex
	byID    map[uint]*entity.User
	byEmail map[string]uint
	nextID  uint

	initialBalance decimal.Decimal
	now            func() time.Time
}

var _ usecase.UserRepository = (*userMemory)(nil)

// NewUserMemory は空のインメモリユーザーストアを生成します。
// Balance が未設定のユーザーには initialBalance を設定します。
func NewUserMemory(initialBalance decimal.Decimal) *userMemory {
	return &userMemory{
		byID:           make(map[uint]*entity.User),
		byEmail:        make(map[string]uint),
		nextID:         MemoryUserIDBase,
		initialBalance: initialBalance,
		now:            time.Now,
	}
}

func (r *userMemory) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return domain.ErrUserAlreadyExists
	}
	now := r.now()
	u.ID = r.nextID
	r.nextID++
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Balance.IsZero() {
		u.Balance = r.initialBalance
	}

	cp := *u
	r.byID[u.ID] = &cp
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *userMemory) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *userMemory) FindByID(_ context.Context, id uint) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userMemory) UpdateRiskProfile(_ context.Context, id uint, profile entity.RiskProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RiskProfile = profile
	u.UpdatedAt = r.now()
	return nil
}
