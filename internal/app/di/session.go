package di

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "stock_trader/internal/feature/auth/adapters"
	"stock_trader/internal/feature/auth/usecase"
	"stock_trader/internal/platform/session"
	"stock_trader/internal/shared/degrade"
)

// NewSessionRepository creates a SessionRepository implementation.
// If Redis is available, it returns a Redis-backed implementation.
// Otherwise, it uses the database and falls back to memory once the latch trips.
func NewSessionRepository(rdb *redis.Client, db *gorm.DB, latch *degrade.Latch) usecase.SessionRepository {
	if rdb != nil {
		return session.NewSessionRedis(rdb, session.DefaultPrefix)
	}
	var durable usecase.SessionRepository
	if db != nil {
		durable = authadapters.NewSessionGorm(db)
	}
	return authadapters.NewFailoverSessions(durable, authadapters.NewSessionMemory(), latch)
}

// NewUserRepository は DB（nil可）とインメモリを latch で切り替えるUserRepositoryを生成します。
func NewUserRepository(db *gorm.DB, latch *degrade.Latch) usecase.UserRepository {
	var durable usecase.UserRepository
	if db != nil {
		durable = authadapters.NewUserGorm(db)
	}
	return authadapters.NewFailoverUsers(durable, authadapters.NewUserMemory(InitialBalance()), latch)
}
