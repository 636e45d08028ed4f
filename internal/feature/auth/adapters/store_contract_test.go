package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_trader/internal/feature/auth/domain"
	"stock_trader/internal/feature/auth/domain/entity"
	"stock_trader/internal/feature/auth/usecase"
)

var contractNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// runUserContract はUserRepository実装が満たすべき振る舞いを検証します。
func runUserContract(t *testing.T, newRepo func(t *testing.T) usecase.UserRepository) {
	ctx := context.Background()
	newUser := func(email string) *entity.User {
		return &entity.User{
			Username:     "trader",
			Email:        email,
			PasswordHash: "hashed_password",
			RiskProfile:  entity.RiskLow,
		}
	}

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser("test@example.com")

		require.NoError(t, repo.Create(ctx, u))

		assert.NotZero(t, u.ID)
		assert.False(t, u.CreatedAt.IsZero())
		assert.Equal(t, "1000000", u.Balance.String())
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newUser("dup@example.com")))

		err := repo.Create(ctx, newUser("dup@example.com"))

		assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
	})

	t.Run("find by email and id", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser("find@example.com")
		require.NoError(t, repo.Create(ctx, u))

		byEmail, err := repo.FindByEmail(ctx, "find@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, "trader", byEmail.Username)
		assert.Equal(t, "hashed_password", byEmail.PasswordHash)
		assert.Equal(t, entity.RiskLow, byEmail.RiskProfile)

		byID, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "find@example.com", byID.Email)
		assert.True(t, byID.Balance.Equal(decimal.NewFromInt(1000000)))
	})

	t.Run("not found", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		_, err = repo.FindByID(ctx, 424242)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)

		err = repo.UpdateRiskProfile(ctx, 424242, entity.RiskHigh)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("update risk profile", func(t *testing.T) {
		repo := newRepo(t)
		u := newUser("risk@example.com")
		require.NoError(t, repo.Create(ctx, u))

		require.NoError(t, repo.UpdateRiskProfile(ctx, u.ID, entity.RiskHigh))

		got, err := repo.FindByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.RiskHigh, got.RiskProfile)
	})
}

// runSessionContract はSessionRepository実装が満たすべき振る舞いを検証します。
// newRepo は contractNow を現在時刻とするストアを返します。
func runSessionContract(t *testing.T, newRepo func(t *testing.T) usecase.SessionRepository) {
	ctx := context.Background()
	session := func(id string, userID uint, created time.Duration, ttl time.Duration) *entity.Session {
		return &entity.Session{
			ID:        id,
			UserID:    userID,
			UserAgent: "test-agent",
			IPAddress: "127.0.0.1",
			CreatedAt: contractNow.Add(created),
			ExpiresAt: contractNow.Add(ttl),
		}
	}

	t.Run("create and find", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, session("s1", 1, 0, time.Hour)))

		got, err := repo.FindByID(ctx, "s1")

		require.NoError(t, err)
		assert.Equal(t, uint(1), got.UserID)
		assert.Equal(t, "test-agent", got.UserAgent)
		assert.False(t, got.IsRevoked())
	})

	t.Run("find unknown", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, usecase.ErrSessionNotFound)
	})

	t.Run("revoke", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, session("s1", 1, 0, time.Hour)))

		require.NoError(t, repo.Revoke(ctx, "s1"))

		got, err := repo.FindByID(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, got.IsRevoked())
		assert.ErrorIs(t, repo.Revoke(ctx, "missing"), usecase.ErrSessionNotFound)
	})

	t.Run("revoke all by user", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, session("a", 1, 0, time.Hour)))
		require.NoError(t, repo.Create(ctx, session("b", 1, time.Second, time.Hour)))
		require.NoError(t, repo.Create(ctx, session("c", 2, 0, time.Hour)))

		require.NoError(t, repo.RevokeAllByUserID(ctx, 1))

		n, err := repo.CountByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, n)
		n, err = repo.CountByUserID(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("count only active", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, session("active-1", 1, 0, time.Hour)))
		require.NoError(t, repo.Create(ctx, session("active-2", 1, time.Second, time.Hour)))
		require.NoError(t, repo.Create(ctx, session("expired", 1, -2*time.Hour, -time.Hour)))
		require.NoError(t, repo.Create(ctx, session("revoked", 1, 0, time.Hour)))
		require.NoError(t, repo.Revoke(ctx, "revoked"))

		n, err := repo.CountByUserID(ctx, 1)

		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("delete oldest", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, session("newest", 1, -time.Hour, time.Hour)))
		require.NoError(t, repo.Create(ctx, session("oldest", 1, -2*time.Hour, time.Hour)))

		require.NoError(t, repo.DeleteOldestByUserID(ctx, 1))

		_, err := repo.FindByID(ctx, "oldest")
		assert.ErrorIs(t, err, usecase.ErrSessionNotFound)
		_, err = repo.FindByID(ctx, "newest")
		assert.NoError(t, err)
		assert.NoError(t, repo.DeleteOldestByUserID(ctx, 99), "no sessions is not an error")
	})

	t.Run("delete expired", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, session("expired-1", 1, -3*time.Hour, -time.Hour)))
		require.NoError(t, repo.Create(ctx, session("expired-2", 1, -3*time.Hour, -2*time.Hour)))
		require.NoError(t, repo.Create(ctx, session("active", 1, 0, 7*24*time.Hour)))

		deleted, err := repo.DeleteExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		_, err = repo.FindByID(ctx, "active")
		assert.NoError(t, err)
	})
}
