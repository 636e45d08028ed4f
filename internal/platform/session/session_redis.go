// Package session はRedisを使ったリフレッシュトークンセッションの保存先を提供します。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"stock_trader/internal/feature/auth/domain/entity"
	"stock_trader/internal/feature/auth/usecase"
)

// DefaultPrefix はセッションキーの既定プレフィックスです。
const DefaultPrefix = "session"

// revokedRetention は失効済みセッションを再利用検知のために残す時間です。
const revokedRetention = 24 * time.Hour

// SessionRedis implements usecase.SessionRepository using Redis.
// セッション本体は期限付きの文字列キー、ユーザーごとのID一覧はセットで保持します。
type SessionRedis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ usecase.SessionRepository = (*SessionRedis)(nil)

// NewSessionRedis creates a new SessionRedis instance.
func NewSessionRedis(client *redis.Client, prefix string) *SessionRedis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SessionRedis{client: client, prefix: prefix, now: time.Now}
}

func (r *SessionRedis) sessionKey(id string) string {
	return fmt.Sprintf("%s:%s", r.prefix, id)
}

func (r *SessionRedis) userSessionsKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", r.prefix, userID)
}

// Create persists a new session to Redis.
func (r *SessionRedis) Create(ctx context.Context, s *entity.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	userKey := r.userSessionsKey(s.UserID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.sessionKey(s.ID), data, ttl)
	pipe.SAdd(ctx, userKey, s.ID)
	// セッションの有効期間は一律なので、セットの期限は最新のセッションに合わせる
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// FindByID retrieves a session by its ID.
func (r *SessionRedis) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, usecase.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var s entity.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// activeSessions はユーザーの有効なセッションを作成日時の昇順で返します。
// 期限切れで消えたIDはセットからも取り除きます。
func (r *SessionRedis) activeSessions(ctx context.Context, userID uint) ([]*entity.Session, error) {
	userKey := r.userSessionsKey(userID)
	ids, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, err
	}

	now := r.now()
	var sessions []*entity.Session
	for _, id := range ids {
		s, err := r.FindByID(ctx, id)
		if errors.Is(err, usecase.ErrSessionNotFound) {
			r.client.SRem(ctx, userKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if s.IsValid(now) {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })
	return sessions, nil
}

// Revoke marks a session as revoked.
func (r *SessionRedis) Revoke(ctx context.Context, id string) error {
	s, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}

	now := r.now()
	s.RevokedAt = &now
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return r.client.Set(ctx, r.sessionKey(id), data, revokedRetention).Err()
}

// RevokeAllByUserID revokes all sessions for a user.
func (r *SessionRedis) RevokeAllByUserID(ctx context.Context, userID uint) error {
	ids, err := r.client.SMembers(ctx, r.userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := r.Revoke(ctx, id); err != nil && !errors.Is(err, usecase.ErrSessionNotFound) {
			return err
		}
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires session keys by TTL.
func (r *SessionRedis) DeleteExpired(context.Context) (int64, error) {
	return 0, nil
}

// CountByUserID returns the number of active sessions for a user.
func (r *SessionRedis) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	sessions, err := r.activeSessions(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}

// DeleteOldestByUserID deletes the oldest active session for a user.
func (r *SessionRedis) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	sessions, err := r.activeSessions(ctx, userID)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	oldest := sessions[0]
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.sessionKey(oldest.ID))
	pipe.SRem(ctx, r.userSessionsKey(userID), oldest.ID)
	_, err = pipe.Exec(ctx)
	return err
}
