package adapters

import (
	"context"
	"sync"
	"time"

	"stock_trader/internal/feature/auth/domain/entity"
	"stock_trader/internal/feature/auth/usecase"
)

// sessionMemory はRedisもDBも使えない場合のSessionRepositoryのインメモリ実装です。
type sessionMemory struct {
	mu       sync.Mutex
	sessions map[string]entity.Session
	now      func() time.Time
}

var _ usecase.SessionRepository = (*sessionMemory)(nil)

// NewSessionMemory は空のインメモリセッションストアを生成します。
func NewSessionMemory() *sessionMemory {
	return &sessionMemory{sessions: make(map[string]entity.Session), now: time.Now}
}

func (r *sessionMemory) Create(_ context.Context, s *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = *s
	return nil
}

func (r *sessionMemory) FindByID(_ context.Context, id string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, usecase.ErrSessionNotFound
	}
	return &s, nil
}

func (r *sessionMemory) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return usecase.ErrSessionNotFound
	}
	now := r.now()
	s.RevokedAt = &now
	r.sessions[id] = s
	return nil
}

func (r *sessionMemory) RevokeAllByUserID(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for id, s := range r.sessions {
		if s.UserID == userID && !s.IsRevoked() {
			s.RevokedAt = &now
			r.sessions[id] = s
		}
	}
	return nil
}

func (r *sessionMemory) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var n int64
	for id, s := range r.sessions {
		if s.IsExpired(now) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *sessionMemory) CountByUserID(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var n int64
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsValid(now) {
			n++
		}
	}
	return n, nil
}

func (r *sessionMemory) DeleteOldestByUserID(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	var oldest *entity.Session
	for _, s := range r.sessions {
		if s.UserID != userID || !s.IsValid(now) {
			continue
		}
		if oldest == nil || s.CreatedAt.Before(oldest.CreatedAt) {
			oldest = &s
		}
	}
	if oldest != nil {
		delete(r.sessions, oldest.ID)
	}
	return nil
}
