package adapters

import (
	"time"

	"stock_trader/internal/feature/auth/domain/entity"
)

// SessionModel is the GORM model for the sessions table.
type SessionModel struct {
	ID        string     `gorm:"primaryKey;size:64"`
	UserID    uint       `gorm:"index;not null"`
	UserAgent string     `gorm:"size:512"`
	IPAddress string     `gorm:"size:45"` // IPv6 max length
	CreatedAt time.Time  `gorm:"not null"`
	ExpiresAt time.Time  `gorm:"index;not null"`
	RevokedAt *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM.
func (SessionModel) TableName() string {
	return "sessions"
}

func (m *SessionModel) toEntity() *entity.Session {
	s := entity.Session(*m)
	return &s
}

func sessionModelFromEntity(s *entity.Session) *SessionModel {
	m := SessionModel(*s)
	return &m
}
