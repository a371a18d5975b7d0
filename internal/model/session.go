package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session ties a live refresh token to a user. Only the SHA-256 digest of the
// token is stored; a session is valid iff expires_at is in the future.
type Session struct {
	ID               uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	UserID           uuid.UUID `json:"userId" gorm:"type:char(36);not null;index"`
	RefreshTokenHash string    `json:"-" gorm:"size:64;not null;index"`
	ExpiresAt        time.Time `json:"expiresAt" gorm:"not null;index"`
	CreatedAt        time.Time `json:"createdAt"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
