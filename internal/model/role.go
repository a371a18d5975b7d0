package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Default role names seeded at startup.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Role is a flat role tag. No authorization logic hangs off it yet.
type Role struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;size:50;not null"`
	Description string    `json:"description" gorm:"size:255"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    uuid.UUID `json:"userId" gorm:"type:char(36);primaryKey"`
	RoleID    uuid.UUID `json:"roleId" gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `json:"createdAt"`

	Role Role `json:"role,omitempty" gorm:"foreignKey:RoleID"`
}
