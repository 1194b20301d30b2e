package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Name         string    `json:"name" gorm:"not null"`
	Phone        string    `json:"phone,omitempty"`
	Role         UserRole  `json:"role" gorm:"type:varchar(16);not null;default:'client'"`

	// Balance is prepaid credit in minor currency units.
	Balance int64 `json:"balance" gorm:"not null;default:0"`
	// TotalSpent is lifetime confirmed spend in minor units. Monotonically
	// non-decreasing; only manual correction of an erroneous transaction
	// may lower it.
	TotalSpent     int64  `json:"total_spent" gorm:"not null;default:0"`
	MembershipTier string `json:"membership_tier" gorm:"type:varchar(16);not null;default:'rookie'"`

	// VisitorID links the pre-signup analytics session, best effort.
	VisitorID string `json:"-" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
