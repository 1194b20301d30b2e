package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking reserves one hourly slot on a Hong Kong civil date. The partial
// unique index on (date, start_hour) for confirmed rows is the correctness
// backstop against double-booking; pending rows for the same slot may
// coexist while payments race.
type Booking struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`

	Date      string `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_confirmed_slot,where:status = 'confirmed'"`
	StartHour int    `json:"start_hour" gorm:"not null;uniqueIndex:idx_confirmed_slot,where:status = 'confirmed'"`
	EndHour   int    `json:"end_hour" gorm:"not null"`

	Status BookingStatus `json:"status" gorm:"type:varchar(16);not null;index"`

	// Amount and IsPeak are frozen at creation time. The price of an
	// existing booking never changes, even across a tier upgrade.
	Amount int64 `json:"amount" gorm:"not null"`
	IsPeak bool  `json:"is_peak" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (Booking) TableName() string { return "bookings" }

func (b *Booking) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
