package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VisitorSession correlates anonymous visitors with later signups. This is
// a best-effort side channel; nothing in the booking or payment flow may
// fail because of it.
type VisitorSession struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	VisitorID string     `json:"visitor_id" gorm:"uniqueIndex;not null"`
	UserID    *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`

	UserAgent   string `json:"user_agent,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`

	CreatedAt    time.Time `json:"created_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}

func (VisitorSession) TableName() string { return "visitor_sessions" }

func (s *VisitorSession) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type VisitorEvent struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	VisitorID string    `json:"visitor_id" gorm:"index;not null"`
	EventType string    `json:"event_type" gorm:"type:varchar(64);not null"`
	EventData string    `json:"event_data,omitempty" gorm:"type:text"`
	Page      string    `json:"page,omitempty"`
	Element   string    `json:"element,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (VisitorEvent) TableName() string { return "visitor_events" }

func (e *VisitorEvent) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
