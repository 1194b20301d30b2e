package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TransactionBooking TransactionType = "booking"
	TransactionRefund  TransactionType = "refund"
	TransactionTopup   TransactionType = "topup"
)

// Transaction is the append-only audit ledger. Every balance or total_spent
// mutation on a user is written together with exactly one transaction row
// in the same database transaction, so replaying the ledger reconstructs
// both figures.
type Transaction struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	Type        TransactionType `json:"type" gorm:"type:varchar(16);not null;check:type IN ('booking','refund','topup')"`
	Amount      int64           `json:"amount" gorm:"not null"`
	Description string          `json:"description" gorm:"type:text"`

	// PaymentRef carries the external payment reference for webhook-settled
	// money. Unique, so an at-least-once redelivery cannot credit twice.
	PaymentRef *string `json:"payment_ref,omitempty" gorm:"uniqueIndex"`

	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

func (Transaction) TableName() string { return "transactions" }

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
