package booking

import (
	"time"

	"github.com/google/uuid"

	"partyroom/internal/domain"
)

type BookRequest struct {
	Date      string `json:"date" binding:"required"`
	StartHour int    `json:"start_hour" binding:"min=0,max=23"`
}

type BookResult struct {
	Booking            *domain.Booking `json:"booking"`
	MembershipUpgraded bool            `json:"membership_upgraded"`
	NewTier            string          `json:"new_tier"`
}

type CancelResult struct {
	RefundedAmount int64 `json:"refunded_amount"`
}

// AdminBookingRow is the admin listing shape, joined with customer data.
type AdminBookingRow struct {
	ID            uuid.UUID `json:"id"`
	Date          string    `json:"date"`
	StartHour     int       `json:"start_hour"`
	EndHour       int       `json:"end_hour"`
	Status        string    `json:"status"`
	Amount        int64     `json:"amount"`
	IsPeak        bool      `json:"is_peak"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	CustomerPhone string    `json:"customer_phone"`
	CreatedAt     time.Time `json:"created_at"`
}
