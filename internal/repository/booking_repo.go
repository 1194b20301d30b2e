package repository

import (
	"context"

	"gorm.io/gorm"

	"partyroom/internal/domain"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// BookedHours reports which hours of a date are held by a live booking.
// Pending bookings count: a slot behind an unpaid checkout is shown as
// taken until the session completes or expires.
func (r *BookingRepository) BookedHours(ctx context.Context, date string) (map[int]bool, error) {
	var hours []int
	tx := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("date = ? AND status IN ?", date, []domain.BookingStatus{domain.BookingPending, domain.BookingConfirmed}).
		Pluck("start_hour", &hours)
	if tx.Error != nil {
		return nil, tx.Error
	}

	booked := make(map[int]bool, len(hours))
	for _, h := range hours {
		booked[h] = true
	}
	return booked, nil
}
