package slots

import (
	"context"
	"errors"
	"fmt"

	"partyroom/internal/pkg/hktime"
)

var ErrValidation = errors.New("invalid date")

// Slot is a derived view over the booking store, computed per request and
// never persisted or cached.
type Slot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
	IsPast    bool   `json:"isPast"`
	IsBooked  bool   `json:"isBooked"`
}

// BookingReader reports which hours of a date are held by a pending or
// confirmed booking. Pendings block the slot too, so a slot cannot be
// sold twice while a payment attempt is in flight.
type BookingReader interface {
	BookedHours(ctx context.Context, date string) (map[int]bool, error)
}

type Service struct {
	bookings BookingReader
	clock    hktime.Clock
}

func NewService(bookings BookingReader, clock hktime.Clock) *Service {
	return &Service{bookings: bookings, clock: clock}
}

// SlotsFor projects the fixed daily grid of 24 hourly slots for a date.
func (s *Service) SlotsFor(ctx context.Context, date string) ([]Slot, error) {
	if _, err := hktime.ParseDate(date); err != nil {
		return nil, ErrValidation
	}

	booked, err := s.bookings.BookedHours(ctx, date)
	if err != nil {
		return nil, err
	}

	today := hktime.Today(s.clock)
	currentHour := hktime.CurrentHour(s.clock)

	out := make([]Slot, 0, 24)
	for hour := 0; hour < 24; hour++ {
		isPast := date < today || (date == today && hour <= currentHour)
		isBooked := booked[hour]
		out = append(out, Slot{
			StartTime: fmt.Sprintf("%02d:00", hour),
			EndTime:   fmt.Sprintf("%02d:00", hour+1),
			Available: !isBooked && !isPast,
			IsPast:    isPast,
			IsBooked:  isBooked,
		})
	}
	return out, nil
}
