package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partyroom/internal/database"
	"partyroom/internal/domain"
	"partyroom/internal/metrics"
	"partyroom/internal/modules/ledger"
	"partyroom/internal/modules/pricing"
	"partyroom/internal/pkg/hktime"
)

// Service owns the booking state machine:
//
//	pending -> confirmed   (payment settled)
//	pending -> deleted     (payment session expired)
//	confirmed -> cancelled (user cancel, future bookings only)
//
// Concurrent writers are fenced by the partial unique index on
// (date, start_hour) for confirmed rows, not by check-then-act.
type Service struct {
	db     *gorm.DB
	ledger *ledger.Service
	clock  hktime.Clock
}

func NewService(db *gorm.DB, ledger *ledger.Service, clock hktime.Clock) *Service {
	return &Service{db: db, ledger: ledger, clock: clock}
}

func (s *Service) validateSlot(date string, hour int) error {
	if _, err := hktime.ParseDate(date); err != nil {
		return ErrValidation
	}
	if hour < 0 || hour > 23 {
		return ErrValidation
	}
	today := hktime.Today(s.clock)
	if date < today {
		return ErrPastSlot
	}
	if date == today && hour <= hktime.CurrentHour(s.clock) {
		return ErrPastSlot
	}
	return nil
}

// Book pays for a slot from the prepaid balance and confirms it
// immediately. Price is quoted from the caller's tier and frozen on the
// booking; debit, spend accrual, tier recompute and the ledger row commit
// atomically with the booking itself.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, req BookRequest) (*BookResult, error) {
	if err := s.validateSlot(req.Date, req.StartHour); err != nil {
		return nil, err
	}

	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	tier := pricing.TierByID(user.MembershipTier)
	isPeak, amount, err := pricing.Quote(tier, req.Date, req.StartHour)
	if err != nil {
		return nil, ErrValidation
	}
	if user.Balance < amount {
		return nil, ledger.ErrInsufficientBalance
	}

	b := &domain.Booking{
		UserID:    userID,
		Date:      req.Date,
		StartHour: req.StartHour,
		EndHour:   req.StartHour + 1,
		Status:    domain.BookingConfirmed,
		Amount:    amount,
		IsPeak:    isPeak,
	}

	var spend *ledger.SpendResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrSlotConflict
			}
			return err
		}

		desc := fmt.Sprintf("Booking: %s %02d:00-%02d:00", b.Date, b.StartHour, b.EndHour)
		spend, err = s.ledger.ApplySpendTx(tx, userID, amount, desc, nil, true)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			metrics.IncBooking("conflict")
		}
		return nil, err
	}

	metrics.IncBooking("confirmed")
	return &BookResult{
		Booking:            b,
		MembershipUpgraded: spend.TierUpgraded,
		NewTier:            spend.NewTier,
	}, nil
}

// CreatePending reserves a slot for a checkout attempt. Multiple pendings
// for one slot may coexist; they race at confirmation time. A slot that
// already has a confirmed booking is rejected up front.
func (s *Service) CreatePending(ctx context.Context, userID uuid.UUID, date string, hour int, amount int64, isPeak bool) (*domain.Booking, error) {
	if err := s.validateSlot(date, hour); err != nil {
		return nil, err
	}

	var cnt int64
	err := s.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("date = ? AND start_hour = ? AND status = ?", date, hour, domain.BookingConfirmed).
		Count(&cnt).Error
	if err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, ErrSlotConflict
	}

	b := &domain.Booking{
		UserID:    userID,
		Date:      date,
		StartHour: hour,
		EndHour:   hour + 1,
		Status:    domain.BookingPending,
		Amount:    amount,
		IsPeak:    isPeak,
	}
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, err
	}

	metrics.IncBooking("created")
	return b, nil
}

// SettleTx transitions a pending booking to confirmed inside the caller's
// transaction. The partial unique index re-checks the slot at this point:
// when a rival pending confirmed first, the losing row is cancelled and
// won=false tells the caller to take the refund path. Calling SettleTx on
// an already-confirmed booking is a no-op with won=true.
func (s *Service) SettleTx(tx *gorm.DB, bookingID uuid.UUID) (b *domain.Booking, won bool, err error) {
	var row domain.Booking
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrNotFound
		}
		return nil, false, err
	}

	switch row.Status {
	case domain.BookingConfirmed:
		return &row, true, nil
	case domain.BookingCancelled:
		return &row, false, nil
	}

	// Savepoint around the confirm attempt: on Postgres a unique
	// violation would otherwise abort the enclosing transaction before
	// the cleanup update can run.
	confirmErr := tx.Transaction(func(inner *gorm.DB) error {
		return inner.Model(&domain.Booking{}).Where("id = ?", row.ID).Update("status", domain.BookingConfirmed).Error
	})
	if confirmErr != nil {
		if !database.IsUniqueViolation(confirmErr) {
			return nil, false, confirmErr
		}
		// Lost the race to a rival confirmation for the same slot.
		if err := tx.Model(&domain.Booking{}).Where("id = ?", row.ID).Update("status", domain.BookingCancelled).Error; err != nil {
			return nil, false, err
		}
		row.Status = domain.BookingCancelled
		metrics.IncBooking("conflict")
		return &row, false, nil
	}

	row.Status = domain.BookingConfirmed
	metrics.IncBooking("confirmed")
	return &row, true, nil
}

// ExpireTx deletes a pending booking whose payment session expired. A
// booking that confirmed in the meantime is left untouched.
func (s *Service) ExpireTx(tx *gorm.DB, bookingID uuid.UUID) error {
	res := tx.Where("id = ? AND status = ?", bookingID, domain.BookingPending).Delete(&domain.Booking{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		metrics.IncBooking("expired")
	}
	return nil
}

// Cancel lets the owner cancel a future confirmed booking. The status
// change and the balance refund commit atomically.
func (s *Service) Cancel(ctx context.Context, bookingID, requesterID uuid.UUID) (*CancelResult, error) {
	var refunded int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var b domain.Booking
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if b.UserID != requesterID {
			return ErrForbidden
		}
		if b.Status != domain.BookingConfirmed {
			return ErrInvalidState
		}

		today := hktime.Today(s.clock)
		if b.Date < today || (b.Date == today && b.StartHour <= hktime.CurrentHour(s.clock)) {
			return ErrInvalidState
		}

		if err := tx.Model(&domain.Booking{}).Where("id = ?", b.ID).Update("status", domain.BookingCancelled).Error; err != nil {
			return err
		}

		desc := fmt.Sprintf("Refund: %s %02d:00-%02d:00", b.Date, b.StartHour, b.EndHour)
		if err := s.ledger.RefundTx(tx, b.UserID, b.Amount, desc, nil); err != nil {
			return err
		}

		refunded = b.Amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBooking("cancelled")
	return &CancelResult{RefundedAmount: refunded}, nil
}

// GetByID returns a booking regardless of status.
func (s *Service) GetByID(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListForUser returns the caller's confirmed bookings, date then hour
// ascending.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	var out []domain.Booking
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, domain.BookingConfirmed).
		Order("date asc, start_hour asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllConfirmed returns every confirmed booking with customer details.
// Callers must sit behind the admin role gate.
func (s *Service) ListAllConfirmed(ctx context.Context) ([]AdminBookingRow, error) {
	var bookings []domain.Booking
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("status = ?", domain.BookingConfirmed).
		Order("date asc, start_hour asc").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	out := make([]AdminBookingRow, 0, len(bookings))
	for _, b := range bookings {
		row := AdminBookingRow{
			ID:        b.ID,
			Date:      b.Date,
			StartHour: b.StartHour,
			EndHour:   b.EndHour,
			Status:    string(b.Status),
			Amount:    b.Amount,
			IsPeak:    b.IsPeak,
			CreatedAt: b.CreatedAt,
		}
		if b.User != nil {
			row.CustomerName = b.User.Name
			row.CustomerEmail = b.User.Email
			row.CustomerPhone = b.User.Phone
		}
		out = append(out, row)
	}
	return out, nil
}
