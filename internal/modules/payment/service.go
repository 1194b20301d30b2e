package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"partyroom/internal/database"
	"partyroom/internal/metrics"
	"partyroom/internal/modules/booking"
	"partyroom/internal/modules/ledger"
	"partyroom/internal/modules/pricing"
)

const minTopupMinor = 10000

// Service is the checkout orchestrator and the webhook reconciler. The
// create side leaves a pending booking behind a redirect URL; the webhook
// side settles it, moves the money on the ledger and recomputes the tier
// in one database transaction.
type Service struct {
	db       *gorm.DB
	users    userReader
	bookings bookingStore
	ledger   *ledger.Service
	checkout *CheckoutClient
	currency string
	loggerf  func(format string, args ...interface{})
}

func NewService(db *gorm.DB, users userReader, bookings bookingStore, ledgerSvc *ledger.Service, checkout *CheckoutClient, currency string, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	if currency == "" {
		currency = "hkd"
	}
	return &Service{
		db:       db,
		users:    users,
		bookings: bookings,
		ledger:   ledgerSvc,
		checkout: checkout,
		currency: currency,
		loggerf:  loggerf,
	}
}

// CreateBookingCheckout prices the slot for the caller's tier, creates a
// pending booking and a hosted checkout session for it. A provider
// failure removes the pending booking again; no partial state survives.
func (s *Service) CreateBookingCheckout(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*CheckoutResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier := pricing.TierByID(user.MembershipTier)
	isPeak, amount, err := pricing.Quote(tier, req.Date, req.StartHour)
	if err != nil {
		return nil, ErrValidation
	}

	b, err := s.bookings.CreatePending(ctx, userID, req.Date, req.StartHour, amount, isPeak)
	if err != nil {
		return nil, err
	}

	label := "off-peak"
	if isPeak {
		label = "peak"
	}
	session, err := s.checkout.CreateSession(ctx, SessionParams{
		AmountMinor:   amount,
		Currency:      s.currency,
		Description:   fmt.Sprintf("Party room booking %s %02d:00-%02d:00 (%s)", b.Date, b.StartHour, b.EndHour, label),
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"booking_id": b.ID.String(),
			"user_id":    user.ID.String(),
			"amount":     fmt.Sprintf("%d", amount),
		},
	})
	if err != nil {
		s.loggerf("level=error msg=checkout session failed booking_id=%s err=%v", b.ID, err)
		rbErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.bookings.ExpireTx(tx, b.ID)
		})
		if rbErr != nil {
			s.loggerf("level=error msg=failed to remove pending booking after provider error booking_id=%s err=%v", b.ID, rbErr)
		}
		return nil, ErrExternalService
	}

	return &CheckoutResponse{URL: session.URL, BookingID: b.ID.String()}, nil
}

// CreateTopupCheckout creates a hosted checkout session that credits the
// prepaid balance once the webhook settles it.
func (s *Service) CreateTopupCheckout(ctx context.Context, userID uuid.UUID, amount int64) (*TopupResponse, error) {
	if amount < minTopupMinor {
		return nil, ErrMinTopup
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.checkout.CreateSession(ctx, SessionParams{
		AmountMinor:   amount,
		Currency:      s.currency,
		Description:   fmt.Sprintf("Account top up %d", amount),
		CustomerEmail: user.Email,
		Metadata: map[string]string{
			"type":    "topup",
			"user_id": user.ID.String(),
			"amount":  fmt.Sprintf("%d", amount),
		},
	})
	if err != nil {
		s.loggerf("level=error msg=topup session failed user_id=%s err=%v", userID, err)
		return nil, ErrExternalService
	}

	return &TopupResponse{URL: session.URL}, nil
}

// HandleWebhook verifies and dispatches one webhook delivery. Delivery is
// at-least-once: every handler below keys on the external payment
// reference and treats a known reference as an acknowledged replay.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	if err := s.checkout.VerifySignature(payload, sigHeader); err != nil {
		metrics.IncWebhook("unknown", "bad_signature")
		return ErrInvalidSignature
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		metrics.IncWebhook("unknown", "bad_payload")
		return ErrValidation
	}

	switch ev.Type {
	case EventSessionCompleted:
		err := s.handleCompleted(ctx, ev)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.IncWebhook(ev.Type, outcome)
		return err
	case EventSessionExpired:
		err := s.handleExpired(ctx, ev)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.IncWebhook(ev.Type, outcome)
		return err
	default:
		// Unrecognized events are acknowledged so the provider stops
		// redelivering them.
		metrics.IncWebhook(ev.Type, "ignored")
		return nil
	}
}

func (s *Service) handleCompleted(ctx context.Context, ev Event) error {
	obj := ev.Data.Object
	ref := obj.PaymentRef
	if ref == "" {
		ref = ev.ID
	}

	if obj.Metadata["type"] == "topup" {
		return s.settleTopup(ctx, ev, ref)
	}
	if obj.Metadata["booking_id"] != "" {
		return s.settleBooking(ctx, ev, ref)
	}

	s.loggerf("level=warn msg=completed event without booking or topup metadata event_id=%s", ev.ID)
	return nil
}

func (s *Service) settleBooking(ctx context.Context, ev Event, ref string) error {
	bookingID, err := uuid.Parse(ev.Data.Object.Metadata["booking_id"])
	if err != nil {
		s.loggerf("level=error msg=bad booking_id in webhook metadata event_id=%s", ev.ID)
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		processed, err := s.ledger.HasPaymentRefTx(tx, ref)
		if err != nil {
			return err
		}
		if processed {
			s.loggerf("level=info msg=replayed payment event skipped payment_ref=%s", ref)
			return nil
		}

		b, won, err := s.bookings.SettleTx(tx, bookingID)
		if err != nil {
			if errors.Is(err, booking.ErrNotFound) {
				s.loggerf("level=error msg=paid booking missing, manual reconciliation required booking_id=%s payment_ref=%s", bookingID, ref)
				return nil
			}
			return err
		}

		if !won {
			// The slot went to a rival confirmation while this payment
			// settled. The money is real, so it comes back as credit.
			err := s.ledger.RefundTx(tx, b.UserID, b.Amount, fmt.Sprintf("Refund: slot %s %02d:00 taken", b.Date, b.StartHour), &ref)
			if errors.Is(err, ledger.ErrUserNotFound) {
				s.loggerf("level=error msg=refund target user missing booking_id=%s payment_ref=%s", b.ID, ref)
				return nil
			}
			return err
		}

		desc := fmt.Sprintf("Booking: %s %02d:00-%02d:00", b.Date, b.StartHour, b.EndHour)
		_, err = s.ledger.ApplySpendTx(tx, b.UserID, b.Amount, desc, &ref, false)
		if errors.Is(err, ledger.ErrUserNotFound) {
			// Payment was real, so the booking stands; the ledger gap is
			// logged for manual reconciliation.
			s.loggerf("level=error msg=user missing for settled booking, ledger skipped booking_id=%s user_id=%s payment_ref=%s", b.ID, b.UserID, ref)
			return nil
		}
		if database.IsUniqueViolation(err) {
			// A concurrent delivery of the same event inserted the ledger
			// row first.
			return nil
		}
		return err
	})
}

func (s *Service) settleTopup(ctx context.Context, ev Event, ref string) error {
	obj := ev.Data.Object

	userID, err := uuid.Parse(obj.Metadata["user_id"])
	if err != nil {
		s.loggerf("level=error msg=bad user_id in topup metadata event_id=%s", ev.ID)
		return nil
	}
	var amount int64
	if _, err := fmt.Sscanf(obj.Metadata["amount"], "%d", &amount); err != nil || amount <= 0 {
		s.loggerf("level=error msg=bad amount in topup metadata event_id=%s", ev.ID)
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		processed, err := s.ledger.HasPaymentRefTx(tx, ref)
		if err != nil {
			return err
		}
		if processed {
			s.loggerf("level=info msg=replayed topup event skipped payment_ref=%s", ref)
			return nil
		}

		err = s.ledger.CreditTopupTx(tx, userID, amount, fmt.Sprintf("Top up %d", amount), &ref)
		if errors.Is(err, ledger.ErrUserNotFound) {
			s.loggerf("level=error msg=topup target user missing user_id=%s payment_ref=%s", userID, ref)
			return nil
		}
		if database.IsUniqueViolation(err) {
			// A concurrent delivery of the same event won the insert.
			return nil
		}
		return err
	})
}

func (s *Service) handleExpired(ctx context.Context, ev Event) error {
	rawID := ev.Data.Object.Metadata["booking_id"]
	if rawID == "" {
		return nil
	}
	bookingID, err := uuid.Parse(rawID)
	if err != nil {
		return nil
	}

	// Deletes only while still pending; a booking confirmed by a racing
	// success event is left untouched.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.bookings.ExpireTx(tx, bookingID)
	})
}
