package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"partyroom/internal/database"
	"partyroom/internal/domain"
	"partyroom/internal/modules/ledger"
	"partyroom/internal/modules/pricing"
	"partyroom/internal/pkg/hktime"
)

// Tests run against a clock frozen at Sunday 2025-06-01 12:00 Hong Kong
// time, so weekday fixtures in the following week are always future.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, hktime.Location())

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:booking_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return NewService(db, ledger.NewService(db), hktime.Fixed(testNow)), db
}

func createUser(t *testing.T, db *gorm.DB, email string, balance, totalSpent int64, tier string) *domain.User {
	t.Helper()
	u := &domain.User{
		Email:          email,
		PasswordHash:   "x",
		Name:           "Test User",
		Role:           domain.RoleClient,
		Balance:        balance,
		TotalSpent:     totalSpent,
		MembershipTier: tier,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func TestBookOffPeakFromBalance(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)

	// Monday morning is off peak.
	res, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-09", StartHour: 10})
	if err != nil {
		t.Fatalf("Book returned error: %v", err)
	}
	if res.Booking.Amount != pricing.OffPeakPrice {
		t.Fatalf("expected amount %d, got %d", pricing.OffPeakPrice, res.Booking.Amount)
	}
	if res.Booking.IsPeak {
		t.Fatal("expected off-peak booking")
	}
	if res.Booking.Status != domain.BookingConfirmed {
		t.Fatalf("expected confirmed, got %s", res.Booking.Status)
	}

	var after domain.User
	db.First(&after, "id = ?", u.ID)
	if after.Balance != 100000-pricing.OffPeakPrice {
		t.Fatalf("expected balance %d, got %d", 100000-pricing.OffPeakPrice, after.Balance)
	}
}

func TestBookPeakEvening(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)

	// Monday 19:00 is peak.
	res, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-09", StartHour: 19})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Booking.IsPeak || res.Booking.Amount != pricing.PeakPrice {
		t.Fatalf("expected peak %d, got peak=%v amount=%d", pricing.PeakPrice, res.Booking.IsPeak, res.Booking.Amount)
	}
}

func TestBookSameSlotTwiceConflicts(t *testing.T) {
	svc, db := setupTestService(t)
	u1 := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)
	u2 := createUser(t, db, "b@test.local", 100000, 0, pricing.TierRookie)

	if _, err := svc.Book(context.Background(), u1.ID, BookRequest{Date: "2025-06-10", StartHour: 15}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Book(context.Background(), u2.ID, BookRequest{Date: "2025-06-10", StartHour: 15})
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}

	// The loser is not charged.
	var after domain.User
	db.First(&after, "id = ?", u2.ID)
	if after.Balance != 100000 {
		t.Fatalf("losing booker was charged: balance=%d", after.Balance)
	}

	var cnt int64
	db.Model(&domain.Booking{}).
		Where("date = ? AND start_hour = ? AND status = ?", "2025-06-10", 15, domain.BookingConfirmed).
		Count(&cnt)
	if cnt != 1 {
		t.Fatalf("expected exactly one confirmed booking, got %d", cnt)
	}
}

func TestBookUpgradesMembership(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 100000, 99999, pricing.TierRookie)

	res, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-09", StartHour: 10})
	if err != nil {
		t.Fatal(err)
	}
	if !res.MembershipUpgraded || res.NewTier != pricing.TierPlayer {
		t.Fatalf("expected player upgrade, got upgraded=%v tier=%s", res.MembershipUpgraded, res.NewTier)
	}

	// The booking itself was still priced at the pre-upgrade tier.
	if res.Booking.Amount != pricing.OffPeakPrice {
		t.Fatalf("expected rookie price %d, got %d", pricing.OffPeakPrice, res.Booking.Amount)
	}
}

func TestBookInsufficientBalance(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 1000, 0, pricing.TierRookie)

	_, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-09", StartHour: 10})
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	var cnt int64
	db.Model(&domain.Booking{}).Count(&cnt)
	if cnt != 0 {
		t.Fatalf("expected no bookings, got %d", cnt)
	}
}

func TestBookPastSlotRejected(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)

	cases := []struct {
		date string
		hour int
	}{
		{"2025-05-31", 10}, // yesterday
		{"2025-06-01", 11}, // earlier today
		{"2025-06-01", 12}, // current hour already started
	}
	for _, tc := range cases {
		_, err := svc.Book(context.Background(), u.ID, BookRequest{Date: tc.date, StartHour: tc.hour})
		if !errors.Is(err, ErrPastSlot) {
			t.Fatalf("%s %02d:00: expected ErrPastSlot, got %v", tc.date, tc.hour, err)
		}
	}

	// 13:00 today has not started yet.
	if _, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-01", StartHour: 13}); err != nil {
		t.Fatalf("13:00 today should be bookable: %v", err)
	}
}

func TestCancelFutureBookingRefunds(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)

	res, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-13", StartHour: 19})
	if err != nil {
		t.Fatal(err)
	}

	cancel, err := svc.Cancel(context.Background(), res.Booking.ID, u.ID)
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancel.RefundedAmount != res.Booking.Amount {
		t.Fatalf("refund %d does not match booking amount %d", cancel.RefundedAmount, res.Booking.Amount)
	}

	var after domain.User
	db.First(&after, "id = ?", u.ID)
	if after.Balance != 100000 {
		t.Fatalf("expected balance restored to 100000, got %d", after.Balance)
	}

	b, err := svc.GetByID(context.Background(), res.Booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != domain.BookingCancelled {
		t.Fatalf("expected cancelled, got %s", b.Status)
	}

	// The slot is free again.
	if _, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-13", StartHour: 19}); err != nil {
		t.Fatalf("slot should be rebookable after cancel: %v", err)
	}
}

func TestCancelPastBookingRejected(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 0, 0, pricing.TierRookie)

	past := &domain.Booking{
		UserID:    u.ID,
		Date:      "2025-05-20",
		StartHour: 19,
		EndHour:   20,
		Status:    domain.BookingConfirmed,
		Amount:    pricing.PeakPrice,
		IsPeak:    true,
	}
	if err := db.Create(past).Error; err != nil {
		t.Fatal(err)
	}

	_, err := svc.Cancel(context.Background(), past.ID, u.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	var after domain.User
	db.First(&after, "id = ?", u.ID)
	if after.Balance != 0 {
		t.Fatalf("past cancel produced a refund: balance=%d", after.Balance)
	}

	b, _ := svc.GetByID(context.Background(), past.ID)
	if b.Status != domain.BookingConfirmed {
		t.Fatalf("past booking status changed to %s", b.Status)
	}
}

func TestCancelByNonOwnerForbidden(t *testing.T) {
	svc, db := setupTestService(t)
	owner := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)
	other := createUser(t, db, "b@test.local", 100000, 0, pricing.TierRookie)

	res, err := svc.Book(context.Background(), owner.ID, BookRequest{Date: "2025-06-13", StartHour: 19})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Cancel(context.Background(), res.Booking.ID, other.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCancelPendingRejected(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)

	b, err := svc.CreatePending(context.Background(), u.ID, "2025-06-13", 19, pricing.PeakPrice, true)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Cancel(context.Background(), b.ID, u.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestSettleRaceOneWinner(t *testing.T) {
	svc, db := setupTestService(t)
	u1 := createUser(t, db, "a@test.local", 0, 0, pricing.TierRookie)
	u2 := createUser(t, db, "b@test.local", 0, 0, pricing.TierRookie)

	// Two checkout attempts for the same slot, both pending.
	p1, err := svc.CreatePending(context.Background(), u1.ID, "2025-06-14", 20, pricing.PeakPrice, true)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := svc.CreatePending(context.Background(), u2.ID, "2025-06-14", 20, pricing.PeakPrice, true)
	if err != nil {
		t.Fatal(err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		_, won, err := svc.SettleTx(tx, p1.ID)
		if err != nil {
			return err
		}
		if !won {
			t.Fatal("first settle should win")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		b, won, err := svc.SettleTx(tx, p2.ID)
		if err != nil {
			return err
		}
		if won {
			t.Fatal("second settle should lose")
		}
		if b.Status != domain.BookingCancelled {
			t.Fatalf("losing booking should be cancelled, got %s", b.Status)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	var cnt int64
	db.Model(&domain.Booking{}).
		Where("date = ? AND start_hour = ? AND status = ?", "2025-06-14", 20, domain.BookingConfirmed).
		Count(&cnt)
	if cnt != 1 {
		t.Fatalf("expected exactly one confirmed booking, got %d", cnt)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 0, 0, pricing.TierRookie)

	p, err := svc.CreatePending(context.Background(), u.ID, "2025-06-14", 20, pricing.PeakPrice, true)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		err = db.Transaction(func(tx *gorm.DB) error {
			_, won, err := svc.SettleTx(tx, p.ID)
			if err != nil {
				return err
			}
			if !won {
				t.Fatalf("settle %d should report won", i)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpireDeletesPendingOnly(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)

	p, err := svc.CreatePending(context.Background(), u.ID, "2025-06-14", 20, pricing.PeakPrice, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Transaction(func(tx *gorm.DB) error { return svc.ExpireTx(tx, p.ID) }); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetByID(context.Background(), p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired pending to be gone, got %v", err)
	}

	res, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-14", StartHour: 21})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Transaction(func(tx *gorm.DB) error { return svc.ExpireTx(tx, res.Booking.ID) }); err != nil {
		t.Fatal(err)
	}
	b, err := svc.GetByID(context.Background(), res.Booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if b.Status != domain.BookingConfirmed {
		t.Fatalf("expire touched a confirmed booking: %s", b.Status)
	}
}

func TestCreatePendingRejectsConfirmedSlot(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 100000, 0, pricing.TierRookie)

	if _, err := svc.Book(context.Background(), u.ID, BookRequest{Date: "2025-06-14", StartHour: 20}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.CreatePending(context.Background(), u.ID, "2025-06-14", 20, pricing.PeakPrice, true)
	if !errors.Is(err, ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict, got %v", err)
	}
}

func TestListForUserOrdersByDateThenHour(t *testing.T) {
	svc, db := setupTestService(t)
	u := createUser(t, db, "a@test.local", 500000, 0, pricing.TierRookie)

	slots := []struct {
		date string
		hour int
	}{
		{"2025-06-14", 20},
		{"2025-06-09", 10},
		{"2025-06-09", 9},
	}
	for _, s := range slots {
		if _, err := svc.Book(context.Background(), u.ID, BookRequest{Date: s.date, StartHour: s.hour}); err != nil {
			t.Fatal(err)
		}
	}

	out, err := svc.ListForUser(context.Background(), u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(out))
	}
	if out[0].Date != "2025-06-09" || out[0].StartHour != 9 || out[2].Date != "2025-06-14" {
		t.Fatalf("unexpected order: %+v", out)
	}
}
