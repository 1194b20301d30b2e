package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partyroom/internal/domain"
	"partyroom/internal/modules/pricing"
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUserNotFound        = errors.New("user not found")
)

// Service applies money movement to a user together with the matching
// audit transaction row. Every method ending in Tx must run inside a
// caller-owned database transaction: the user mutation, the ledger row
// and whatever the caller changes alongside them commit or roll back as
// one unit.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SpendResult reports the ledger side effects of a confirmed payment.
type SpendResult struct {
	NewTotalSpent int64
	NewTier       string
	TierUpgraded  bool
}

// ApplySpendTx records a confirmed payment: raises total_spent, recomputes
// the membership tier (upward only), optionally debits the prepaid
// balance, and appends the booking transaction row. paymentRef, when set,
// makes the row the idempotency anchor for webhook redelivery.
func (s *Service) ApplySpendTx(tx *gorm.DB, userID uuid.UUID, amount int64, description string, paymentRef *string, debitBalance bool) (*SpendResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var user domain.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	updates := map[string]any{}

	if debitBalance {
		if user.Balance < amount {
			return nil, ErrInsufficientBalance
		}
		updates["balance"] = user.Balance - amount
	}

	newTotal := user.TotalSpent + amount
	updates["total_spent"] = newTotal

	newTier := user.MembershipTier
	upgraded := false
	if computed := pricing.TierFor(newTotal); pricing.Rank(computed.ID) > pricing.Rank(user.MembershipTier) {
		newTier = computed.ID
		upgraded = true
		updates["membership_tier"] = newTier
	}

	if err := tx.Model(&domain.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return nil, err
	}

	txn := domain.Transaction{
		UserID:      user.ID,
		Type:        domain.TransactionBooking,
		Amount:      -amount,
		Description: description,
		PaymentRef:  paymentRef,
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}

	return &SpendResult{NewTotalSpent: newTotal, NewTier: newTier, TierUpgraded: upgraded}, nil
}

// RefundTx credits a cancelled booking's amount back to the balance with
// a matching refund row of equal magnitude.
func (s *Service) RefundTx(tx *gorm.DB, userID uuid.UUID, amount int64, description string, paymentRef *string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var user domain.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := tx.Model(&domain.User{}).Where("id = ?", user.ID).Update("balance", user.Balance+amount).Error; err != nil {
		return err
	}

	txn := domain.Transaction{
		UserID:      user.ID,
		Type:        domain.TransactionRefund,
		Amount:      amount,
		Description: description,
		PaymentRef:  paymentRef,
	}
	return tx.Create(&txn).Error
}

// CreditTopupTx credits an externally paid top-up to the balance.
func (s *Service) CreditTopupTx(tx *gorm.DB, userID uuid.UUID, amount int64, description string, paymentRef *string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	var user domain.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := tx.Model(&domain.User{}).Where("id = ?", user.ID).Update("balance", user.Balance+amount).Error; err != nil {
		return err
	}

	txn := domain.Transaction{
		UserID:      user.ID,
		Type:        domain.TransactionTopup,
		Amount:      amount,
		Description: description,
		PaymentRef:  paymentRef,
	}
	return tx.Create(&txn).Error
}

// HasPaymentRefTx reports whether a ledger row already carries the
// external payment reference. Webhook delivery is at-least-once; a known
// reference means the event was fully processed before.
func (s *Service) HasPaymentRefTx(tx *gorm.DB, paymentRef string) (bool, error) {
	var cnt int64
	if err := tx.Model(&domain.Transaction{}).Where("payment_ref = ?", paymentRef).Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

// ListRecent returns the newest ledger rows for a user.
func (s *Service) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
