package payment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"partyroom/internal/domain"
)

type userReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type bookingStore interface {
	CreatePending(ctx context.Context, userID uuid.UUID, date string, hour int, amount int64, isPeak bool) (*domain.Booking, error)
	SettleTx(tx *gorm.DB, bookingID uuid.UUID) (b *domain.Booking, won bool, err error)
	ExpireTx(tx *gorm.DB, bookingID uuid.UUID) error
}
