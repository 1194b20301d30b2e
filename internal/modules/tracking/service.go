package tracking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partyroom/internal/domain"
	"partyroom/internal/pkg/hktime"
)

// Service records anonymous visitor activity. It sits entirely outside
// the money paths; callers are expected to treat its errors as
// log-and-continue.
type Service struct {
	db    *gorm.DB
	clock hktime.Clock
}

func NewService(db *gorm.DB, clock hktime.Clock) *Service {
	return &Service{db: db, clock: clock}
}

// StartSession upserts the session row for a visitor. Repeat calls with
// the same visitor id only bump last_active_at.
func (s *Service) StartSession(ctx context.Context, req StartSessionRequest, userAgent, ip string) (*domain.VisitorSession, error) {
	now := s.clock.Now().In(hktime.Location())
	session := &domain.VisitorSession{
		VisitorID:    req.VisitorID,
		UserAgent:    userAgent,
		IPAddress:    ip,
		Referrer:     req.Referrer,
		LandingPage:  req.LandingPage,
		LastActiveAt: now,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "visitor_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_active_at": now}),
	}).Create(session).Error
	if err != nil {
		return nil, err
	}

	var saved domain.VisitorSession
	if err := s.db.WithContext(ctx).Where("visitor_id = ?", req.VisitorID).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// LinkUser connects a visitor session to a signed-up user. Missing
// sessions are not an error; there is simply nothing to link.
func (s *Service) LinkUser(ctx context.Context, visitorID string, userID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&domain.VisitorSession{}).
		Where("visitor_id = ?", visitorID).
		Updates(map[string]interface{}{
			"user_id":        userID,
			"last_active_at": s.clock.Now().In(hktime.Location()),
		}).Error
}

func (s *Service) RecordEvent(ctx context.Context, req EventRequest) error {
	event := &domain.VisitorEvent{
		VisitorID: req.VisitorID,
		EventType: req.EventType,
		EventData: req.EventData,
		Page:      req.Page,
		Element:   req.Element,
	}
	return s.db.WithContext(ctx).Create(event).Error
}
