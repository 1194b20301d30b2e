package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"partyroom/internal/database"
	"partyroom/internal/domain"
	"partyroom/internal/modules/pricing"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type jwtService interface {
	GenerateToken(userID uuid.UUID, role string) (string, error)
}

// VisitorLinker attaches a pre-signup analytics session to the new user.
// Strictly best effort: a failure here must never fail the signup.
type VisitorLinker interface {
	LinkUser(ctx context.Context, visitorID string, userID uuid.UUID) error
}

type Service struct {
	users    UserRepository
	jwt      jwtService
	visitors VisitorLinker
	loggerf  func(format string, args ...interface{})
}

func NewService(users UserRepository, jwt jwtService, visitors VisitorLinker, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{users: users, jwt: jwt, visitors: visitors, loggerf: loggerf}
}

type LoginResult struct {
	User  *domain.User
	Token string
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:   string(hash),
		Name:           req.Name,
		Phone:          req.Phone,
		Role:           domain.RoleClient,
		MembershipTier: pricing.TierRookie,
		VisitorID:      req.VisitorID,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	if req.VisitorID != "" && s.visitors != nil {
		if err := s.visitors.LinkUser(ctx, req.VisitorID, user.ID); err != nil {
			s.loggerf("level=warn msg=visitor session link failed visitor_id=%s err=%v", req.VisitorID, err)
		}
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, Token: token}, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}
