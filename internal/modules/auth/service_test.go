package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"partyroom/internal/database"
	"partyroom/internal/domain"
	"partyroom/internal/modules/pricing"
	jwtsvc "partyroom/internal/pkg/jwt"
	"partyroom/internal/repository"
)

type stubLinker struct {
	linked map[string]uuid.UUID
	err    error
}

func (s *stubLinker) LinkUser(_ context.Context, visitorID string, userID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	if s.linked == nil {
		s.linked = map[string]uuid.UUID{}
	}
	s.linked[visitorID] = userID
	return nil
}

func setupTestService(t *testing.T, linker VisitorLinker) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	j := jwtsvc.New("test-secret", time.Hour)
	return NewService(repository.NewUserRepository(db), j, linker, nil), db
}

func TestSignupCreatesRookieClient(t *testing.T) {
	linker := &stubLinker{}
	svc, db := setupTestService(t, linker)

	user, err := svc.Signup(context.Background(), SignupRequest{
		Email:     "Mandy@Example.COM",
		Password:  "secret123",
		Name:      "Mandy",
		VisitorID: "v-1",
	})
	if err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}
	if user.Email != "mandy@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.Role != domain.RoleClient || user.MembershipTier != pricing.TierRookie {
		t.Fatalf("unexpected defaults: role=%s tier=%s", user.Role, user.MembershipTier)
	}
	if user.Balance != 0 || user.TotalSpent != 0 {
		t.Fatalf("new account not zeroed: balance=%d spent=%d", user.Balance, user.TotalSpent)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash leaked in response")
	}
	if linker.linked["v-1"] != user.ID {
		t.Fatal("visitor session not linked")
	}

	var stored domain.User
	db.First(&stored, "id = ?", user.ID)
	if stored.PasswordHash == "" || stored.PasswordHash == "secret123" {
		t.Fatal("password not stored as a hash")
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := setupTestService(t, nil)

	req := SignupRequest{Email: "a@test.local", Password: "secret123", Name: "A"}
	if _, err := svc.Signup(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Signup(context.Background(), req)
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupSurvivesLinkerFailure(t *testing.T) {
	svc, _ := setupTestService(t, &stubLinker{err: errors.New("analytics down")})

	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:     "a@test.local",
		Password:  "secret123",
		Name:      "A",
		VisitorID: "v-1",
	})
	if err != nil {
		t.Fatalf("signup failed because of analytics: %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := setupTestService(t, nil)

	if _, err := svc.Signup(context.Background(), SignupRequest{Email: "a@test.local", Password: "secret123", Name: "A"}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Login(context.Background(), LoginRequest{Email: "A@test.local", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected a token")
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@test.local", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@test.local", Password: "secret123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}
