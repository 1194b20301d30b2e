package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"partyroom/internal/database"
	"partyroom/internal/domain"
	"partyroom/internal/modules/pricing"
	"partyroom/internal/pkg/hktime"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "partyroom.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	// Cleanup old data (safe order for foreign keys)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM visitor_events")
	db.Exec("DELETE FROM visitor_sessions")
	db.Exec("DELETE FROM transactions")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM users")

	// ================== USERS ==================
	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:          "admin@partyroom.hk",
		PasswordHash:   string(adminHash),
		Role:           domain.RoleAdmin,
		Name:           "Admin",
		MembershipTier: pricing.TierRookie,
	}
	db.Create(&admin)
	log.Println("Admin created: admin@partyroom.hk / admin123")

	clients := []domain.User{}
	seedClients := []struct {
		email   string
		name    string
		balance int64
		spent   int64
	}{
		{"mandy@partyroom.hk", "Mandy Chan", 200000, 0},
		{"ka.ho@partyroom.hk", "Ka Ho Wong", 50000, 150000},
		{"jason@partyroom.hk", "Jason Lam", 1000000, 850000},
	}
	for i, sc := range seedClients {
		hash, _ := bcrypt.GenerateFromPassword([]byte("client123"), bcrypt.DefaultCost)
		client := domain.User{
			Email:          sc.email,
			PasswordHash:   string(hash),
			Role:           domain.RoleClient,
			Name:           sc.name,
			Phone:          fmt.Sprintf("+852 9123 45%02d", i+10),
			Balance:        sc.balance,
			TotalSpent:     sc.spent,
			MembershipTier: pricing.TierFor(sc.spent).ID,
		}
		db.Create(&client)
		clients = append(clients, client)
		log.Printf("Client created: %s / client123 (tier %s)", sc.email, client.MembershipTier)
	}

	// ================== BOOKINGS ==================
	log.Println("Creating bookings...")

	today := hktime.SystemClock{}.Now().In(hktime.Location())
	for i, c := range clients {
		date := today.AddDate(0, 0, i+1).Format("2006-01-02")
		hour := 14 + i*2
		tier := pricing.TierByID(c.MembershipTier)
		isPeak, amount, err := pricing.Quote(tier, date, hour)
		if err != nil {
			log.Fatal(err)
		}

		b := domain.Booking{
			UserID:    c.ID,
			Date:      date,
			StartHour: hour,
			EndHour:   hour + 1,
			Status:    domain.BookingConfirmed,
			Amount:    amount,
			IsPeak:    isPeak,
		}
		db.Create(&b)

		db.Create(&domain.Transaction{
			UserID:      c.ID,
			Type:        domain.TransactionBooking,
			Amount:      -amount,
			Description: fmt.Sprintf("Booking: %s %02d:00-%02d:00", date, hour, hour+1),
		})
	}

	log.Printf("Seed finished at %s", time.Now().Format(time.RFC3339))
}
