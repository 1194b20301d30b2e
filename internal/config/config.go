package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort         = "8080"
	defaultJWTTTL       = "24h"
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultCheckoutBase = "https://checkout.example.com"
	defaultFakeBusyPct  = "0"
)

type Config struct {
	Port        string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	// Hosted checkout collaborator.
	CheckoutBaseURL       string
	CheckoutAPIKey        string
	CheckoutWebhookSecret string
	CheckoutSuccessURL    string
	CheckoutCancelURL     string

	// Presentation-only fake occupancy, percent of free slots shown as
	// booked. Zero disables the decorator.
	FakeBusyPercent int
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", defaultPort),
		DatabaseURL:           strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:             strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
		CheckoutBaseURL:       getEnv("CHECKOUT_BASE_URL", defaultCheckoutBase),
		CheckoutAPIKey:        strings.TrimSpace(os.Getenv("CHECKOUT_API_KEY")),
		CheckoutWebhookSecret: strings.TrimSpace(os.Getenv("CHECKOUT_WEBHOOK_SECRET")),
		CheckoutSuccessURL:    os.Getenv("CHECKOUT_SUCCESS_URL"),
		CheckoutCancelURL:     os.Getenv("CHECKOUT_CANCEL_URL"),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "partyroom.db"
	}

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	pct, err := strconv.Atoi(getEnv("FAKE_BUSY_PERCENT", defaultFakeBusyPct))
	if err != nil || pct < 0 || pct > 100 {
		return nil, fmt.Errorf("FAKE_BUSY_PERCENT must be an integer 0-100")
	}
	cfg.FakeBusyPercent = pct

	return cfg, nil
}

func getEnv(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(name, def string) (time.Duration, error) {
	raw := getEnv(name, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
