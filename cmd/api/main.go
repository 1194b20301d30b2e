package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"partyroom/internal/config"
	"partyroom/internal/database"
	"partyroom/internal/metrics"
	"partyroom/internal/middleware"
	"partyroom/internal/modules/auth"
	"partyroom/internal/modules/booking"
	"partyroom/internal/modules/ledger"
	"partyroom/internal/modules/payment"
	"partyroom/internal/modules/slots"
	"partyroom/internal/modules/tracking"
	"partyroom/internal/pkg/hktime"
	jwtsvc "partyroom/internal/pkg/jwt"
	"partyroom/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	metrics.Register()

	clock := hktime.SystemClock{}
	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	ledgerService := ledger.NewService(db)

	trackingService := tracking.NewService(db, clock)
	trackingHandler := tracking.NewHandler(trackingService, log.Printf)

	authService := auth.NewService(userRepo, j, trackingService, log.Printf)
	authHandler := auth.NewHandler(authService, ledgerService)

	bookingService := booking.NewService(db, ledgerService, clock)
	bookingHandler := booking.NewHandler(bookingService)

	slotsService := slots.NewService(bookingRepo, clock)
	slotsHandler := slots.NewHandler(slotsService, slots.FakeBusy{
		Percent: cfg.FakeBusyPercent,
		Salt:    "partyroom",
	})

	checkoutClient := payment.NewCheckoutClient(
		cfg.CheckoutBaseURL,
		cfg.CheckoutAPIKey,
		cfg.CheckoutWebhookSecret,
		cfg.CheckoutSuccessURL,
		cfg.CheckoutCancelURL,
	)
	paymentService := payment.NewService(db, userRepo, bookingService, ledgerService, checkoutClient, "hkd", log.Printf)
	paymentHandler := payment.NewHandler(paymentService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterRoutes(v1)
		slotsHandler.RegisterRoutes(v1)
		trackingHandler.RegisterRoutes(v1)
		paymentHandler.RegisterWebhookRoutes(v1)

		// protected
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProfileRoutes(protected)
			bookingHandler.RegisterRoutes(protected)
			paymentHandler.RegisterRoutes(protected)
		}

		// admin
		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(j), middleware.AdminOnly())
		{
			bookingHandler.RegisterAdminRoutes(admin)
		}
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
