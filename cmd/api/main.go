package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"workshopdesk/internal/config"
	"workshopdesk/internal/database"
	"workshopdesk/internal/middleware"
	"workshopdesk/internal/modules/auth"
	"workshopdesk/internal/modules/booking"
	"workshopdesk/internal/modules/catalog"
	"workshopdesk/internal/modules/discount"
	"workshopdesk/internal/modules/livefeed"
	"workshopdesk/internal/notifier"
	jwtsvc "workshopdesk/internal/pkg/jwt"
	"workshopdesk/internal/repository"
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
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	workshopRepo := repository.NewWorkshopRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	codeRepo := repository.NewDiscountCodeRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	outboxRepo := repository.NewEmailOutboxRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	hub := livefeed.NewHub()
	defer hub.Close()
	notifs := notifier.New(outboxRepo, hub, cfg.BaseURL)

	discountService := discount.NewService(codeRepo)
	bookingService := booking.NewService(
		bookingRepo,
		workshopRepo,
		discountService,
		notifs,
		cfg.ConfirmTTL,
		cfg.OperatorEmail,
	)
	catalogService := catalog.NewService(workshopRepo, bookingService)
	authService := auth.NewService(adminRepo, j)

	discountHandler := discount.NewHandler(discountService)
	bookingHandler := booking.NewHandler(bookingService)
	catalogHandler := catalog.NewHandler(catalogService)
	authHandler := auth.NewHandler(authService)
	feedHandler := livefeed.NewHandler(hub, j)

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)
		catalogHandler.RegisterRoutes(v1)
		bookingHandler.RegisterRoutes(v1)
		discountHandler.RegisterRoutes(v1)

		admin := v1.Group("/admin")
		admin.Use(middleware.JWTAuth(j), middleware.StaffOnly())
		{
			catalogHandler.RegisterAdminRoutes(admin)
			bookingHandler.RegisterAdminRoutes(admin)
			discountHandler.RegisterAdminRoutes(admin)
		}

		// Websockets cannot send an Authorization header; the feed
		// handler validates its token from the query string itself.
		feedHandler.RegisterAdminRoutes(v1.Group("/admin"))
	}

	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
