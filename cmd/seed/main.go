package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"workshopdesk/internal/config"
	"workshopdesk/internal/database"
	"workshopdesk/internal/domain"
	"workshopdesk/internal/modules/auth"
	"workshopdesk/internal/repository"
)

// Seeds the schema, a staff account and a small demo catalog. Safe to
// run repeatedly; duplicate rows are skipped.
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
	log.Println("schema migrated")

	ctx := context.Background()

	seedAdmin(ctx, repository.NewAdminRepository(db))
	seedWorkshops(ctx, repository.NewWorkshopRepository(db))
	seedDiscountCodes(ctx, repository.NewDiscountCodeRepository(db))
}

func seedAdmin(ctx context.Context, admins *repository.AdminRepository) {
	email := envOr("SEED_ADMIN_EMAIL", "admin@localhost")
	password := envOr("SEED_ADMIN_PASSWORD", "admin12345")

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatal(err)
	}

	a := &domain.AdminUser{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
	}
	if err := admins.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Printf("admin %s already exists, skipping", email)
			return
		}
		log.Fatal(err)
	}
	log.Printf("admin %s created", email)
}

func seedWorkshops(ctx context.Context, workshops *repository.WorkshopRepository) {
	existing, err := workshops.ListAll(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if len(existing) > 0 {
		log.Printf("%d workshops already present, skipping", len(existing))
		return
	}

	demo := []domain.Workshop{
		{
			Title:          "Intro to Wheel Throwing",
			Description:    "A hands-on first session at the pottery wheel.",
			Capacity:       10,
			PricePerPerson: 50.00,
			Currency:       "EUR",
			Active:         true,
		},
		{
			Title:          "Glazing Basics",
			Description:    "Glaze chemistry and application techniques.",
			Capacity:       8,
			PricePerPerson: 35.00,
			Currency:       "EUR",
			Active:         true,
		},
		{
			Title:          "Open Studio Evening",
			Description:    "Self-guided practice time, no seat limit.",
			Capacity:       0,
			PricePerPerson: 15.00,
			Currency:       "EUR",
			Active:         true,
		},
	}
	for i := range demo {
		if err := workshops.Create(ctx, &demo[i]); err != nil {
			log.Fatal(err)
		}
		log.Printf("workshop %q created", demo[i].Title)
	}
}

func seedDiscountCodes(ctx context.Context, codes *repository.DiscountCodeRepository) {
	expires := time.Now().AddDate(0, 3, 0)

	demo := []domain.DiscountCode{
		{
			Code:      "SPRING25",
			Type:      domain.DiscountPercent,
			Value:     25,
			Active:    true,
			ExpiresAt: &expires,
		},
		{
			Code:            "FLAT10",
			Type:            domain.DiscountFixed,
			Value:           10,
			Active:          true,
			MaxUsesPerEmail: 1,
		},
		{
			Code:            "GROUP5",
			Type:            domain.DiscountPercent,
			Value:           10,
			Active:          true,
			MinParticipants: 5,
		},
	}
	for i := range demo {
		if err := codes.Create(ctx, &demo[i]); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				log.Printf("code %s already exists, skipping", demo[i].Code)
				continue
			}
			log.Fatal(err)
		}
		log.Printf("discount code %s created", demo[i].Code)
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
