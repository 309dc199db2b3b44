// Command seed creates the bootstrap admin user and prints an access
// token for it.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/event-bookings/internal/config"
	"github.com/iliyamo/event-bookings/internal/database"
	"github.com/iliyamo/event-bookings/internal/model"
	"github.com/iliyamo/event-bookings/internal/repository"
	"github.com/iliyamo/event-bookings/internal/utils"
)

func main() {
	cfg := config.Load()
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		log.Fatal("seed: SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	id, created, err := users.EnsureAdmin(ctx, cfg.SeedAdminName, cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if created {
		log.Printf("seed: created admin %s (id=%d)", cfg.SeedAdminEmail, id)
	} else {
		log.Printf("seed: admin %s already exists (id=%d)", cfg.SeedAdminEmail, id)
	}

	at, err := utils.NewAccessToken(cfg.JWTSecret, id, model.RoleAdmin, cfg.AccessTTLMin)
	if err != nil {
		log.Fatalf("seed: sign token: %v", err)
	}
	fmt.Printf("access_token=%s\nexpires_at=%s\n", at.Token, at.Exp.Format(time.RFC3339))
}
