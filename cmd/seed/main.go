package main

import (
	"context"
	"flag"
	"log"

	"github.com/EricNguyen1206/fastify-auth/internal/config"
	"github.com/EricNguyen1206/fastify-auth/internal/db"
	"github.com/EricNguyen1206/fastify-auth/internal/model"
	"github.com/EricNguyen1206/fastify-auth/internal/repository"
)

// Seeds the default roles and optionally sweeps expired sessions. Both
// operations are idempotent, so the command is safe to run repeatedly,
// e.g. from a cron job.
func main() {
	sweep := flag.Bool("sweep", false, "also delete expired sessions")
	flag.Parse()

	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Role{}, &model.UserRole{}, &model.Session{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()

	roleRepo := repository.NewRoleRepository(gormDB)
	if err := roleRepo.EnsureDefaultRoles(ctx); err != nil {
		log.Fatalf("Failed to seed default roles: %v", err)
	}
	log.Println("Default roles seeded")

	if *sweep {
		sessionRepo := repository.NewSessionRepository(gormDB)
		count, err := sessionRepo.DeleteExpired(ctx)
		if err != nil {
			log.Fatalf("Failed to sweep expired sessions: %v", err)
		}
		log.Printf("Removed %d expired sessions", count)
	}

	log.Println("Seed script completed")
}
