package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/EricNguyen1206/fastify-auth/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/EricNguyen1206/fastify-auth/internal/auth"
	"github.com/EricNguyen1206/fastify-auth/internal/cache"
	"github.com/EricNguyen1206/fastify-auth/internal/config"
	"github.com/EricNguyen1206/fastify-auth/internal/db"
	"github.com/EricNguyen1206/fastify-auth/internal/handler"
	"github.com/EricNguyen1206/fastify-auth/internal/model"
	"github.com/EricNguyen1206/fastify-auth/internal/repository"
	"github.com/EricNguyen1206/fastify-auth/internal/router"
	"github.com/EricNguyen1206/fastify-auth/internal/service"
)

// @title Auth Service API
// @version 1.0
// @description Credential authentication service with cookie-based JWT sessions.
// @host localhost:8000
// @schemes http
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("database handle: %v", err)
	}
	defer sqlDB.Close()

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Session{},
			&model.UserRole{},
			&model.Role{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.UserRole{},
		&model.Session{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	sessionRepo := repository.NewSessionRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)

	// Seed default roles; safe to repeat on every boot.
	if err := roleRepo.EnsureDefaultRoles(context.Background()); err != nil {
		log.Printf("Warning: seed default roles: %v", err)
	}

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionRepo, roleRepo, jwtService)
	userService := service.NewUserService(userRepo, cacheClient)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, cfg)
	userHandler := handler.NewUserHandler(userService)
	maintenanceHandler := handler.NewMaintenanceHandler(authService)

	// Register routes
	router.Register(
		e,
		cfg,
		authHandler,
		userHandler,
		maintenanceHandler,
	)

	if cfg.SwaggerHost != "" {
		log.Printf("Swagger documentation available at: %s/swagger/index.html", cfg.SwaggerHost)
	} else {
		log.Printf("Swagger documentation available at: http://localhost:%s/swagger/index.html", cfg.ServerPort)
	}

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
