package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultAccessTokenTTL is how long issued access tokens stay valid.
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL is how long issued refresh tokens (and the
	// sessions backing them) stay valid.
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	minProductionSecretLen = 32
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env             string
	ServerPort      string
	MySQLDSN        string
	RedisAddr       string
	RedisDB         int
	RedisPass       string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	SwaggerHost     string
}

// Load builds Config from environment with sensible development defaults.
func Load() *Config {
	return &Config{
		Env:             getEnv("APP_ENV", "development"),
		ServerPort:      getEnv("SERVER_PORT", "8000"),
		MySQLDSN:        getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/auth?charset=utf8mb4&parseTime=True&loc=Local"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RedisPass:       os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AccessTokenTTL:  getEnvDuration("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
		RefreshTokenTTL: getEnvDuration("REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL),
		SwaggerHost:     os.Getenv("SWAGGER_HOST"),
	}
}

// IsDev reports whether the process runs outside production. Cookie security
// attributes key off this.
func (c *Config) IsDev() bool {
	return c.Env != "production"
}

// Validate fails fast on configuration that must not reach production.
func (c *Config) Validate() error {
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.IsDev() {
		return nil
	}
	if os.Getenv("JWT_SECRET") == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if len(c.JWTSecret) < minProductionSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in production", minProductionSecretLen)
	}
	if os.Getenv("MYSQL_DSN") == "" {
		return fmt.Errorf("MYSQL_DSN is required in production")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
