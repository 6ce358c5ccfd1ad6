package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultDatabaseURL   = "campsite.db"
	defaultStoreBackend  = "sql"
	defaultRedisAddr     = "localhost:6379"
	defaultCatalogPath   = "sites.json"
	defaultListenAddr    = ":8080"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultAdminUser     = "admin"
	defaultAdminPassword = "change-me-admin"
	defaultJWTTTL        = "24h"
	defaultStaleAfter    = "60m"
	defaultStoreTimeout  = "10s"
)

type Config struct {
	AppEnv string

	DatabaseURL    string
	StoreBackend   string // sql | redis
	RedisAddr      string
	RedisPassword  string
	RedisKeyPrefix string

	CatalogPath string
	ListenAddr  string

	JWTSecret         string
	JWTTTL            time.Duration
	AdminUser         string
	AdminPasswordHash string

	// SessionStaleAfter is the store-session age past which the adapter
	// reconnects before the next mutating operation.
	SessionStaleAfter time.Duration
	// StoreOpTimeout bounds every store call.
	StoreOpTimeout time.Duration
}

// Load reads configuration from the environment, picking up a local .env
// file first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	cfg := &Config{
		AppEnv:         strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev"))),
		DatabaseURL:    getEnv("DATABASE_URL", defaultDatabaseURL),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", defaultStoreBackend)),
		RedisAddr:      getEnv("REDIS_ADDR", defaultRedisAddr),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "campsite"),
		CatalogPath:    getEnv("CATALOG_PATH", defaultCatalogPath),
		ListenAddr:     getEnv("LISTEN_ADDR", defaultListenAddr),
		JWTSecret:      strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
		AdminUser:      strings.TrimSpace(getEnv("ADMIN_USER", defaultAdminUser)),
	}

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.SessionStaleAfter, err = parseDurationEnv("SESSION_STALE_AFTER", defaultStaleAfter); err != nil {
		return nil, err
	}
	if cfg.StoreOpTimeout, err = parseDurationEnv("STORE_OP_TIMEOUT", defaultStoreTimeout); err != nil {
		return nil, err
	}

	cfg.AdminPasswordHash = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH"))
	if cfg.AdminPasswordHash == "" {
		password := getEnv("ADMIN_PASSWORD", defaultAdminPassword)
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		cfg.AdminPasswordHash = string(hash)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.StoreBackend != "sql" && cfg.StoreBackend != "redis" {
		return fmt.Errorf("STORE_BACKEND must be sql or redis, got %q", cfg.StoreBackend)
	}
	if cfg.SessionStaleAfter <= 0 {
		return fmt.Errorf("SESSION_STALE_AFTER must be > 0")
	}
	if cfg.StoreOpTimeout <= 0 {
		return fmt.Errorf("STORE_OP_TIMEOUT must be > 0")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("in prod JWT_SECRET must be set and not default")
		}
		if os.Getenv("ADMIN_PASSWORD_HASH") == "" && getEnv("ADMIN_PASSWORD", defaultAdminPassword) == defaultAdminPassword {
			return fmt.Errorf("in prod ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
		}
	}
	return nil
}

func isProdLike(env string) bool {
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
