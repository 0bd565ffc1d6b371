package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultPort         = "8080"
	defaultDatabaseURL  = "workshops.db"
	defaultBaseURL      = "http://localhost:8080"
	defaultJWTSecret    = "change-me-jwt-secret"
	defaultJWTTTL       = "12h"
	defaultConfirmTTL   = "48h"
	defaultOperatorMail = "bookings@localhost"
)

type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	// BaseURL is the public origin used in confirmation links.
	BaseURL   string
	JWTSecret string
	JWTTTL    time.Duration
	// ConfirmTTL bounds how long a booking stays confirmable via its
	// token. Admin confirmation ignores it.
	ConfirmTTL time.Duration
	// OperatorEmail receives the new-confirmed-booking notifications.
	OperatorEmail string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = getEnv("PORT", defaultPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", defaultDatabaseURL)
	cfg.BaseURL = strings.TrimRight(getEnv("BASE_URL", defaultBaseURL), "/")
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.OperatorEmail = strings.TrimSpace(getEnv("OPERATOR_EMAIL", defaultOperatorMail))

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	cfg.ConfirmTTL, err = parseDurationEnv("CONFIRM_TTL", defaultConfirmTTL)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.ConfirmTTL <= 0 {
		return fmt.Errorf("CONFIRM_TTL must be > 0")
	}
	if IsProdLike(cfg.AppEnv) && cfg.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
	}
	return nil
}

func IsProdLike(env string) bool {
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
