package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration values.
type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Invoice  InvoiceConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	AppEnv     string
	HTTPPort   string
	CORSOrigin string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type DatabaseConfig struct {
	Driver         string
	DSN            string
	MaxOpenConns   int
	StorageTimeout time.Duration
}

type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type InvoiceConfig struct {
	Prefix        string
	IssuerName    string
	IssuerTagline string
}

type SeedConfig struct {
	Demo        bool
	ProductsCSV string
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development"
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	port := getEnv("HTTP_PORT", "8080")
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	appEnv := getEnv("APP_ENV", "development")
	level, encoding := "info", "json"
	if appEnv == "development" {
		level, encoding = "debug", "console"
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", "sqlite"))
	dsn := os.Getenv("DATABASE_DSN")
	maxOpen := 1
	if driver == "pgx" {
		maxOpen = 10
		if dsn == "" {
			dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
				getEnv("DB_USER", "postgres"),
				getEnv("DB_PASSWORD", ""),
				getEnv("DB_HOST", "localhost"),
				getEnv("DB_PORT", "5432"),
				getEnv("DB_NAME", "makemybill"),
				getEnv("DB_SSLMODE", "disable"),
			)
		}
	} else if dsn == "" {
		dsn = "file:makemybill.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	return Config{
		Server: ServerConfig{
			AppEnv:     appEnv,
			HTTPPort:   port,
			CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOG_LEVEL", level),
			Encoding:          getEnv("LOG_ENCODING", encoding),
			DisableCaller:     getEnvBool("LOG_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOG_DISABLE_STACKTRACE", true),
		},
		Database: DatabaseConfig{
			Driver:         driver,
			DSN:            dsn,
			MaxOpenConns:   getEnvInt("DB_MAX_OPEN_CONNS", maxOpen),
			StorageTimeout: getEnvDuration("STORAGE_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			Secret:   getEnv("SECRET", "dev_secret"),
			TokenTTL: getEnvDuration("TOKEN_TTL", 7*24*time.Hour),
		},
		Invoice: InvoiceConfig{
			Prefix:        getEnv("INVOICE_PREFIX", "INV"),
			IssuerName:    getEnv("ISSUER_NAME", "Make My Bill"),
			IssuerTagline: getEnv("ISSUER_TAGLINE", "Professional Billing & POS System"),
		},
		Seed: SeedConfig{
			Demo:        getEnvBool("SEED_DEMO", true),
			ProductsCSV: os.Getenv("SEED_PRODUCTS_CSV"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Printf("invalid %s value %q, defaulting to %d", key, value, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		log.Printf("invalid %s value %q, defaulting to %s", key, value, fallback)
	}
	return fallback
}
