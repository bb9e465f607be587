package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all environment-supplied application configuration.
type Config struct {
	Environment string
	Port        string

	// Database
	PostgresDSN string

	// Token signing
	AccessTokenSecret string

	// Stripe
	StripeSecretKey string

	// Outbound email
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	// CORS
	AllowedOrigins []string

	Debug bool
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one exists for the current environment.
func LoadConfig() *Config {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	switch env {
	case "production":
		_ = godotenv.Load(".env.production", ".env")
	default:
		_ = godotenv.Load(".env.local", ".env")
	}

	config := &Config{
		Environment:       getEnvWithDefault("ENVIRONMENT", "development"),
		Port:              getEnvWithDefault("PORT", "5000"),
		AccessTokenSecret: getEnvWithDefault("ACCESS_TOKEN_SECRET", "dev-access-token-secret"),
		Debug:             getEnvBool("DEBUG", false),
	}

	// Trim whitespace to avoid trailing spaces/newlines from env sources
	config.PostgresDSN = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	config.StripeSecretKey = strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY"))

	config.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	config.SMTPPort = getEnvInt("SMTP_PORT", 587)
	config.SMTPUser = strings.TrimSpace(os.Getenv("SMTP_USER"))
	config.SMTPPassword = os.Getenv("SMTP_PASS")
	config.MailFrom = getEnvWithDefault("MAIL_FROM", "no-reply@picotask.local")

	allowedOrigins := getEnvWithDefault("ALLOWED_ORIGINS", "*")
	if allowedOrigins == "*" {
		config.AllowedOrigins = []string{"*"}
	} else {
		config.AllowedOrigins = strings.Split(allowedOrigins, ",")
	}

	if config.Environment == "production" {
		config.Debug = false
	}

	return config
}

// Cached config (initialized once per process)
var (
	cachedConfig *Config
	configOnce   sync.Once
)

// GetCached returns the process-wide cached Config.
func GetCached() *Config {
	configOnce.Do(func() {
		cachedConfig = LoadConfig()
	})
	return cachedConfig
}

// Validate checks that the configuration is usable for the current environment.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.AccessTokenSecret == "" || c.AccessTokenSecret == "dev-access-token-secret" {
		if c.Environment == "production" {
			return fmt.Errorf("ACCESS_TOKEN_SECRET must be set in production")
		}
		fmt.Println("WARNING: using default token secret (not for production)")
	}

	if c.PostgresDSN == "" && c.Environment == "production" {
		return fmt.Errorf("POSTGRES_DSN is required in production")
	}

	return nil
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
