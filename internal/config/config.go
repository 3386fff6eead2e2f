package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	ServerPort  string
	DatabaseURL string
	RedisURL    string
	LogLevel    string

	// Tokens
	JWTSecret           string
	JWTExpiry           time.Duration
	ConfirmationCodeTTL time.Duration

	// Mail delivery of confirmation codes
	MailBackend    string
	MailOutboxPath string
	MailQueueKey   string
	MailFrom       string

	CORSOrigins    []string
	MetricsEnabled bool

	// Rate limiting
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

const (
	MailBackendFile  = "file"
	MailBackendRedis = "redis"
	MailBackendLog   = "log"
)

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	// (Docker containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	jwtExpiry, err := getEnvAsDuration("JWT_EXPIRY", "24h")
	if err != nil {
		return nil, err
	}
	codeTTL, err := getEnvAsDuration("CONFIRMATION_CODE_TTL", "72h")
	if err != nil {
		return nil, err
	}
	rateLimitWindow, err := getEnvAsDuration("RATE_LIMIT_WINDOW", "1m")
	if err != nil {
		return nil, err
	}
	rateLimitMax, err := getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100)
	if err != nil {
		return nil, err
	}
	metricsEnabled, err := getEnvAsBool("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	env := getEnv("ENVIRONMENT", "development")
	defaultLevel := "info"
	if env == "development" {
		defaultLevel = "debug"
	}

	cfg := &Config{
		Environment: env,
		ServerPort:  getEnv("SERVER_PORT", ":8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:yamdb.db?_foreign_keys=on"),
		RedisURL:    os.Getenv("REDIS_URL"),
		LogLevel:    getEnv("LOG_LEVEL", defaultLevel),

		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTExpiry:           jwtExpiry,
		ConfirmationCodeTTL: codeTTL,

		MailBackend:    getEnv("MAIL_BACKEND", MailBackendFile),
		MailOutboxPath: getEnv("MAIL_OUTBOX_PATH", "data/sent_emails.log"),
		MailQueueKey:   getEnv("MAIL_QUEUE_KEY", "mail:outbox"),
		MailFrom:       getEnv("DEFAULT_FROM_EMAIL", "noreply@yamdb.local"),

		CORSOrigins:    getEnvAsSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),
		MetricsEnabled: metricsEnabled,

		RateLimitMaxRequests: rateLimitMax,
		RateLimitWindow:      rateLimitWindow,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var problems []string

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if c.IsProduction() && len(c.JWTSecret) < 32 {
		problems = append(problems, "JWT_SECRET should be at least 32 characters long")
	}
	if c.JWTExpiry <= 0 {
		problems = append(problems, "JWT_EXPIRY must be positive")
	}
	if c.ConfirmationCodeTTL <= 0 {
		problems = append(problems, "CONFIRMATION_CODE_TTL must be positive")
	}

	switch c.MailBackend {
	case MailBackendFile, MailBackendLog:
	case MailBackendRedis:
		if c.RedisURL == "" {
			problems = append(problems, "MAIL_BACKEND=redis requires REDIS_URL")
		}
	default:
		problems = append(problems, fmt.Sprintf("MAIL_BACKEND must be one of: %s, %s, %s",
			MailBackendFile, MailBackendRedis, MailBackendLog))
	}

	if c.RateLimitMaxRequests < 1 {
		problems = append(problems, "RATE_LIMIT_MAX_REQUESTS must be at least 1")
	}

	if len(problems) > 0 {
		return errors.New("configuration validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) (int, error) {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %w", key, err)
	}
	return val, nil
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) (time.Duration, error) {
	valStr := getEnv(key, defaultVal)
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %w", key, err)
	}
	return d, nil
}

func getEnvAsBool(key string, defaultVal bool) (bool, error) {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %w", key, err)
	}
	return b, nil
}

func getEnvAsSlice(key string, defaultVal []string) []string {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	parts := strings.Split(valStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
