package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                        string
	DBUrl                       string
	JWTSecret                   string
	AppEnv                      string
	EnableDocs                  bool
	AllowedOrigins              string
	Timezone                    *time.Location
	SessionMaxAge               time.Duration
	SessionDiscrepancyTolerance time.Duration
	SessionSweepSchedule        string
	DBMaxConns                  int32
	DBMinConns                  int32
	AutoMigrate                 bool
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	timezone := getEnv("APP_TIMEZONE", "America/Sao_Paulo")
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", timezone, err)
	}

	return &Config{
		Port:                        getEnv("PORT", "8080"),
		DBUrl:                       getEnv("DB_URL", ""),
		JWTSecret:                   jwtSecret,
		AppEnv:                      normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:                  getEnvBool("ENABLE_API_DOCS", false),
		AllowedOrigins:              getEnv("ALLOWED_ORIGINS", "*"),
		Timezone:                    location,
		SessionMaxAge:               getEnvDuration("SESSION_MAX_AGE", 4*time.Hour),
		SessionDiscrepancyTolerance: getEnvDuration("SESSION_DISCREPANCY_TOLERANCE", 5*time.Minute),
		SessionSweepSchedule:        getEnv("SESSION_SWEEP_SCHEDULE", "0 */15 * * * *"),
		DBMaxConns:                  int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMinConns:                  int32(getEnvInt("DB_MIN_CONNS", 2)),
		AutoMigrate:                 getEnvBool("AUTO_MIGRATE", false),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		log.Printf("ignoring invalid %s=%q", key, value)
		return fallback
	}
	return parsed
}

// getEnvDuration accepts Go durations ("90m") and bare seconds ("5400").
// Zero disables whatever the duration bounds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	value = strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		log.Printf("ignoring invalid %s=%q", key, value)
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}
