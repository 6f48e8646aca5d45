package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Notifier NotifierConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	TrustedProxies []string
}

type AuthConfig struct {
	// MFA engine
	IssuerName       string
	TOTPSecretLength int
	BackupCodeCount  int

	// Admission gate
	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	RateLimitEnabled     bool
	SweepInterval        time.Duration

	// Dispatch endpoint (httprate, per IP)
	SendTokenPerMinute int
}

type NotifierConfig struct {
	AWSRegion   string
	FromAddress string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "talentbase_auth"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			TrustedProxies: parseTrustedProxies(),
		},
		Auth: AuthConfig{
			IssuerName:           getEnv("MFA_ISSUER", "TalentBase"),
			TOTPSecretLength:     getEnvAsInt("MFA_TOTP_SECRET_LENGTH", 32),
			BackupCodeCount:      getEnvAsInt("MFA_BACKUP_CODE_COUNT", 10),
			RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
			RateLimitEnabled:     getEnvAsBool("RATE_LIMIT_ENABLED", true),
			SweepInterval:        getEnvAsDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
			SendTokenPerMinute:   getEnvAsInt("MFA_SEND_TOKEN_PER_MINUTE", 5),
		},
		Notifier: NotifierConfig{
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", "no-reply@talentbase.io"),
		},
	}

	if env == "production" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required in production")
	}
	if cfg.Auth.RateLimitMaxRequests <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if cfg.Auth.TOTPSecretLength < 16 {
		return nil, fmt.Errorf("MFA_TOTP_SECRET_LENGTH must be at least 16 bytes")
	}

	return cfg, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func parseTrustedProxies() []string {
	raw := getEnv("TRUSTED_PROXIES", "")
	if raw == "" {
		return nil
	}
	proxies := strings.Split(raw, ",")
	for i, p := range proxies {
		proxies[i] = strings.TrimSpace(p)
	}
	return proxies
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
