package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Kinvo     KinvoConfig
	Security  SecurityConfig
	Sync      SyncConfig
	AMQP      AMQPConfig
	Log       LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// KinvoConfig holds the Kinvo API connection settings.
// Email and Password are the fallback when no credentials are stored.
type KinvoConfig struct {
	BaseURL       string
	Email         string
	Password      string
	CacheTTL      time.Duration
	Timeout       time.Duration
	RatePerSecond float64
}

// SecurityConfig holds the key used to encrypt stored credentials
type SecurityConfig struct {
	CredentialKey string
}

// SyncConfig holds the scheduled sync settings. An empty Cron disables the scheduler.
type SyncConfig struct {
	Cron    string
	Timeout time.Duration
}

// AMQPConfig holds the event publisher settings. An empty URL disables publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// RateLimitConfig holds the inbound API rate limit
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cacheTTL, err := getEnvDuration("KINVO_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	timeout, err := getEnvDuration("KINVO_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	syncTimeout, err := getEnvDuration("SYNC_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	kinvoRate, err := getEnvFloat("KINVO_RATE_PER_SECOND", 5)
	if err != nil {
		return nil, err
	}
	apiRate, err := getEnvFloat("API_RATE_PER_SECOND", 10)
	if err != nil {
		return nil, err
	}
	apiBurst, err := getEnvInt("API_RATE_BURST", 30)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/kinvo_analytics.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Kinvo: KinvoConfig{
			BaseURL:       getEnv("KINVO_BASE_URL", "https://api.kinvo.com.br"),
			Email:         getEnv("KINVO_EMAIL", ""),
			Password:      getEnv("KINVO_PASSWORD", ""),
			CacheTTL:      cacheTTL,
			Timeout:       timeout,
			RatePerSecond: kinvoRate,
		},
		Security: SecurityConfig{
			CredentialKey: getEnv("CREDENTIAL_KEY", ""),
		},
		Sync: SyncConfig{
			Cron:    getEnv("SYNC_CRON", ""),
			Timeout: syncTimeout,
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "kinvo.analytics"),
			Queue:    getEnv("AMQP_QUEUE", "kinvo.snapshot.synced"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: apiRate,
			Burst:             apiBurst,
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	var errs []error

	if c.Kinvo.BaseURL == "" {
		errs = append(errs, errors.New("KINVO_BASE_URL must not be empty"))
	}
	if c.Kinvo.CacheTTL < 0 {
		errs = append(errs, errors.New("KINVO_CACHE_TTL must not be negative"))
	}
	if c.Kinvo.RatePerSecond < 0 {
		errs = append(errs, errors.New("KINVO_RATE_PER_SECOND must not be negative"))
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("API_RATE_PER_SECOND and API_RATE_BURST must not be negative"))
	}
	if c.Sync.Cron != "" {
		if _, err := cron.ParseStandard(c.Sync.Cron); err != nil {
			errs = append(errs, fmt.Errorf("SYNC_CRON %q: %w", c.Sync.Cron, err))
		}
	}
	if c.Sync.Timeout <= 0 {
		errs = append(errs, errors.New("SYNC_TIMEOUT must be positive"))
	}
	if c.AMQP.URL != "" && (c.AMQP.Exchange == "" || c.AMQP.Queue == "") {
		errs = append(errs, errors.New("AMQP_EXCHANGE and AMQP_QUEUE are required when AMQP_URL is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

// getEnvDuration accepts Go durations ("90s", "5m").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
