package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the agent
type AppConfig struct {
	DatabaseURL      string
	AppKey           string // shared secret for Medsenger webhooks and API calls
	MainHost         string // base URL of the Medsenger core
	Host             string
	Port             int
	LogLevel         string
	Environment      string
	CronSpecDispatch string
	MedsengerTimeout time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.AppKey = os.Getenv("APP_KEY")
	if cfg.AppKey == "" {
		return nil, fmt.Errorf("APP_KEY is not set")
	}

	cfg.MainHost = os.Getenv("MAIN_HOST")
	if cfg.MainHost == "" {
		return nil, fmt.Errorf("MAIN_HOST is not set")
	}

	cfg.Host = os.Getenv("HOST")
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "9300"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	cfg.Port = port

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecDispatch = os.Getenv("CRON_SPEC_DISPATCH")
	if cfg.CronSpecDispatch == "" {
		cfg.CronSpecDispatch = "*/5 * * * *" // every 5 minutes
	}

	timeoutStr := os.Getenv("MEDSENGER_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		timeoutStr = "10"
	}
	timeoutSec, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MEDSENGER_TIMEOUT_SECONDS: %w", err)
	}
	cfg.MedsengerTimeout = time.Duration(timeoutSec) * time.Second

	return cfg, nil
}

// ListenAddr builds the HTTP bind address.
func (c *AppConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
