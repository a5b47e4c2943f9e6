package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL     string
	JWTSecretKey    string
	OperatorPINHash string
	ServerPort      int

	CupTitle           string
	NotifyChannel      string
	ResyncInterval     time.Duration
	CORSAllowedOrigins []string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// AvatarsEnabled reports whether object storage is configured.
func (c *Config) AvatarsEnabled() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" &&
		c.R2BucketName != "" && c.R2PublicBaseURL != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	pinHash := getenv("OPERATOR_PIN_HASH")
	if pinHash == "" {
		return nil, fmt.Errorf("OPERATOR_PIN_HASH environment variable is not set")
	}

	portStr := getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	resync := 30 * time.Second
	if v := getenv("RESYNC_INTERVAL"); v != "" {
		resync, err = time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RESYNC_INTERVAL environment variable: %w", err)
		}
		if resync < time.Second {
			return nil, fmt.Errorf("RESYNC_INTERVAL must be at least 1s, got %s", resync)
		}
	}

	cfg := &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		OperatorPINHash:    pinHash,
		ServerPort:         port,
		CupTitle:           getenvDefault(getenv, "CUP_TITLE", "Matapi's Cup"),
		NotifyChannel:      getenvDefault(getenv, "NOTIFY_CHANNEL", "kotc_changes"),
		ResyncInterval:     resync,
		CORSAllowedOrigins: splitList(getenvDefault(getenv, "CORS_ALLOWED_ORIGINS", "*")),
		R2AccountID:        getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:      getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:  getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:       getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:    getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func getenvDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
