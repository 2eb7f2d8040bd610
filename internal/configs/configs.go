/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, storage backends,
and the external judge endpoint.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// Environment defines the application's operating environment (e.g., "development", "production").
	Environment string

	// Port is the port number on which the HTTP server will listen.
	Port int

	// AllowedOrigins is the list of origins permitted for CORS and WebSocket connections.
	AllowedOrigins []string

	// DatabaseDSN is the PostgreSQL connection string for the room store.
	DatabaseDSN string

	// RedisURL is the connection string for the event-bus broker.
	RedisURL string

	// JWTSecret is the HMAC key shared with the external identity system.
	JWTSecret string

	// JudgeURL is the submission endpoint of the external code judge.
	JudgeURL string

	// JudgeTimeout bounds a single judge request.
	JudgeTimeout time.Duration

	// S3BucketName, S3Endpoint, S3AccessKeyID and S3SecretAccessKey configure the
	// solution archive bucket. An empty bucket name disables archiving.
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type
// conversions and validation. It returns a pointer to the AppConfig struct and any
// error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// Environment
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	// Port
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT environment variable: %w", err)
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// AllowedOrigins
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		origins := strings.Split(originsStr, ",")
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	// DatabaseDSN
	cfg.DatabaseDSN = os.Getenv("DATABASE_DSN")
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("DATABASE_DSN environment variable is required")
	}

	// RedisURL
	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379/0"
	}

	// JWTSecret
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	// JudgeURL
	cfg.JudgeURL = os.Getenv("JUDGE_API_URL")
	if cfg.JudgeURL == "" {
		return nil, fmt.Errorf("JUDGE_API_URL environment variable is required")
	}

	// JudgeTimeout
	timeoutStr := os.Getenv("JUDGE_TIMEOUT")
	if timeoutStr == "" {
		timeoutStr = "15s"
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JUDGE_TIMEOUT environment variable: %w", err)
	}
	cfg.JudgeTimeout = timeout

	// Solution archive (optional)
	cfg.S3BucketName = os.Getenv("S3_BUCKET_NAME")
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	cfg.S3SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")

	if cfg.S3BucketName != "" && (cfg.S3Endpoint == "" || cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
		return nil, fmt.Errorf("S3_BUCKET_NAME is set but the S3 endpoint or credentials are incomplete")
	}

	return cfg, nil
}
