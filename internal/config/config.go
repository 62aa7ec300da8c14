package config

import (
	"encoding/base64"
	"fmt"
	"os"
)

type Config struct {
	DatabaseDSN    string
	ServerAddr     string
	SigningKey     []byte
	AllowedOrigins []string
	BlobDir        string

	// Delivery collaborators, read from the environment (.env in dev).
	TelegramBaseURL     string
	TelegramNotifyToken string
	TelegramReportToken string
	FCMEndpoint         string
	FCMServerKey        string

	// Cron expression for the nightly update digest.
	DigestSchedule string
}

func decodeSigningSecret(base64Secret string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(base64Secret)
}

func NewConfig(serverAddr, databaseDSN, base64Secret string, allowedOrigins []string) (*Config, error) {
	if serverAddr == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	if databaseDSN == "" {
		return nil, fmt.Errorf("database DSN cannot be empty")
	}
	if base64Secret == "" {
		return nil, fmt.Errorf("signing secret cannot be empty")
	}

	signingKey, err := decodeSigningSecret(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}

	cfg := &Config{
		DatabaseDSN:         databaseDSN,
		ServerAddr:          serverAddr,
		SigningKey:          signingKey,
		AllowedOrigins:      allowedOrigins,
		BlobDir:             envOr("BLOB_DIR", "data/blobs"),
		TelegramBaseURL:     envOr("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		TelegramNotifyToken: os.Getenv("TELEGRAM_BOT_TOKEN_NOTIFY"),
		TelegramReportToken: os.Getenv("TELEGRAM_BOT_TOKEN_REPORT"),
		FCMEndpoint:         envOr("FCM_ENDPOINT", "https://fcm.googleapis.com/fcm/send"),
		FCMServerKey:        os.Getenv("FCM_SERVER_KEY"),
		DigestSchedule:      envOr("DIGEST_SCHEDULE", "0 20 * * *"),
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
