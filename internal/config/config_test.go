package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	var (
		addr = "localhost:8080"
		dsn  = "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable"
		key  = "c29tZV9zZWNyZXQ="
		orig = []string{"http://localhost:3000"}
	)

	tcases := []struct {
		name string
		addr string
		dsn  string
		key  string
		orig []string
		err  bool
	}{
		{
			name: "valid config",
			addr: addr,
			dsn:  dsn,
			key:  key,
			orig: orig,
			err:  false,
		},
		{
			name: "empty address",
			addr: "",
			dsn:  dsn,
			key:  key,
			orig: orig,
			err:  true,
		},
		{
			name: "empty DSN",
			addr: addr,
			dsn:  "",
			key:  key,
			orig: orig,
			err:  true,
		},
		{
			name: "empty signing key",
			addr: addr,
			dsn:  dsn,
			key:  "",
			orig: orig,
			err:  true,
		},
		{
			name: "invalid base64 signing key",
			addr: addr,
			dsn:  dsn,
			key:  "not_base64!",
			orig: orig,
			err:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			config, err := NewConfig(tc.addr, tc.dsn, tc.key, tc.orig)
			if tc.err {
				assert.Error(t, err, "expected error for config: %s", tc.name)
				return
			}
			assert.NoError(t, err, "expected no error for config: %s", tc.name)

			assert.Equal(t, tc.addr, config.ServerAddr, "expected server address to match")
			assert.Equal(t, tc.dsn, config.DatabaseDSN, "expected database DSN to match")
			assert.Equal(t, tc.orig, config.AllowedOrigins, "expected allowed origins to match")
			assert.Equal(t, []byte("some_secret"), config.SigningKey, "expected signing key to be decoded")
		})
	}
}

func TestNewConfig_envDefaults(t *testing.T) {
	cfg, err := NewConfig("localhost:8080", "dsn", "c29tZV9zZWNyZXQ=", nil)
	assert.NoError(t, err)

	assert.Equal(t, "data/blobs", cfg.BlobDir)
	assert.Equal(t, "https://api.telegram.org", cfg.TelegramBaseURL)
	assert.Equal(t, "https://fcm.googleapis.com/fcm/send", cfg.FCMEndpoint)
	assert.Equal(t, "0 20 * * *", cfg.DigestSchedule)
}

func TestNewConfig_envOverrides(t *testing.T) {
	t.Setenv("BLOB_DIR", "/var/lib/comics")
	t.Setenv("TELEGRAM_BOT_TOKEN_NOTIFY", "notify-token")
	t.Setenv("DIGEST_SCHEDULE", "30 21 * * *")

	cfg, err := NewConfig("localhost:8080", "dsn", "c29tZV9zZWNyZXQ=", nil)
	assert.NoError(t, err)

	assert.Equal(t, "/var/lib/comics", cfg.BlobDir)
	assert.Equal(t, "notify-token", cfg.TelegramNotifyToken)
	assert.Equal(t, "30 21 * * *", cfg.DigestSchedule)
}
