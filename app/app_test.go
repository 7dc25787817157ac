package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lepens-foundation/lepens/config"
)

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Name: "LEPENS Foundation"},
		Server: config.ServerConfig{Host: "localhost", Port: "0"},
		Log:    config.LogConfig{Level: "error", Format: "json"},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		Auth: config.AuthConfig{
			MinPasswordLength:      6,
			BcryptCost:             4,
			VerificationCodeExpiry: 10 * time.Minute,
		},
		JWT: config.JWTConfig{
			SecretKey:    "a1b2c3d4e5f6g7h8i9j0k1l2m3n4o5p6",
			Issuer:       "lepens",
			AccessExpiry: time.Hour,
		},
		Mail: config.MailConfig{
			Host:        "localhost",
			Port:        587,
			Encryption:  "none",
			FromAddress: "noreply@lepens.org",
		},
		Outbox: config.OutboxConfig{
			PollInterval:   time.Second,
			BatchSize:      10,
			MaxAttempts:    3,
			InitialBackoff: time.Second,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
}

func TestAppStartStop(t *testing.T) {
	application := New(testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, application.Start(ctx))

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	require.NoError(t, application.Stop(stopCtx))
}
