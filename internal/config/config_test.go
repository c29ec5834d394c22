package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "a-perfectly-fine-test-secret")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.VerificationTokenTTL)
	assert.Equal(t, time.Hour, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 3, cfg.RateLimit.ForgotPasswordMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.ForgotPasswordWindow)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingDBPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-perfectly-fine-test-secret")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("RESET_TOKEN_TTL", "30m")
	t.Setenv("FORGOT_PASSWORD_MAX", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 5, cfg.RateLimit.ForgotPasswordMax)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"short in dev", "tooshort", "development", true},
		{"ok in dev", "sixteen-chars-ok", "development", false},
		{"dev length insufficient in prod", "sixteen-chars-ok", "production", true},
		{"ok in prod", "thirty-two-characters-of-secret!", "production", false},
		{"weak value", "changemechangeme", "development", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJWTSecret(tt.secret, tt.env)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "agora",
		Password: "pw",
		Name:     "agora",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=agora password=pw dbname=agora sslmode=require",
		cfg.DSN())
}
