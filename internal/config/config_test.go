package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile points LoadFile at a path that does not exist.
func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadFile(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.Hour, cfg.AccessTTL())
	assert.Equal(t, 365*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL())
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "log", cfg.SMSProvider)
	assert.Equal(t, "+91", cfg.SMSCountryPrefix)
	assert.False(t, cfg.Redis().Enabled())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevelValue())
}

func TestLoad_EnvVarOverride(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RUN_MIGRATIONS", "true")

	cfg, err := LoadFile(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL())
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, ":memory:", cfg.DB().SQLitePath)
	assert.Equal(t, "cache:6379", cfg.Redis().Addr())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevelValue())
	assert.True(t, cfg.RunMigrations)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JWT_SECRET=from-file\nOTP_TTL=90s\n"), 0o600))
	t.Setenv("OTP_TTL", "3m")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 3*time.Minute, cfg.OTPTTL(), "env vars override .env")
}

func TestLoad_UnreadableEnvFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	// A directory exists but cannot be read as a file.
	_, err := LoadFile(t.TempDir())

	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret in production", map[string]string{"JWT_SECRET": "short", "APP_ENV": "production", "SMS_PROVIDER": "twilio", "TWILIO_ACCOUNT_SID": "a", "TWILIO_AUTH_TOKEN": "b", "TWILIO_FROM": "c"}},
		{"bad bcrypt cost", map[string]string{"JWT_SECRET": "s", "BCRYPT_COST": "40"}},
		{"bad driver", map[string]string{"JWT_SECRET": "s", "DB_DRIVER": "oracle"}},
		{"twilio without credentials", map[string]string{"JWT_SECRET": "s", "SMS_PROVIDER": "twilio"}},
		{"log sms in production", map[string]string{"JWT_SECRET": "0123456789abcdef0123456789abcdef", "APP_ENV": "production"}},
		{"unknown sms provider", map[string]string{"JWT_SECRET": "s", "SMS_PROVIDER": "pigeon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFile(noEnvFile(t))

			assert.Error(t, err)
		})
	}
}

func TestConfig_DurationFallbacks(t *testing.T) {
	t.Parallel()

	cfg := &Config{JWTAccessTTL: "nonsense", JWTRefreshTTL: "-1h", OTPTTLRaw: ""}

	assert.Equal(t, time.Hour, cfg.AccessTTL())
	assert.Equal(t, 365*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL())
	assert.Equal(t, 5*time.Minute, cfg.ProfileCacheTTL())
}
