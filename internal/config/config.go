// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"auth_backend/internal/platform/db"
	"auth_backend/internal/platform/redis"
	"auth_backend/internal/platform/sms"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Env is the application environment ("development", "production").
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// JWTSecret is the HS256 signing key. Required.
	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`
	JWTAccessTTL  string `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// OTPTTLRaw is the lifetime of an OTP challenge (e.g. "5m").
	OTPTTLRaw  string `mapstructure:"OTP_TTL"`
	BcryptCost int    `mapstructure:"BCRYPT_COST"`

	DBDriver      string `mapstructure:"DB_DRIVER"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBName        string `mapstructure:"DB_NAME"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBPort        string `mapstructure:"DB_PORT"`
	DBSSLMode     string `mapstructure:"DB_SSLMODE"`
	DBInstance    string `mapstructure:"INSTANCE_CONNECTION_NAME"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	RunMigrations bool   `mapstructure:"RUN_MIGRATIONS"`

	// RedisHost empty disables Redis; OTP challenges then live in the database.
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	ProfileTTLRaw string `mapstructure:"PROFILE_CACHE_TTL"`

	SMSProvider      string `mapstructure:"SMS_PROVIDER"`
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `mapstructure:"TWILIO_FROM"`
	TwilioBaseURL    string `mapstructure:"TWILIO_BASE_URL"`
	SMSCountryPrefix string `mapstructure:"SMS_COUNTRY_PREFIX"`
	SMSMaxPerSecond  int    `mapstructure:"SMS_MAX_PER_SECOND"`
}

var defaults = map[string]any{
	"HTTP_ADDR":                ":8080",
	"APP_ENV":                  "development",
	"LOG_LEVEL":                "info",
	"JWT_SECRET":               "",
	"JWT_ISSUER":               "auth_backend",
	"JWT_ACCESS_TTL":           "1h",
	"JWT_REFRESH_TTL":          "8760h", // 365d
	"OTP_TTL":                  "5m",
	"BCRYPT_COST":              10,
	"DB_DRIVER":                db.DriverPostgres,
	"DATABASE_URL":             "",
	"DB_USER":                  "",
	"DB_PASSWORD":              "",
	"DB_NAME":                  "",
	"DB_HOST":                  "localhost",
	"DB_PORT":                  "", // driver default
	"DB_SSLMODE":               "disable",
	"INSTANCE_CONNECTION_NAME": "",
	"SQLITE_PATH":              "auth.db",
	"RUN_MIGRATIONS":           false,
	"REDIS_HOST":               "",
	"REDIS_PORT":               "6379",
	"REDIS_PASSWORD":           "",
	"PROFILE_CACHE_TTL":        "5m",
	"SMS_PROVIDER":             sms.ProviderLog,
	"TWILIO_ACCOUNT_SID":       "",
	"TWILIO_AUTH_TOKEN":        "",
	"TWILIO_FROM":              "",
	"TWILIO_BASE_URL":          sms.DefaultTwilioBaseURL,
	"SMS_COUNTRY_PREFIX":       "+91",
	"SMS_MAX_PER_SECOND":       1,
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Env vars override .env.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !isMissingFile(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// isMissingFile reports whether err only says the env file does not exist.
func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET must be set")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("config: JWT_SECRET must be at least 32 bytes in production")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	switch c.DBDriver {
	case db.DriverPostgres, db.DriverMySQL, db.DriverSQLite:
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SMSProvider {
	case sms.ProviderLog:
		if c.IsProduction() {
			return errors.New("config: SMS_PROVIDER=log must not be used when APP_ENV=production")
		}
	case sms.ProviderTwilio:
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFrom == "" {
			return errors.New("config: TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM must be set")
		}
	default:
		return fmt.Errorf("config: unsupported SMS_PROVIDER %q", c.SMSProvider)
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AccessTTL parses JWTAccessTTL. Returns 1h if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, time.Hour)
}

// RefreshTTL parses JWTRefreshTTL. Returns 365d if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWTRefreshTTL, 365*24*time.Hour)
}

// OTPTTL parses OTPTTLRaw. Returns 5m if unset or invalid.
func (c *Config) OTPTTL() time.Duration {
	return parseDuration(c.OTPTTLRaw, 5*time.Minute)
}

// ProfileCacheTTL parses ProfileTTLRaw. Returns 5m if unset or invalid.
func (c *Config) ProfileCacheTTL() time.Duration {
	return parseDuration(c.ProfileTTLRaw, 5*time.Minute)
}

// LogLevelValue maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) LogLevelValue() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DB returns the database settings.
func (c *Config) DB() db.Config {
	return db.Config{
		Driver:       c.DBDriver,
		URL:          c.DatabaseURL,
		User:         c.DBUser,
		Password:     c.DBPassword,
		Name:         c.DBName,
		Host:         c.DBHost,
		Port:         c.DBPort,
		SSLMode:      c.DBSSLMode,
		InstanceName: c.DBInstance,
		SQLitePath:   c.SQLitePath,
	}
}

// Redis returns the Redis settings.
func (c *Config) Redis() redis.Config {
	return redis.Config{Host: c.RedisHost, Port: c.RedisPort, Password: c.RedisPassword}
}

// SMS returns the SMS transport settings.
func (c *Config) SMS() sms.Config {
	return sms.Config{
		Provider:      c.SMSProvider,
		AccountSID:    c.TwilioAccountSID,
		AuthToken:     c.TwilioAuthToken,
		From:          c.TwilioFrom,
		BaseURL:       c.TwilioBaseURL,
		CountryPrefix: c.SMSCountryPrefix,
		Timeout:       10 * time.Second,
		MaxPerSecond:  c.SMSMaxPerSecond,
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
