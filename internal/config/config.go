// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// StorageBackend selects the record store: "json" (flat-file collections) or "postgres".
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	// DataDir is the directory holding users.json and tasks.json when the json backend is active.
	DataDir string `mapstructure:"DATA_DIR"`
	// DatabaseURL is the Postgres DSN; required when STORAGE_BACKEND=postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// OTPTTL is the OTP challenge lifetime (e.g. "5m").
	OTPTTL string `mapstructure:"OTP_TTL"`
	// SessionCookieTTL is the advisory Max-Age for the session cookie (e.g. "168h" = 7d).
	// The session registry itself never evicts on this basis.
	SessionCookieTTL string `mapstructure:"SESSION_COOKIE_TTL"`
	// TicketSecret signs single-use registration verification tickets (HS256).
	// When unset a random per-process secret is generated; outstanding
	// tickets then do not survive a restart, matching the in-memory jti set.
	TicketSecret string `mapstructure:"TICKET_SECRET"`
	// TicketTTL is the registration ticket lifetime (e.g. "10m").
	TicketTTL string `mapstructure:"TICKET_TTL"`
	// OTPDelivery selects the OTP sender: "console", "sms", or "telegram".
	OTPDelivery string `mapstructure:"OTP_DELIVERY"`
	// SMSLocalAPIKey is the API key for SMS Local; required when OTP_DELIVERY=sms.
	SMSLocalAPIKey string `mapstructure:"SMS_LOCAL_API_KEY"`
	// SMSLocalSender is the optional sender ID for SMS Local.
	SMSLocalSender string `mapstructure:"SMS_LOCAL_SENDER"`
	// SMSLocalBaseURL is the SMS Local API base URL.
	SMSLocalBaseURL string `mapstructure:"SMS_LOCAL_BASE_URL"`
	// TelegramBotToken authenticates the operator-channel bot; required when OTP_DELIVERY=telegram.
	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	// TelegramChatID is the operator channel that receives OTP notifications.
	TelegramChatID int64 `mapstructure:"TELEGRAM_CHAT_ID"`
	// OTPReturnToClient when true enables dev OTP mode: the plain code is kept for
	// GET /dev/otp. Must not be true when Env is production (startup error).
	OTPReturnToClient bool `mapstructure:"OTP_RETURN_TO_CLIENT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("STORAGE_BACKEND", "json")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("OTP_TTL", "5m")
	v.SetDefault("SESSION_COOKIE_TTL", "168h") // 7d, advisory only
	v.SetDefault("TICKET_SECRET", "")
	v.SetDefault("TICKET_TTL", "10m")
	v.SetDefault("OTP_DELIVERY", "console")
	v.SetDefault("SMS_LOCAL_BASE_URL", "https://www.smslocal.com/dev/bulkV2")
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_CHAT_ID", 0)
	v.SetDefault("OTP_RETURN_TO_CLIENT", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	switch cfg.StorageBackend {
	case "json", "postgres":
	default:
		return nil, errors.New("config: STORAGE_BACKEND must be json or postgres")
	}
	if cfg.StorageBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, errors.New("config: DATABASE_URL must be set when STORAGE_BACKEND=postgres")
	}
	switch cfg.OTPDelivery {
	case "console", "sms", "telegram":
	default:
		return nil, errors.New("config: OTP_DELIVERY must be console, sms, or telegram")
	}
	if cfg.OTPDelivery == "sms" && cfg.SMSLocalAPIKey == "" {
		return nil, errors.New("config: SMS_LOCAL_API_KEY must be set when OTP_DELIVERY=sms")
	}
	if cfg.OTPDelivery == "telegram" && (cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0) {
		return nil, errors.New("config: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set when OTP_DELIVERY=telegram")
	}
	if cfg.OTPReturnToClient && cfg.Env == "production" {
		return nil, errors.New("config: OTP_RETURN_TO_CLIENT must not be true when APP_ENV=production")
	}

	return &cfg, nil
}

// OTPLifetime parses OTPTTL as a time.Duration. Returns 5m if unset or invalid.
func (c *Config) OTPLifetime() time.Duration {
	d, err := time.ParseDuration(c.OTPTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

// CookieTTL parses SessionCookieTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) CookieTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionCookieTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// TicketLifetime parses TicketTTL as a time.Duration. Returns 10m if unset or invalid.
func (c *Config) TicketLifetime() time.Duration {
	d, err := time.ParseDuration(c.TicketTTL)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
