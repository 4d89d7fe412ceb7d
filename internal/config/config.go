package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                   string        `mapstructure:"PORT"`
	Env                    string        `mapstructure:"ENV"`
	DatabaseURL            string        `mapstructure:"DATABASE_URL"`
	DBMaxConns             int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns             int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL               string        `mapstructure:"REDIS_URL"`
	AuthIssuer             string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL            string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience           string        `mapstructure:"AUTH_AUDIENCE"`
	AuthJWTSecret          string        `mapstructure:"AUTH_JWT_SECRET"`
	CORSOrigins            []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS           float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst         int           `mapstructure:"RATE_LIMIT_BURST"`
	RateLimitRetentionDays int           `mapstructure:"RATE_LIMIT_RETENTION_DAYS"`
	PresenterStaleAfter    time.Duration `mapstructure:"PRESENTER_STALE_AFTER"`
	ResendAPIKey           string        `mapstructure:"RESEND_API_KEY"`
	ResendBaseURL          string        `mapstructure:"RESEND_BASE_URL"`
	EmailFrom              string        `mapstructure:"EMAIL_FROM"`
	AdminEmail             string        `mapstructure:"ADMIN_EMAIL"`
	AppURL                 string        `mapstructure:"APP_URL"`
	LLMAPIKey              string        `mapstructure:"LLM_API_KEY"`
	LLMBaseURL             string        `mapstructure:"LLM_BASE_URL"`
	LLMModel               string        `mapstructure:"LLM_MODEL"`
	ShutdownTimeout        time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

var envKeys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_JWT_SECRET", "CORS_ORIGINS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "RATE_LIMIT_RETENTION_DAYS", "PRESENTER_STALE_AFTER",
	"RESEND_API_KEY", "RESEND_BASE_URL", "EMAIL_FROM", "ADMIN_EMAIL", "APP_URL",
	"LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "SHUTDOWN_TIMEOUT",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("RATE_LIMIT_RETENTION_DAYS", 30)
	v.SetDefault("PRESENTER_STALE_AFTER", "15s")
	v.SetDefault("RESEND_BASE_URL", "https://api.resend.com")
	v.SetDefault("EMAIL_FROM", "NSO Dashboard <noreply@example.com>")
	v.SetDefault("APP_URL", "http://localhost:5173")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development); unauthenticated requests get admin access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// HasRedis reports whether presenter state and rate-limit counters should live
// in Redis instead of process memory.
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// HasMailer reports whether outbound email is configured.
func (c *Config) HasMailer() bool {
	return c.ResendAPIKey != ""
}

// HasLLM reports whether the chat proxy has upstream credentials.
func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}

// Validate checks that the configuration is safe to run. Outside development a
// token verifier must be configured: either a shared HS256 secret or a JWKS
// endpoint.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthJWTSecret == "" && c.AuthJWKSURL == "" && c.AuthIssuer == "" {
		return fmt.Errorf(
			"AUTH_JWT_SECRET, AUTH_JWKS_URL or AUTH_ISSUER must be set when ENV=%q; "+
				"refusing to start without authentication configuration", c.Env)
	}
	if c.IsProduction() && c.AuthJWTSecret != "" && len(c.AuthJWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters in production")
	}
	if c.PresenterStaleAfter <= 0 {
		return fmt.Errorf("PRESENTER_STALE_AFTER must be positive, got %s", c.PresenterStaleAfter)
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %g", c.RateLimitRPS)
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst)
	}
	if c.RateLimitRetentionDays <= 0 {
		return fmt.Errorf("RATE_LIMIT_RETENTION_DAYS must be positive, got %d", c.RateLimitRetentionDays)
	}
	if c.HasMailer() && c.AdminEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL is required when RESEND_API_KEY is set")
	}
	return nil
}
