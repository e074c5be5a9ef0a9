package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinSecretLength is the shortest accepted JWT_SECRET, in bytes.
const MinSecretLength = 32

type Config struct {
	HTTPAddress string
	DatabaseURL string

	JWTSecret       string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	PasswordPepper  string

	RedisAddress     string
	RedisPassword    string
	RedisDB          int
	LoginMaxAttempts int64
	LoginLockout     time.Duration

	AllowedOrigins   []string
	AllowCredentials bool
	CookieDomain     string
	CookieSecure     bool

	RateLimitRPS   int
	RateLimitBurst int

	ChatWriteTimeout time.Duration

	HTTPSCertFile string
	HTTPSKeyFile  string

	LogLevel string
}

func Load() (*Config, error) {
	// .env is optional; real deployments pass plain environment variables
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDRESS", ":8080")
	v.SetDefault("ACCESS_TOKEN_TTL", "30m")
	v.SetDefault("REFRESH_TOKEN_TTL", "168h")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOGIN_MAX_ATTEMPTS", 5)
	v.SetDefault("LOGIN_LOCKOUT", "15m")
	v.SetDefault("ALLOW_CREDENTIALS", true)
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("CHAT_WRITE_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		HTTPAddress:      v.GetString("HTTP_ADDRESS"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		Issuer:           v.GetString("JWT_ISSUER"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:  v.GetDuration("REFRESH_TOKEN_TTL"),
		PasswordPepper:   v.GetString("PASSWORD_PEPPER"),
		RedisAddress:     v.GetString("REDIS_ADDRESS"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		LoginMaxAttempts: v.GetInt64("LOGIN_MAX_ATTEMPTS"),
		LoginLockout:     v.GetDuration("LOGIN_LOCKOUT"),
		AllowCredentials: v.GetBool("ALLOW_CREDENTIALS"),
		CookieDomain:     v.GetString("COOKIE_DOMAIN"),
		CookieSecure:     v.GetBool("COOKIE_SECURE"),
		RateLimitRPS:     v.GetInt("RATE_LIMIT_RPS"),
		RateLimitBurst:   v.GetInt("RATE_LIMIT_BURST"),
		ChatWriteTimeout: v.GetDuration("CHAT_WRITE_TIMEOUT"),
		HTTPSCertFile:    v.GetString("HTTPS_CERT_FILE"),
		HTTPSKeyFile:     v.GetString("HTTPS_KEY_FILE"),
		LogLevel:         v.GetString("LOG_LEVEL"),
	}

	origins, err := parseList(v.GetString("ALLOWED_ORIGINS"))
	if err != nil {
		return nil, fmt.Errorf("ALLOWED_ORIGINS: %w", err)
	}
	cfg.AllowedOrigins = origins

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return fmt.Errorf("DATABASE_URL is required")
	case c.JWTSecret == "":
		return fmt.Errorf("JWT_SECRET is required")
	case len(c.JWTSecret) < MinSecretLength:
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength)
	case c.AccessTokenTTL <= 0:
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive")
	case c.RefreshTokenTTL <= c.AccessTokenTTL:
		return fmt.Errorf("REFRESH_TOKEN_TTL must exceed ACCESS_TOKEN_TTL")
	case c.LoginMaxAttempts <= 0:
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	case c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0:
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	case c.ChatWriteTimeout <= 0:
		return fmt.Errorf("CHAT_WRITE_TIMEOUT must be positive")
	case (c.HTTPSCertFile == "") != (c.HTTPSKeyFile == ""):
		return fmt.Errorf("HTTPS_CERT_FILE and HTTPS_KEY_FILE must be set together")
	}
	return nil
}

// TLS reports whether the HTTP server should terminate TLS itself.
func (c *Config) TLS() bool {
	return c.HTTPSCertFile != "" && c.HTTPSKeyFile != ""
}

// parseList accepts either a JSON array or a comma separated list.
func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}
