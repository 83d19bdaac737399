package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string

	IdentityProvider string // "hosted" or "local"
	IdentityBaseURL  string
	IdentityAPIKey   string

	DeepgramAPIKey  string
	DeepgramBaseURL string

	MaxLoginAttempts     int
	LoginWindow          time.Duration
	ResetWindow          time.Duration
	SessionTimeout       time.Duration
	RequireTwoFactor     bool
	RateLimitPerMinute   int
	RateLimitBurst       int
	AccountRatePerMinute int
	AccountRateBurst     int
}

// Load reads configuration from the environment, after loading .env if one is
// present. Missing required values are a startup failure.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		Port:             getEnv("DEPO_PORT", "8084"),
		DatabaseURL:      os.Getenv("DB_DSN"),
		IdentityProvider: getEnv("IDENTITY_PROVIDER", "local"),
		IdentityBaseURL:  os.Getenv("IDENTITY_BASE_URL"),
		IdentityAPIKey:   os.Getenv("IDENTITY_API_KEY"),
		DeepgramAPIKey:   os.Getenv("DEEPGRAM_API_KEY"),
		DeepgramBaseURL:  getEnv("DEEPGRAM_BASE_URL", "https://api.deepgram.com"),

		MaxLoginAttempts:     readInt("MAX_LOGIN_ATTEMPTS", 5),
		LoginWindow:          readMinutes("LOGIN_TIMEOUT_MINUTES", 1),
		ResetWindow:          readMinutes("RESET_TIMEOUT_MINUTES", 1),
		SessionTimeout:       readMinutes("SESSION_TIMEOUT_MINUTES", 30),
		RequireTwoFactor:     os.Getenv("REQUIRE_2FA") == "true",
		RateLimitPerMinute:   readInt("DEPO_RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:       readInt("DEPO_RATE_LIMIT_BURST", 30),
		AccountRatePerMinute: readInt("DEPO_ACCOUNT_RATE_LIMIT_PER_MIN", 60),
		AccountRateBurst:     readInt("DEPO_ACCOUNT_RATE_LIMIT_BURST", 20),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing required environment variable: DB_DSN")
	}
	if cfg.DeepgramAPIKey == "" {
		return Config{}, fmt.Errorf("missing required environment variable: DEEPGRAM_API_KEY")
	}
	switch cfg.IdentityProvider {
	case "local":
	case "hosted":
		if cfg.IdentityBaseURL == "" {
			return Config{}, fmt.Errorf("missing required environment variable: IDENTITY_BASE_URL")
		}
		if cfg.IdentityAPIKey == "" {
			return Config{}, fmt.Errorf("missing required environment variable: IDENTITY_API_KEY")
		}
	default:
		return Config{}, fmt.Errorf("invalid IDENTITY_PROVIDER %q", cfg.IdentityProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readMinutes(key string, fallback int) time.Duration {
	return time.Duration(readInt(key, fallback)) * time.Minute
}
