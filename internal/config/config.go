package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName          = "DigiShe"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultAccessTokenTTL   = 15 * time.Minute
	defaultRefreshTokenTTL  = 30 * 24 * time.Hour
	defaultCountryPrefix    = "233"
	defaultSMSProvider      = "arkesel"
	defaultArkeselBaseURL   = "https://sms.arkesel.com"
	defaultSenderID         = "DigiShe"
	defaultOTPLength        = 6
	defaultOTPExpiryMinutes = 5
	defaultOTPPerMinute     = 3
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultInsightTimeout   = 4 * time.Second
	defaultCategoryPrompt   = 3
	defaultMigrationsDir    = "migrations"
	defaultCurrency         = "GHS"
	idemTTLSecondsEnvVar    = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar        = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	MigrationsDir  string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CountryPrefix        string
	SMSProvider          string
	ArkeselAPIKey        string
	ArkeselBaseURL       string
	SMSSenderID          string
	OTPLength            int
	OTPExpiry            time.Duration
	OTPRequestsPerMinute int

	GeminiAPIKey   string
	GeminiModel    string
	InsightTimeout time.Duration

	CategoryPromptThreshold int
	Currency                string
}

// Load reads configuration values from the environment and populates a Config instance.
// A .env file in the working directory is honoured when present; real environment
// variables take precedence over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", defaultMigrationsDir),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,

		JWTSecret:       os.Getenv("JWT_SECRET"),
		RefreshSecret:   os.Getenv("REFRESH_SECRET"),
		AccessTokenTTL:  defaultAccessTokenTTL,
		RefreshTokenTTL: defaultRefreshTokenTTL,

		CountryPrefix:        getEnv("COUNTRY_PREFIX", defaultCountryPrefix),
		SMSProvider:          strings.ToLower(getEnv("SMS_PROVIDER", defaultSMSProvider)),
		ArkeselAPIKey:        os.Getenv("ARKESEL_API_KEY"),
		ArkeselBaseURL:       getEnv("ARKESEL_BASE_URL", defaultArkeselBaseURL),
		SMSSenderID:          getEnv("SMS_SENDER_ID", defaultSenderID),
		OTPLength:            defaultOTPLength,
		OTPExpiry:            defaultOTPExpiryMinutes * time.Minute,
		OTPRequestsPerMinute: defaultOTPPerMinute,

		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", defaultGeminiModel),
		InsightTimeout: defaultInsightTimeout,

		CategoryPromptThreshold: defaultCategoryPrompt,
		Currency:                strings.ToUpper(getEnv("CURRENCY", defaultCurrency)),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationFromEnv("", "ACCESS_TOKEN_TTL", cfg.AccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationFromEnv("", "REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.InsightTimeout, err = durationFromEnv("", "INSIGHT_TIMEOUT", cfg.InsightTimeout); err != nil {
		return Config{}, err
	}
	if cfg.OTPLength, err = intFromEnv("OTP_LENGTH", cfg.OTPLength); err != nil {
		return Config{}, err
	}
	minutes, err := intFromEnv("OTP_EXPIRY_MINUTES", defaultOTPExpiryMinutes)
	if err != nil {
		return Config{}, err
	}
	cfg.OTPExpiry = time.Duration(minutes) * time.Minute
	if cfg.OTPRequestsPerMinute, err = intFromEnv("OTP_REQUESTS_PER_MINUTE", cfg.OTPRequestsPerMinute); err != nil {
		return Config{}, err
	}
	if cfg.CategoryPromptThreshold, err = intFromEnv("CATEGORY_PROMPT_THRESHOLD", cfg.CategoryPromptThreshold); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" || c.RefreshSecret == "" {
		if !c.IsDev() {
			return fmt.Errorf("JWT_SECRET and REFRESH_SECRET must be set")
		}
	}
	if !c.IsDev() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set")
		}
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set")
		}
	}
	switch c.SMSProvider {
	case "arkesel":
		if c.ArkeselAPIKey == "" && !c.IsDev() {
			return fmt.Errorf("ARKESEL_API_KEY must be set when SMS_PROVIDER=arkesel")
		}
	case "memory":
		if !c.IsDev() {
			return fmt.Errorf("SMS_PROVIDER=memory is only allowed in development")
		}
	default:
		return fmt.Errorf("unknown SMS_PROVIDER %q", c.SMSProvider)
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10")
	}
	if c.CategoryPromptThreshold <= 0 {
		return fmt.Errorf("CATEGORY_PROMPT_THRESHOLD must be positive")
	}
	return nil
}

// IsDev reports whether the service runs in a development environment, where
// Postgres and Redis are optional and in-memory backends are substituted.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
