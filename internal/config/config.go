package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const defaultDBConnection = "./data/korusync.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

type Config struct {
	// Application
	AppName   string
	AppEnv    string
	AppURL    string
	Port      string
	StaticDir string // Built frontend (index.html + assets). Empty = no SPA shell.
	// Behind a reverse proxy: take the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool

	// Database (driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Sessions
	JWTSecret     string
	JWTExpiry     time.Duration // Access token lifetime
	SessionExpiry time.Duration // Refresh session lifetime

	// One-time codes
	OTPExpiry         time.Duration
	OTPLength         int
	OTPMaxAttempts    int
	OTPResendCooldown time.Duration

	// Cooldown store (empty = in-memory)
	RedisURL string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string

	// Email
	EmailFrom    string
	ResendAPIKey string

	// Observability
	SentryDSN      string
	MetricsEnabled bool

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, etc.)
	// Avatar uploads are disabled when S3Bucket is empty.
	S3Region              string
	S3Bucket              string
	S3AccessKey           string
	S3SecretKey           string
	S3Endpoint            string
	S3PresignExpiryPublic time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppName:    envString("APP_NAME", "KoruSync"),
		AppEnv:     envRequired("APP_ENV"), // 'development' or 'production'
		AppURL:     envRequired("APP_URL"),
		Port:       envString("PORT", "8090"),
		StaticDir:  envString("STATIC_DIR", ""),
		TrustProxy: envBool("TRUST_PROXY", false),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", defaultDBConnection),

		JWTSecret:     envRequired("JWT_SECRET"),
		JWTExpiry:     envDuration("JWT_EXPIRY", 15*time.Minute),
		SessionExpiry: envDuration("SESSION_EXPIRY", 720*time.Hour), // 30 days

		OTPExpiry:         envDuration("OTP_EXPIRY", 10*time.Minute),
		OTPLength:         envInt("OTP_LENGTH", 6),
		OTPMaxAttempts:    envInt("OTP_MAX_ATTEMPTS", 5),
		OTPResendCooldown: envDuration("OTP_RESEND_COOLDOWN", 60*time.Second),

		RedisURL: envString("REDIS_URL", ""),

		GoogleClientID:     envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envString("GOOGLE_CLIENT_SECRET", ""),
		GitHubClientID:     envString("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: envString("GITHUB_CLIENT_SECRET", ""),

		EmailFrom:    envString("EMAIL_FROM", "noreply@korusync.app"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),

		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),

		S3Region:              envString("S3_REGION", "us-east-1"),
		S3Bucket:              envString("S3_BUCKET", ""),
		S3AccessKey:           envString("S3_ACCESS_KEY", ""),
		S3SecretKey:           envString("S3_SECRET_KEY", ""),
		S3Endpoint:            envString("S3_ENDPOINT", ""),
		S3PresignExpiryPublic: envDuration("S3_PRESIGN_EXPIRY_PUBLIC", 168*time.Hour),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// LoadDatabase reads only the database settings, for tools that do not
// serve HTTP and so have no app URL or JWT secret.
func LoadDatabase() (driver, connection string) {
	_ = godotenv.Load()
	return envString("DB_DRIVER", "sqlite"), envString("DB_CONNECTION", defaultDBConnection)
}

// validateProduction ensures all required services are configured for production deployments.
// Development logs emails (including OTP codes) instead of sending them.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires JWT_SECRET of at least 32 characters")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// Safe to expose in ctx and in the /api/config response.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName: c.AppName,
		AppEnv:  c.AppEnv,
		AppURL:  c.AppURL,
		Port:    c.Port,

		TrustProxy: c.TrustProxy,

		OTPLength:         c.OTPLength,
		OTPResendCooldown: c.OTPResendCooldown,

		GoogleClientID: c.GoogleClientID,
		GitHubClientID: c.GitHubClientID,

		S3Endpoint: c.S3Endpoint,
		S3Bucket:   c.S3Bucket,
	}
}
