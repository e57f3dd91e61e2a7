package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisAddr          string
	JWTSecret          string
	StoragePath        string
	StorageBaseURL     string
	GeoIPDBPath        string
	CORSAllowedOrigins []string

	GeminiAPIKey      string
	GeminiModel       string
	GeminiVisionModel string
	GeminiBaseURL     string

	HeyGenAPIKey   string
	HeyGenBaseURL  string
	HeyGenAvatarID string
	HeyGenVoiceID  string

	VideoPollMaxAttempts int
	VideoPollInterval    time.Duration

	HTTPReadTimeout      time.Duration
	HTTPWriteTimeout     time.Duration
	HTTPIdleTimeout      time.Duration
	RateLimitPerMin      int
	VideoRateLimitPerMin int

	OTELExporterType     string
	OTELExporterEndpoint string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               port,
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "http://localhost:"+port+"/static"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiVisionModel: getEnv("GEMINI_VISION_MODEL", "gemini-1.5-pro"),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),

		HeyGenAPIKey:   strings.TrimSpace(os.Getenv("HEYGEN_API_KEY")),
		HeyGenBaseURL:  getEnv("HEYGEN_BASE_URL", "https://api.heygen.com"),
		HeyGenAvatarID: getEnv("HEYGEN_AVATAR_ID", "Daisy-inskirt-20220818"),
		HeyGenVoiceID:  getEnv("HEYGEN_VOICE_ID", "2d5b0e6cf36f460aa7fc47e3eee4ba54"),

		VideoPollMaxAttempts: getEnvInt("VIDEO_POLL_MAX_ATTEMPTS", 60),
		VideoPollInterval:    time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 10)),

		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 660)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		VideoRateLimitPerMin: getEnvInt("VIDEO_RATE_LIMIT_PER_MINUTE", 2),

		OTELExporterType:     getEnv("OTEL_EXPORTER_TYPE", "none"),
		OTELExporterEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.VideoPollMaxAttempts <= 0 {
		return nil, fmt.Errorf("VIDEO_POLL_MAX_ATTEMPTS must be positive")
	}
	if cfg.VideoPollInterval <= 0 {
		return nil, fmt.Errorf("VIDEO_POLL_INTERVAL_SECONDS must be positive")
	}

	return cfg, nil
}

// HasDatabase reports whether a PostgreSQL connection string was configured.
func (c *Config) HasDatabase() bool {
	return c != nil && c.DatabaseURL != ""
}

// HasRedis reports whether a Redis address was configured.
func (c *Config) HasRedis() bool {
	return c != nil && c.RedisAddr != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
