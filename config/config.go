package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	MongoURI string
	MongoDB  string

	LogLevel string
	LogFile  string

	CORSOrigins  []string
	MetricsAllow []string
	Timezone     string

	RegularRate  float64
	OvertimeRate float64

	// InventoryNameFallback lets sync match inventory by name when an id is unknown.
	InventoryNameFallback bool

	SyncRateLimit float64
	SyncRateBurst int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	AlertEmail   string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3UseSSL    bool
	S3PublicURL string
}

// IsDevelopment reports whether error responses may carry internals.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// AlertsEnabled reports whether the low-stock email can be sent.
func (c Config) AlertsEnabled() bool {
	return c.SMTPHost != "" && c.AlertEmail != ""
}

// ArchiveEnabled reports whether sales exports are copied to object storage.
func (c Config) ArchiveEnabled() bool {
	return c.S3Endpoint != "" && c.S3Bucket != ""
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests can feed a map.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:                  firstNonEmpty(getenv("PORT"), "1414"),
		AppEnv:                firstNonEmpty(getenv("APP_ENV"), "production"),
		MongoURI:              getenv("MONGO_URI"),
		MongoDB:               firstNonEmpty(getenv("MONGO_DB"), "laundromat"),
		LogLevel:              firstNonEmpty(getenv("LOG_LEVEL"), "info"),
		LogFile:               strings.TrimSpace(getenv("LOG_FILE")),
		CORSOrigins:           splitList(getenv("CORS_ORIGINS")),
		MetricsAllow:          splitList(getenv("METRICS_ALLOW")),
		Timezone:              firstNonEmpty(getenv("TIMEZONE"), "Local"),
		RegularRate:           15,
		OvertimeRate:          22.5,
		InventoryNameFallback: true,
		SyncRateLimit:         5,
		SyncRateBurst:         10,
		SMTPHost:              strings.TrimSpace(getenv("SMTP_HOST")),
		SMTPPort:              465,
		SMTPUser:              getenv("SMTP_USER"),
		SMTPPassword:          getenv("SMTP_PASSWORD"),
		AlertEmail:            strings.TrimSpace(getenv("ALERT_EMAIL")),
		S3Endpoint:            strings.TrimSpace(getenv("S3_ENDPOINT")),
		S3AccessKey:           getenv("S3_ACCESS_KEY"),
		S3SecretKey:           getenv("S3_SECRET_KEY"),
		S3Bucket:              strings.TrimSpace(getenv("S3_BUCKET")),
		S3Region:              strings.TrimSpace(getenv("S3_REGION")),
		S3UseSSL:              true,
		S3PublicURL:           strings.TrimSpace(getenv("S3_PUBLIC_URL")),
	}

	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required (environment variable or .env)")
	}

	var err error
	if cfg.RegularRate, err = floatVar(getenv, "REGULAR_RATE", cfg.RegularRate); err != nil {
		return Config{}, err
	}
	if cfg.OvertimeRate, err = floatVar(getenv, "OVERTIME_RATE", cfg.OvertimeRate); err != nil {
		return Config{}, err
	}
	if cfg.SyncRateLimit, err = floatVar(getenv, "SYNC_RATE_LIMIT", cfg.SyncRateLimit); err != nil {
		return Config{}, err
	}
	if cfg.SyncRateBurst, err = intVar(getenv, "SYNC_RATE_BURST", cfg.SyncRateBurst); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = intVar(getenv, "SMTP_PORT", cfg.SMTPPort); err != nil {
		return Config{}, err
	}
	if raw := strings.TrimSpace(getenv("INVENTORY_NAME_FALLBACK")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid INVENTORY_NAME_FALLBACK: %q", raw)
		}
		cfg.InventoryNameFallback = v
	}

	if raw := strings.TrimSpace(getenv("S3_USE_SSL")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid S3_USE_SSL: %q", raw)
		}
		cfg.S3UseSSL = v
	}

	return cfg, nil
}

func floatVar(getenv func(string) string, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func firstNonEmpty(candidates ...string) string {
	for _, candidate := range candidates {
		if value := strings.TrimSpace(candidate); value != "" {
			return value
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
