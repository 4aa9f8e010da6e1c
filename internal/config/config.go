package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the commerce engine.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	ClickHouse  ClickHouseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Geo         GeoConfig
	Attribution AttributionConfig
	Pricing     PricingConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ClickHouseConfig configures the click-event analytics sink.
type ClickHouseConfig struct {
	Enabled  bool
	Addr     string
	Database string
	Username string
	Password string
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// GeoConfig configures GeoIP enrichment of click events.
type GeoConfig struct {
	Enabled      bool
	DatabasePath string
}

// AttributionConfig holds link signing and base URL settings. A missing
// SecretKey does not fail validation: the signer degrades to a
// documented insecure default with a warning so link generation keeps
// working (see internal/attribution).
type AttributionConfig struct {
	SecretKey          string
	MarketplaceBaseURL string
	StorefrontBaseURL  string
}

// PricingConfig carries the starting pricing rates; the engine owns
// them after construction and applies updates at runtime.
type PricingConfig struct {
	PlatformFeePercentage    float64
	DropshipMarkupPercentage float64
	MinimumMarkup            float64
	MaximumMarkup            float64
	Currency                 string
	TaxRate                  float64
	ShippingFee              float64
	ProcessingFeeRate        float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("NMBR_COMMERCE_HTTP_ADDR", ":8080"),
			Env:             getEnv("NMBR_COMMERCE_ENV", "development"),
			ShutdownTimeout: getDurationEnv("NMBR_COMMERCE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("NMBR_COMMERCE_DB_HOST", "localhost"),
			Port:     getIntEnv("NMBR_COMMERCE_DB_PORT", 5432),
			User:     getEnv("NMBR_COMMERCE_DB_USER", "commerce"),
			Password: getEnv("NMBR_COMMERCE_DB_PASSWORD", "commerce_secret"),
			DBName:   getEnv("NMBR_COMMERCE_DB_NAME", "commerce"),
			SSLMode:  getEnv("NMBR_COMMERCE_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("NMBR_COMMERCE_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("NMBR_COMMERCE_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Addr:     getEnv("NMBR_COMMERCE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("NMBR_COMMERCE_REDIS_PASSWORD", ""),
			DB:       getIntEnv("NMBR_COMMERCE_REDIS_DB", 0),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:  getBoolEnv("NMBR_COMMERCE_CLICKHOUSE_ENABLED", false),
			Addr:     getEnv("NMBR_COMMERCE_CLICKHOUSE_ADDR", "localhost:9000"),
			Database: getEnv("NMBR_COMMERCE_CLICKHOUSE_DB", "default"),
			Username: getEnv("NMBR_COMMERCE_CLICKHOUSE_USER", "default"),
			Password: getEnv("NMBR_COMMERCE_CLICKHOUSE_PASSWORD", ""),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("NMBR_COMMERCE_AUTH_ENABLED", false),
			MasterKey: getEnv("NMBR_COMMERCE_API_KEY_MASTER", ""),
			SkipPaths: getSliceEnv("NMBR_COMMERCE_AUTH_SKIP_PATHS", []string{"/health", "/metrics", "/r"}),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("NMBR_COMMERCE_RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("NMBR_COMMERCE_RATE_LIMIT_RPS", 500),
			Burst:   getIntEnv("NMBR_COMMERCE_RATE_LIMIT_BURST", 100),
		},
		Log: LogConfig{
			Level:  getEnv("NMBR_COMMERCE_LOG_LEVEL", "info"),
			Format: getEnv("NMBR_COMMERCE_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("NMBR_COMMERCE_METRICS_ENABLED", true),
			Path:    getEnv("NMBR_COMMERCE_METRICS_PATH", "/metrics"),
		},
		Geo: GeoConfig{
			Enabled:      getBoolEnv("NMBR_COMMERCE_GEO_ENABLED", false),
			DatabasePath: getEnv("NMBR_COMMERCE_GEO_DB_PATH", "/app/data/GeoLite2-Country.mmdb"),
		},
		Attribution: AttributionConfig{
			SecretKey:          getEnv("NMBR_COMMERCE_SIGNING_SECRET", ""),
			MarketplaceBaseURL: getEnv("NMBR_COMMERCE_MARKETPLACE_BASE_URL", "https://shop.nmbr.co"),
			StorefrontBaseURL:  getEnv("NMBR_COMMERCE_STOREFRONT_BASE_URL", "https://app.nmbr.co"),
		},
		Pricing: PricingConfig{
			PlatformFeePercentage:    getFloatEnv("NMBR_COMMERCE_PLATFORM_FEE_PCT", 7),
			DropshipMarkupPercentage: getFloatEnv("NMBR_COMMERCE_DROPSHIP_MARKUP_PCT", 20),
			MinimumMarkup:            getFloatEnv("NMBR_COMMERCE_MIN_MARKUP", 2),
			MaximumMarkup:            getFloatEnv("NMBR_COMMERCE_MAX_MARKUP", 50),
			Currency:                 getEnv("NMBR_COMMERCE_CURRENCY", "USD"),
			TaxRate:                  getFloatEnv("NMBR_COMMERCE_TAX_RATE", 0.08),
			ShippingFee:              getFloatEnv("NMBR_COMMERCE_SHIPPING_FEE", 5.99),
			ProcessingFeeRate:        getFloatEnv("NMBR_COMMERCE_PROCESSING_FEE_RATE", 0.029),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("NMBR_COMMERCE_API_KEY_MASTER is required when auth is enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
