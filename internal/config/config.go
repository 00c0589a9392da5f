package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewProvisioningHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string
	OTelEnabled  bool

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	// TenantDBPrefix is prepended to the tenant id to name tenant databases.
	TenantDBPrefix string
	// TenantDBDir holds per-tenant sqlite files when DBType is sqlite.
	TenantDBDir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SchedulerEnabled runs background jobs inside the HTTP service.
	SchedulerEnabled         bool
	SchedulerIntervalSeconds int

	RateLimit RateLimitConfig

	// APIAuthEnabled requires an operator API key on every /v1 route.
	APIAuthEnabled bool

	Hosting HostingConfig
}

// RateLimitConfig throttles spreadsheet uploads per tenant. It needs redis.
type RateLimitConfig struct {
	Enabled bool
	// ImportsPerMinute is the sustained upload rate for one tenant.
	ImportsPerMinute float64
	ImportBurst      int
}

// HostingConfig carries control-panel credentials used by the subdomain registrar.
type HostingConfig struct {
	Username string
	APIKey   string
	Password string
	Host     string
	// BaseURL replaces the scheme, host and port of control-panel calls.
	BaseURL string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:           getenv("APP_SERVICE", "possaas"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		OTelEnabled:       getenvBool("OTEL_ENABLED", false),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "possaas"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		TenantDBPrefix:    getenv("TENANT_DATABASE_PREFIX", "tenant_"),
		TenantDBDir:       getenv("TENANT_DATABASE_DIR", "storage/tenants"),
		RedisAddr:         strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),

		SchedulerEnabled:         getenvBool("SCHEDULER_ENABLED", true),
		SchedulerIntervalSeconds: getenvInt("SCHEDULER_INTERVAL_SECONDS", 60),
		RateLimit: RateLimitConfig{
			Enabled:          getenvBool("IMPORT_RATE_LIMIT_ENABLED", false),
			ImportsPerMinute: getenvFloat("IMPORT_RATE_PER_MINUTE", 6),
			ImportBurst:      getenvInt("IMPORT_RATE_BURST", 3),
		},
		APIAuthEnabled: getenvBool("API_AUTH_ENABLED", true),
		Hosting: HostingConfig{
			Username: strings.TrimSpace(getenv("HOSTING_USERNAME", "")),
			APIKey:   strings.TrimSpace(getenv("HOSTING_API_KEY", "")),
			Password: getenv("HOSTING_PASSWORD", ""),
			Host:     strings.TrimSpace(getenv("HOSTING_HOST", "")),
			BaseURL:  strings.TrimSpace(getenv("HOSTING_BASE_URL", "")),
		},
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
