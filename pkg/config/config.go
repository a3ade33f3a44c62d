package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis     RedisConfig
	Registrar RegistrarConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Billing   BillingConfig
	Sync      SyncConfig
	Reconcile ReconcileConfig
	Faculty   FacultyConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RegistrarConfig points the portal at the external enrollment backend.
type RegistrarConfig struct {
	BaseURL string
	Timeout time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BillingConfig holds the flat per-unit tuition rate.
type BillingConfig struct {
	PerUnitRate int
}

// SyncConfig tunes the faculty snapshot channel and record poller.
type SyncConfig struct {
	PollInterval time.Duration
	CacheTTL     time.Duration
}

// ReconcileConfig configures the best-effort registrar mirror queue.
type ReconcileConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// FacultyConfig gates the staff-facing endpoints.
type FacultyConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Registrar = RegistrarConfig{
		BaseURL: v.GetString("REGISTRAR_BASE_URL"),
		Timeout: parseDuration(v.GetString("REGISTRAR_TIMEOUT"), 10*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Billing = BillingConfig{PerUnitRate: v.GetInt("BILLING_PER_UNIT_RATE")}

	cfg.Sync = SyncConfig{
		PollInterval: parseDuration(v.GetString("SYNC_POLL_INTERVAL"), 5*time.Second),
		CacheTTL:     parseDuration(v.GetString("SYNC_CACHE_TTL"), time.Minute),
	}

	cfg.Reconcile = ReconcileConfig{
		Workers:    v.GetInt("RECONCILE_WORKERS"),
		BufferSize: v.GetInt("RECONCILE_BUFFER_SIZE"),
		MaxRetries: v.GetInt("RECONCILE_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("RECONCILE_RETRY_DELAY"), time.Second),
	}

	cfg.Faculty = FacultyConfig{Enabled: v.GetBool("ENABLE_FACULTY")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8081)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("REGISTRAR_BASE_URL", "http://localhost:8080/api")
	v.SetDefault("REGISTRAR_TIMEOUT", "10s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "aems-portal")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BILLING_PER_UNIT_RATE", 500)

	v.SetDefault("SYNC_POLL_INTERVAL", "5s")
	v.SetDefault("SYNC_CACHE_TTL", "1m")

	v.SetDefault("RECONCILE_WORKERS", 2)
	v.SetDefault("RECONCILE_BUFFER_SIZE", 32)
	v.SetDefault("RECONCILE_MAX_RETRIES", 3)
	v.SetDefault("RECONCILE_RETRY_DELAY", "1s")

	v.SetDefault("ENABLE_FACULTY", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
