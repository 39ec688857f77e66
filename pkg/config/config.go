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

// Store driver names accepted by STORE_DRIVER.
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	SiteURL   string

	Database  DatabaseConfig
	Redis     RedisConfig
	Store     StoreConfig
	Notes     NotesConfig
	ViewToken ViewTokenConfig
	Sweep     SweepConfig
	CORS      CORSConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StoreConfig selects the note store backend and bounds its calls.
type StoreConfig struct {
	Driver       string
	QueryTimeout time.Duration
}

// NotesConfig carries the note lifecycle limits.
type NotesConfig struct {
	IDLength        int
	DefaultMaxViews int
	MaxViewsLimit   int
	ExpiryWindow    time.Duration
	BcryptCost      int
}

// ViewTokenConfig configures the short-lived signed tokens that carry
// an already-consumed note view across form re-submits.
type ViewTokenConfig struct {
	Secret string
	TTL    time.Duration
}

// SweepConfig controls the background expiry sweep.
type SweepConfig struct {
	Interval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
	cfg.SiteURL = strings.TrimRight(v.GetString("SITE_URL"), "/")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Store = StoreConfig{
		Driver:       v.GetString("STORE_DRIVER"),
		QueryTimeout: parseDuration(v.GetString("STORE_QUERY_TIMEOUT"), 5*time.Second),
	}

	cfg.Notes = NotesConfig{
		IDLength:        v.GetInt("NOTE_ID_LENGTH"),
		DefaultMaxViews: v.GetInt("NOTE_DEFAULT_MAX_VIEWS"),
		MaxViewsLimit:   v.GetInt("NOTE_MAX_VIEWS_LIMIT"),
		ExpiryWindow:    parseDuration(v.GetString("NOTE_EXPIRY_WINDOW"), 7*24*time.Hour),
		BcryptCost:      v.GetInt("NOTE_BCRYPT_COST"),
	}

	cfg.ViewToken = ViewTokenConfig{
		Secret: v.GetString("VIEW_TOKEN_SECRET"),
		TTL:    parseDuration(v.GetString("VIEW_TOKEN_TTL"), 5*time.Minute),
	}

	cfg.Sweep = SweepConfig{
		Interval: parseDuration(v.GetString("SWEEP_INTERVAL"), time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SITE_URL", "http://localhost:8080")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "distruct")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STORE_DRIVER", StorePostgres)
	v.SetDefault("STORE_QUERY_TIMEOUT", "5s")

	v.SetDefault("NOTE_ID_LENGTH", 32)
	v.SetDefault("NOTE_DEFAULT_MAX_VIEWS", 1)
	v.SetDefault("NOTE_MAX_VIEWS_LIMIT", 100)
	v.SetDefault("NOTE_EXPIRY_WINDOW", "168h")
	v.SetDefault("NOTE_BCRYPT_COST", 12)

	v.SetDefault("VIEW_TOKEN_SECRET", "dev_view_token_secret")
	v.SetDefault("VIEW_TOKEN_TTL", "5m")

	v.SetDefault("SWEEP_INTERVAL", "1h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
