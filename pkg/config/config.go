package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Application variants select one of the two alternative route sets.
const (
	VariantAdmin   = "admin"
	VariantAccount = "account"
)

type Config struct {
	Env     string
	Port    int
	Variant string

	API        APIConfig
	Redis      RedisConfig
	Session    SessionConfig
	CORS       CORSConfig
	Log        LogConfig
	Grid       GridConfig
	References ReferencesConfig
	Metrics    MetricsConfig
	Export     ExportConfig
}

// APIConfig describes the external timetable REST API.
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// SessionConfig controls the browser session cookie and its lifetime.
type SessionConfig struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	Secure     bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GridConfig tunes week grid rendering.
type GridConfig struct {
	PeriodsFile      string
	MobileBreakpoint int
	Timezone         string
	RenderWait       time.Duration
	FeedIdleTTL      time.Duration
	SweepCron        string
}

// ReferencesConfig governs caching and refresh of reference lists.
type ReferencesConfig struct {
	CacheTTL    time.Duration
	RefreshCron string
	Workers     int
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// ExportConfig points exporters at a TrueType font covering Cyrillic.
type ExportConfig struct {
	FontFile string
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.Variant = normalizeVariant(v.GetString("APP_VARIANT"))

	retries := v.GetInt("FETCH_RETRIES")
	if retries < 0 {
		retries = 0
	}
	cfg.API = APIConfig{
		BaseURL:    strings.TrimRight(v.GetString("API_BASE_URL"), "/"),
		Timeout:    parseDuration(v.GetString("API_TIMEOUT"), 30*time.Second),
		Retries:    retries,
		RetryDelay: parseDuration(v.GetString("FETCH_RETRY_DELAY"), time.Second),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Session = SessionConfig{
		CookieName: v.GetString("SESSION_COOKIE"),
		Secret:     v.GetString("SESSION_SECRET"),
		TTL:        parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
		Secure:     v.GetBool("SESSION_SECURE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	breakpoint := v.GetInt("MOBILE_BREAKPOINT")
	if breakpoint <= 0 {
		breakpoint = 768
	}
	cfg.Grid = GridConfig{
		PeriodsFile:      v.GetString("PERIODS_FILE"),
		MobileBreakpoint: breakpoint,
		Timezone:         v.GetString("TIMEZONE"),
		RenderWait:       parseDuration(v.GetString("RENDER_WAIT"), 2*time.Second),
		FeedIdleTTL:      parseDuration(v.GetString("FEED_IDLE_TTL"), time.Hour),
		SweepCron:        v.GetString("FEED_SWEEP_CRON"),
	}

	cfg.References = ReferencesConfig{
		CacheTTL:    parseDuration(v.GetString("REFERENCE_CACHE_TTL"), 10*time.Minute),
		RefreshCron: v.GetString("REFERENCE_REFRESH_CRON"),
		Workers:     v.GetInt("REFERENCE_WORKERS"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}
	cfg.Export = ExportConfig{FontFile: v.GetString("EXPORT_FONT_FILE")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("APP_VARIANT", VariantAdmin)

	v.SetDefault("API_BASE_URL", "http://localhost:8000")
	v.SetDefault("API_TIMEOUT", "30s")
	v.SetDefault("FETCH_RETRIES", 3)
	v.SetDefault("FETCH_RETRY_DELAY", "1s")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_COOKIE", "tt_session")
	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_SECURE", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PERIODS_FILE", "")
	v.SetDefault("MOBILE_BREAKPOINT", 768)
	v.SetDefault("TIMEZONE", "Europe/Moscow")
	v.SetDefault("RENDER_WAIT", "2s")
	v.SetDefault("FEED_IDLE_TTL", "1h")
	v.SetDefault("FEED_SWEEP_CRON", "*/10 * * * *")

	v.SetDefault("REFERENCE_CACHE_TTL", "10m")
	v.SetDefault("REFERENCE_REFRESH_CRON", "*/15 * * * *")
	v.SetDefault("REFERENCE_WORKERS", 1)

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("EXPORT_FONT_FILE", "")
}

func normalizeVariant(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case VariantAccount:
		return VariantAccount
	default:
		return VariantAdmin
	}
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
