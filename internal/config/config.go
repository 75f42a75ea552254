package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Sampler   SamplerConfig
	Policy    PolicyConfig
	CORS      CORSConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port            int
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// RedisConfig is optional. With an empty Addr policy generations are not
// shared between instances.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// SamplerConfig holds the location sampler defaults.
type SamplerConfig struct {
	FastTimeout          time.Duration
	FastMaxCachedAge     time.Duration
	TargetAccuracyMeters float64
	MaxWait              time.Duration
	MaxAllowedWait       time.Duration
	SubscriberBuffer     int
}

type PolicyConfig struct {
	GenerationSyncInterval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// TelemetryConfig holds the OTLP metric export. An empty endpoint disables it.
type TelemetryConfig struct {
	OTLPEndpoint   string
	Insecure       bool
	ExportInterval time.Duration
	ServiceVersion string
}

// Load reads the environment, after loading .env when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
		slog.Debug("No .env file found, using environment only")
	}

	var (
		config = &Config{}
		p      parser
	)

	config.App = AppConfig{
		Port:            p.intVar("APP_PORT", 8080),
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: p.durationVar("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     p.intVar("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "attendance_core"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(p.intVar("DB_MAX_CONNS", 10)),
		MinConns: int32(p.intVar("DB_MIN_CONNS", 2)),
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       p.intVar("REDIS_DB", 0),
		Prefix:   getEnv("REDIS_PREFIX", "attendance"),
	}

	config.Sampler = SamplerConfig{
		FastTimeout:          p.durationVar("SAMPLER_FAST_TIMEOUT", 5*time.Second),
		FastMaxCachedAge:     p.durationVar("SAMPLER_FAST_MAX_CACHED_AGE", 60*time.Second),
		TargetAccuracyMeters: p.floatVar("SAMPLER_TARGET_ACCURACY_METERS", 25),
		MaxWait:              p.durationVar("SAMPLER_MAX_WAIT", 20*time.Second),
		MaxAllowedWait:       p.durationVar("SAMPLER_MAX_ALLOWED_WAIT", 2*time.Minute),
		SubscriberBuffer:     p.intVar("SAMPLER_SUBSCRIBER_BUFFER", 16),
	}

	config.Policy = PolicyConfig{
		GenerationSyncInterval: p.durationVar("POLICY_GENERATION_SYNC_INTERVAL", 15*time.Second),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	config.Telemetry = TelemetryConfig{
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure:       p.boolVar("OTEL_EXPORTER_OTLP_INSECURE", true),
		ExportInterval: p.durationVar("METRICS_EXPORT_INTERVAL", 15*time.Second),
		ServiceVersion: getEnv("APP_VERSION", "dev"),
	}

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT must be between 1 and 65535")
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.Sampler.TargetAccuracyMeters <= 0 {
		return fmt.Errorf("SAMPLER_TARGET_ACCURACY_METERS must be positive")
	}
	if c.Sampler.FastTimeout <= 0 || c.Sampler.MaxWait <= 0 {
		return fmt.Errorf("SAMPLER_FAST_TIMEOUT and SAMPLER_MAX_WAIT must be positive")
	}
	if c.Sampler.MaxWait > c.Sampler.MaxAllowedWait {
		return fmt.Errorf("SAMPLER_MAX_WAIT must not exceed SAMPLER_MAX_ALLOWED_WAIT")
	}
	if c.Telemetry.OTLPEndpoint != "" && c.Telemetry.ExportInterval <= 0 {
		return fmt.Errorf("METRICS_EXPORT_INTERVAL must be positive")
	}
	if c.Policy.GenerationSyncInterval <= 0 {
		return fmt.Errorf("POLICY_GENERATION_SYNC_INTERVAL must be positive")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

// parser collects conversion errors so Load reports every bad variable at once.
type parser struct {
	errs []error
}

func (p *parser) intVar(key string, fallback int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) floatVar(key string, fallback float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) durationVar(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) boolVar(key string, fallback bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return v
}
