// Package config provides configuration loading and validation for voyager.
//
// Configuration is built once at startup: defaults, then an optional YAML
// file, then environment overrides, then validation. The resulting *Config is
// passed to every component that needs it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported generator providers.
const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
)

// Storage backends.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Config represents the complete voyager configuration
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Engine    EngineConfig    `yaml:"engine"`
	Limits    LimitsConfig    `yaml:"limits"`
	Session   SessionConfig   `yaml:"session"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ProviderConfig selects and configures the text generator.
type ProviderConfig struct {
	// Name is one of groq, openai, claude, gemini.
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// Temperature controls randomness (0.0-2.0)
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// Tokenizer names the tiktoken encoding used to bound payloads. Empty
	// means whitespace word counting.
	Tokenizer string `yaml:"tokenizer"`
}

// EngineConfig bounds a conversation turn and sizes the reasoning steps.
type EngineConfig struct {
	// MaxSteps caps the reasoning steps one turn may run.
	MaxSteps int `yaml:"max_steps"`
	// StepTimeout bounds a single step, including its generator call.
	StepTimeout time.Duration `yaml:"step_timeout"`
	// ResearchLimit is the shortlist size handed to the generator.
	ResearchLimit int `yaml:"research_limit"`
	// FallbackTop is how many shortlist entries survive a research failure.
	FallbackTop int `yaml:"fallback_top"`
	// ContextTokens caps the conversation history sent with a payload.
	ContextTokens int `yaml:"context_tokens"`
	// HistoryMessages caps how many turn-log entries a payload may carry.
	HistoryMessages int `yaml:"history_messages"`
	// MaxConcurrency bounds turns running at once across conversations.
	MaxConcurrency int `yaml:"max_concurrency"`
	// MaxDurationDays caps the trip length a user may ask for.
	MaxDurationDays int `yaml:"max_duration_days"`
}

// MaxTripDays is the longest itinerary ever laid out.
const MaxTripDays = 365

// LimitsConfig guards the turn boundary.
type LimitsConfig struct {
	// TurnsPerMinute limits turns per conversation; 0 disables the limiter.
	TurnsPerMinute float64 `yaml:"turns_per_minute"`
	Burst          int     `yaml:"burst"`
	// MaxInputChars rejects longer utterances; 0 disables the check.
	MaxInputChars int `yaml:"max_input_chars"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// SessionConfig selects where conversation state is kept between turns.
type SessionConfig struct {
	// Backend is memory or redis.
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

// ArchiveConfig selects where finished itineraries are recorded.
type ArchiveConfig struct {
	// Backend is none, memory, redis, postgres or mongo.
	Backend  string         `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Mongo    MongoConfig    `yaml:"mongo"`
}

// CatalogConfig locates the offering catalog.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
	// SampleRatio is the share of turns traced, in [0, 1].
	SampleRatio float64 `yaml:"sample_ratio"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:        ProviderGroq,
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.2,
			MaxTokens:   2048,
		},
		Engine: EngineConfig{
			MaxSteps:        6,
			StepTimeout:     30 * time.Second,
			ResearchLimit:   10,
			FallbackTop:     3,
			ContextTokens:   3000,
			HistoryMessages: 6,
			MaxConcurrency:  10,
			MaxDurationDays: 30,
		},
		Limits: LimitsConfig{
			TurnsPerMinute: 30,
			Burst:          5,
			MaxInputChars:  2000,
		},
		Session: SessionConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				DB:     1,
				Prefix: "voyager:session:",
				TTL:    24 * time.Hour,
			},
		},
		Archive: ArchiveConfig{
			Backend: BackendNone,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "voyager:itinerary:",
			},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				User:    "postgres",
				DBName:  "voyager",
				SSLMode: "disable",
			},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "voyager",
				Collection: "itineraries",
			},
		},
		Catalog: CatalogConfig{
			Path: filepath.Join("dataset", "packages.json"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voyager",
			SampleRatio: 1,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path when
// path is not empty, then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	c.Provider.Name = getEnv("VOYAGER_PROVIDER", c.Provider.Name)
	c.Provider.Model = getEnv("VOYAGER_MODEL", c.Provider.Model)
	c.Provider.BaseURL = getEnv("VOYAGER_BASE_URL", c.Provider.BaseURL)
	c.Provider.APIKey = getEnv("VOYAGER_API_KEY", c.Provider.APIKey)
	if c.Provider.APIKey == "" {
		c.Provider.APIKey = os.Getenv(providerKeyEnv(c.Provider.Name))
	}

	c.Engine.MaxSteps = getEnvInt("VOYAGER_MAX_STEPS", c.Engine.MaxSteps)
	c.Engine.StepTimeout = getEnvDuration("VOYAGER_STEP_TIMEOUT", c.Engine.StepTimeout)
	c.Engine.MaxDurationDays = getEnvInt("VOYAGER_MAX_DURATION_DAYS", c.Engine.MaxDurationDays)

	c.Session.Backend = getEnv("VOYAGER_SESSION_BACKEND", c.Session.Backend)
	c.Session.Redis.Addr = getEnv("REDIS_SESSION_ADDR", c.Session.Redis.Addr)
	c.Session.Redis.Password = getEnv("REDIS_SESSION_PASSWORD", c.Session.Redis.Password)

	c.Archive.Backend = getEnv("VOYAGER_ARCHIVE_BACKEND", c.Archive.Backend)
	c.Archive.Redis.Addr = getEnv("REDIS_ADDR", c.Archive.Redis.Addr)
	c.Archive.Redis.Password = getEnv("REDIS_PASSWORD", c.Archive.Redis.Password)
	c.Archive.Postgres.Host = getEnv("POSTGRES_HOST", c.Archive.Postgres.Host)
	c.Archive.Postgres.Port = getEnvInt("POSTGRES_PORT", c.Archive.Postgres.Port)
	c.Archive.Postgres.User = getEnv("POSTGRES_USER", c.Archive.Postgres.User)
	c.Archive.Postgres.Password = getEnv("POSTGRES_PASSWORD", c.Archive.Postgres.Password)
	c.Archive.Postgres.DBName = getEnv("POSTGRES_DB", c.Archive.Postgres.DBName)
	c.Archive.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", c.Archive.Postgres.SSLMode)
	c.Archive.Mongo.URI = getEnv("MONGODB_URI", c.Archive.Mongo.URI)

	c.Catalog.Path = getEnv("VOYAGER_CATALOG", c.Catalog.Path)
	c.Log.Level = getEnv("VOYAGER_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("VOYAGER_LOG_FORMAT", c.Log.Format)
	c.Telemetry.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.Endpoint)
	c.Metrics.Addr = getEnv("VOYAGER_METRICS_ADDR", c.Metrics.Addr)
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	v := NewValidator()
	c.Provider.validate(v)
	c.Engine.validate(v)
	v.RequireNonNegative("limits.turns_per_minute", c.Limits.TurnsPerMinute)
	if c.Limits.TurnsPerMinute > 0 {
		v.RequirePositive("limits.burst", c.Limits.Burst)
	}
	v.RequireNonEmpty("catalog.path", c.Catalog.Path)
	v.ValidateOneOf("log.level", c.Log.Level, "debug", "info", "warn", "error")
	v.ValidateOneOf("log.format", c.Log.Format, "json", "text")
	v.ValidateFloatRange("telemetry.sample_ratio", c.Telemetry.SampleRatio, 0, 1)

	v.ValidateOneOf("session.backend", c.Session.Backend, BackendMemory, BackendRedis)
	if c.Session.Backend == BackendRedis {
		c.Session.Redis.validate(v, "session.redis")
	}

	v.ValidateOneOf("archive.backend", c.Archive.Backend, BackendNone, BackendMemory, BackendRedis, BackendPostgres, BackendMongo)
	switch c.Archive.Backend {
	case BackendRedis:
		c.Archive.Redis.validate(v, "archive.redis")
	case BackendPostgres:
		c.Archive.Postgres.validate(v, "archive.postgres")
	case BackendMongo:
		c.Archive.Mongo.validate(v, "archive.mongo")
	}
	return v.Error()
}

func providerKeyEnv(name string) string {
	switch name {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderClaude:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return "GROQ_API_KEY"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
