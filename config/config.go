package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Usage     UsageConfig     `mapstructure:"usage"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Timeouts  TimeoutConfig   `mapstructure:"timeouts"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Swagger   SwaggerConfig   `mapstructure:"swagger"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxUploadBytes caps multipart bodies before any handler sees them.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 身份令牌校验配置。令牌由外部身份服务签发。
type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	// JWKSURL switches verification to RS* tokens signed by the provider's published keys.
	JWKSURL    string        `mapstructure:"jwks_url"`
	Issuer     string        `mapstructure:"issuer"`
	Audience   string        `mapstructure:"audience"`
	PlansClaim string        `mapstructure:"plans_claim"`
	Leeway     time.Duration `mapstructure:"leeway"`
	// Disabled injects a fixed local identity; refused when server.mode is release.
	Disabled bool `mapstructure:"disabled"`
}

type UsageConfig struct {
	Backend   string `mapstructure:"backend"` // database, redis
	FreeLimit int    `mapstructure:"free_limit"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type FeedConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
}

// TimeoutConfig bounds every call that leaves the process.
type TimeoutConfig struct {
	Ledger     time.Duration `mapstructure:"ledger"`
	Storage    time.Duration `mapstructure:"storage"`
	TextGen    time.Duration `mapstructure:"text_gen"`
	ImageGen   time.Duration `mapstructure:"image_gen"`
	Upload     time.Duration `mapstructure:"upload"`
	PDFExtract time.Duration `mapstructure:"pdf_extract"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, console
}

type SentryConfig struct {
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type ProvidersConfig struct {
	TextGen    TextGenConfig    `mapstructure:"text_gen"`
	ClipDrop   ClipDropConfig   `mapstructure:"clipdrop"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
}

// TextGenConfig points at any OpenAI-compatible chat completion endpoint.
type TextGenConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

type ClipDropConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type SwaggerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load 读取配置：默认值 < config.yaml < .env / 环境变量（前缀 APP_）
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 12<<20)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:creations.db?_busy_timeout=5000")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// 仅设置了默认值的键才会被 AutomaticEnv 覆盖，密钥类配置也要占位
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.jwks_url", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.audience", "")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("auth.plans_claim", "plans")
	v.SetDefault("auth.leeway", 30*time.Second)

	v.SetDefault("usage.backend", "database")
	v.SetDefault("usage.free_limit", 10)
	v.SetDefault("usage.key_prefix", "usage")

	v.SetDefault("feed.max_attempts", 2)
	v.SetDefault("feed.initial_backoff", 100*time.Millisecond)

	v.SetDefault("timeouts.ledger", 3*time.Second)
	v.SetDefault("timeouts.storage", 5*time.Second)
	v.SetDefault("timeouts.text_gen", 60*time.Second)
	v.SetDefault("timeouts.image_gen", 60*time.Second)
	v.SetDefault("timeouts.upload", 60*time.Second)
	v.SetDefault("timeouts.pdf_extract", 10*time.Second)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests_per_second", 5)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.service_name", "creation-studio")
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("providers.text_gen.api_key", "")
	v.SetDefault("providers.text_gen.base_url", "https://generativelanguage.googleapis.com/v1beta/openai/")
	v.SetDefault("providers.text_gen.model", "gemini-2.0-flash")
	v.SetDefault("providers.text_gen.temperature", 0.7)
	v.SetDefault("providers.clipdrop.api_key", "")
	v.SetDefault("providers.clipdrop.base_url", "https://clipdrop-api.co")
	v.SetDefault("providers.cloudinary.cloud_name", "")
	v.SetDefault("providers.cloudinary.api_key", "")
	v.SetDefault("providers.cloudinary.api_secret", "")

	v.SetDefault("swagger.enabled", false)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	switch c.Usage.Backend {
	case "database", "redis":
	default:
		return fmt.Errorf("unsupported usage backend %q", c.Usage.Backend)
	}
	if c.Usage.FreeLimit < 0 {
		return errors.New("usage.free_limit must not be negative")
	}
	if c.Auth.Disabled && c.Server.Mode == "release" {
		return errors.New("auth.disabled is not allowed in release mode")
	}
	if !c.Auth.Disabled && c.Auth.Secret == "" && c.Auth.JWKSURL == "" {
		return errors.New("auth.secret or auth.jwks_url is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
