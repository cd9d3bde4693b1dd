package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Provider names accepted by discovery.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderMock      = "mock"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host          string   `mapstructure:"host"`
	Port          int      `mapstructure:"port"`
	AllowOrigins  []string `mapstructure:"allow_origins"`
	BodyLimit     string   `mapstructure:"body_limit"`
	ShutdownGrace int      `mapstructure:"shutdown_grace_seconds"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret     string `mapstructure:"jwt_secret"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
	// SecretKey protects per-user API keys at rest. Falls back to JWTSecret.
	SecretKey    string `mapstructure:"secret_key"`
	SecureCookie bool   `mapstructure:"secure_cookie"`
}

// TokenTTL returns the lifetime of issued session tokens.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// DiscoveryConfig selects and tunes the recommendation provider.
type DiscoveryConfig struct {
	Provider     string         `mapstructure:"provider"`
	MaxCount     int            `mapstructure:"max_count"`
	DefaultKinds []string       `mapstructure:"default_kinds"`
	RateLimit    RateLimit      `mapstructure:"rate_limit"`
	Breaker      BreakerConfig  `mapstructure:"breaker"`
	Anthropic    ProviderConfig `mapstructure:"anthropic"`
	OpenAI       ProviderConfig `mapstructure:"openai"`
}

// ProviderConfig holds the connection settings for one LLM provider.
type ProviderConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	Model          string  `mapstructure:"model"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Temperature    float64 `mapstructure:"temperature"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// Timeout returns the per-request timeout for the provider.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// RateLimit bounds discovery requests per user.
type RateLimit struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

// BreakerConfig tunes the circuit breaker in front of the provider.
type BreakerConfig struct {
	ConsecutiveFailures int `mapstructure:"consecutive_failures"`
	OpenSeconds         int `mapstructure:"open_seconds"`
}

// MetadataConfig holds enrichment settings.
type MetadataConfig struct {
	TMDB        TMDBConfig    `mapstructure:"tmdb"`
	Scraper     ScraperConfig `mapstructure:"scraper"`
	Concurrency int           `mapstructure:"concurrency"`
}

// TMDBConfig holds TMDB API settings.
type TMDBConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	ImageBaseURL   string `mapstructure:"image_base_url"`
	Language       string `mapstructure:"language"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ScraperConfig holds settings for OpenGraph page lookups.
type ScraperConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	YouTubeBaseURL string `mapstructure:"youtube_base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// CacheConfig holds enrichment cache settings. A non-empty RedisURL selects
// the shared Redis cache instead of the in-process one.
type CacheConfig struct {
	TTLMinutes int    `mapstructure:"ttl_minutes"`
	MaxItems   int    `mapstructure:"max_items"`
	RedisURL   string `mapstructure:"redis_url"`
}

// TTL returns the enrichment cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// SchedulerConfig holds cron expressions for background tasks.
type SchedulerConfig struct {
	ProviderHealthCron string `mapstructure:"provider_health_cron"`
	HousekeepingCron   string `mapstructure:"housekeeping_cron"`
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	// Values already in the environment take precedence over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.baing")
	}

	v.SetEnvPrefix("BAING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider credentials are also read from their conventional variables.
	_ = v.BindEnv("discovery.anthropic.api_key", "BAING_DISCOVERY_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("discovery.openai.api_key", "BAING_DISCOVERY_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("metadata.tmdb.api_key", "BAING_METADATA_TMDB_API_KEY", "TMDB_API_KEY")
	_ = v.BindEnv("cache.redis_url", "BAING_CACHE_REDIS_URL", "REDIS_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Metadata.TMDB.APIKey == "" {
		cfg.Metadata.TMDB.APIKey = EmbeddedTMDBKey
	}
	cfg.Discovery.Provider = strings.ToLower(strings.TrimSpace(cfg.Discovery.Provider))

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allow_origins", []string{"http://localhost:8080"})
	v.SetDefault("server.body_limit", "2M")
	v.SetDefault("server.shutdown_grace_seconds", 10)

	v.SetDefault("database.path", "./data/baing.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_hours", 24*7)
	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.secure_cookie", false)

	v.SetDefault("discovery.provider", ProviderAnthropic)
	v.SetDefault("discovery.max_count", 50)
	v.SetDefault("discovery.default_kinds", []string{"movies", "tv-shows"})
	v.SetDefault("discovery.rate_limit.per_minute", 10)
	v.SetDefault("discovery.rate_limit.burst", 3)
	v.SetDefault("discovery.breaker.consecutive_failures", 5)
	v.SetDefault("discovery.breaker.open_seconds", 60)

	v.SetDefault("discovery.anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("discovery.anthropic.model", "claude-3-5-sonnet-20240620")
	v.SetDefault("discovery.anthropic.max_tokens", 4096)
	v.SetDefault("discovery.anthropic.temperature", 1.0)
	v.SetDefault("discovery.anthropic.timeout_seconds", 120)

	v.SetDefault("discovery.openai.base_url", "https://api.openai.com")
	v.SetDefault("discovery.openai.model", "gpt-4o-mini")
	v.SetDefault("discovery.openai.max_tokens", 4096)
	v.SetDefault("discovery.openai.temperature", 1.0)
	v.SetDefault("discovery.openai.timeout_seconds", 120)

	v.SetDefault("metadata.tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("metadata.tmdb.image_base_url", "https://image.tmdb.org/t/p")
	v.SetDefault("metadata.tmdb.language", "en-US")
	v.SetDefault("metadata.tmdb.timeout_seconds", 30)
	v.SetDefault("metadata.scraper.user_agent", "Mozilla/5.0 (compatible; baing/1.0)")
	v.SetDefault("metadata.scraper.youtube_base_url", "https://www.youtube.com")
	v.SetDefault("metadata.scraper.timeout_seconds", 15)
	v.SetDefault("metadata.concurrency", 8)

	v.SetDefault("cache.ttl_minutes", 24*60)
	v.SetDefault("cache.max_items", 5000)

	v.SetDefault("scheduler.provider_health_cron", "*/15 * * * *")
	v.SetDefault("scheduler.housekeeping_cron", "0 * * * *")
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
