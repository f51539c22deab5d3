// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FOODTRACK_SERVER_PORT
const EnvPrefix = "FOODTRACK"

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Planning   PlanningConfig   `mapstructure:"planning"`
	Email      EmailConfig      `mapstructure:"email"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`

	// file is the config file that was read, empty when only defaults and env apply
	file string
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
	// PublicURL is the externally visible base URL of this API
	PublicURL string `mapstructure:"public_url"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	Replicas        []string      `mapstructure:"replicas"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	Seed            bool          `mapstructure:"seed"`
}

// DSN returns the Postgres connection URL
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

// RedisConfig contains Redis configuration. An empty Addr selects the in-memory cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Enabled reports whether a Redis server is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	Issuer            string        `mapstructure:"issuer"`
	AccessExpiration  time.Duration `mapstructure:"access_expiration"`
	RefreshExpiration time.Duration `mapstructure:"refresh_expiration"`
	AdminEmails       []string      `mapstructure:"admin_emails"`
}

// PlanningConfig contains meal plan generation defaults
type PlanningConfig struct {
	FallbackPolicy       string `mapstructure:"fallback_policy"`
	DefaultMaxPrepTime   int    `mapstructure:"default_max_prep_time"`
	DefaultHouseholdSize int    `mapstructure:"default_household_size"`
}

// EmailConfig contains SMTP and moderation addresses. Secure selects
// implicit TLS (usually port 465) instead of STARTTLS.
type EmailConfig struct {
	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	SMTPUsername string        `mapstructure:"smtp_username"`
	SMTPPassword string        `mapstructure:"smtp_password"`
	Secure       bool          `mapstructure:"secure"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FromAddress  string        `mapstructure:"from_address"`
	FromName     string        `mapstructure:"from_name"`
	AdminEmail   string        `mapstructure:"admin_email"`
	FrontendURL  string        `mapstructure:"frontend_url"`
}

// Enabled reports whether an SMTP server is configured
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != ""
}

// StorageConfig contains image storage configuration
type StorageConfig struct {
	Driver    string `mapstructure:"driver"`
	LocalDir  string `mapstructure:"local_dir"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	Prefix    string `mapstructure:"prefix"`
	PublicURL string `mapstructure:"public_url"`
}

// MonitoringConfig contains metrics and tracing configuration
type MonitoringConfig struct {
	EnableMetrics  bool    `mapstructure:"enable_metrics"`
	EnableTracing  bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
	ServiceName    string  `mapstructure:"service_name"`
	InsecureExport bool    `mapstructure:"insecure_export"`
}

// RateLimitConfig contains per-client rate limiting configuration
type RateLimitConfig struct {
	Enable         bool `mapstructure:"enable"`
	RequestsPerMin int  `mapstructure:"requests_per_min"`
	BurstSize      int  `mapstructure:"burst_size"`
	// AuthRequestsPerMin limits login, registration and refresh per client
	AuthRequestsPerMin int           `mapstructure:"auth_requests_per_min"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval"`
}

// Load reads .env, then the config file, then FOODTRACK_* environment overrides
func Load(configPath string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/foodtrack")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.file = v.ConfigFileUsed()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "FoodTrack")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")
	v.SetDefault("app.public_url", "http://localhost:8080")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "20s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.enable_compression", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "foodtrack.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "foodtrack")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.slow_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	v.SetDefault("auth.issuer", "foodtrack")
	v.SetDefault("auth.access_expiration", "1h")
	v.SetDefault("auth.refresh_expiration", "168h")

	v.SetDefault("planning.fallback_policy", "any")
	v.SetDefault("planning.default_max_prep_time", 120)
	v.SetDefault("planning.default_household_size", 4)

	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.secure", false)
	v.SetDefault("email.timeout", "10s")
	v.SetDefault("email.from_address", "no-reply@foodtrack.local")
	v.SetDefault("email.from_name", "FoodTrack")
	v.SetDefault("email.frontend_url", "http://localhost:3000")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.prefix", "images")

	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.service_name", "foodtrack-api")

	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 120)
	v.SetDefault("rate_limit.burst_size", 20)
	v.SetDefault("rate_limit.auth_requests_per_min", 10)
	v.SetDefault("rate_limit.cleanup_interval", "5m")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("auth.jwt_secret is required in production")
		}
		c.Auth.JWTSecret = "development-secret-change-me"
	}
	if c.Auth.AccessExpiration <= 0 || c.Auth.RefreshExpiration <= 0 {
		return fmt.Errorf("auth token expirations must be positive")
	}

	switch c.Planning.FallbackPolicy {
	case "any", "none":
	default:
		return fmt.Errorf("planning.fallback_policy must be any or none, got %q", c.Planning.FallbackPolicy)
	}
	if c.Email.Timeout <= 0 {
		return fmt.Errorf("email.timeout must be positive")
	}

	if c.Planning.DefaultMaxPrepTime < 5 || c.Planning.DefaultMaxPrepTime > 240 {
		return fmt.Errorf("planning.default_max_prep_time must be between 5 and 240")
	}
	if c.Planning.DefaultHouseholdSize < 1 || c.Planning.DefaultHouseholdSize > 20 {
		return fmt.Errorf("planning.default_household_size must be between 1 and 20")
	}

	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for s3")
		}
	default:
		return fmt.Errorf("storage.driver must be local or s3, got %q", c.Storage.Driver)
	}
	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// File returns the config file that was read, if any
func (c *Config) File() string {
	return c.file
}
