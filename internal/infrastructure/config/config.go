package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Shopify     ShopifyConfig
	Sync        SyncConfig
	Abandonment AbandonmentConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. Redis is optional: when
// disabled, locking degrades to always-granted and projection caching is off.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds settings for validating session tokens on the manual
// sync trigger
type JWTConfig struct {
	Secret string
	Issuer string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	AllowOrigins   []string // CORS origins; empty rejects all cross-origin callers
}

// ShopifyConfig holds settings for the upstream storefront API
type ShopifyConfig struct {
	APIVersion     string
	PageSize       int
	TimeoutSeconds int
	WebhookSecret  string // shared per-deployment HMAC secret
}

// SyncConfig holds full-sync orchestration settings
type SyncConfig struct {
	CronKey            string        // shared secret for the cron trigger
	TenantPause        time.Duration // pause between tenants in an all-tenant pass
	LoadRetryAttempts  int           // bounded retries for storage-unreachable tenant loads
	LoadRetryBaseDelay time.Duration
	LoadRetryMaxDelay  time.Duration
	LockTTL            time.Duration
	RetryAfterSeconds  int // retry hint returned when storage is unreachable
}

// AbandonmentConfig holds abandonment sweep settings
type AbandonmentConfig struct {
	ThresholdMinutes int // inactivity threshold
	LookbackHours    int // correlation window
	LockTTL          time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with STORESYNC_ prefix (e.g. STORESYNC_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STORESYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			Issuer: v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			AllowOrigins:   v.GetStringSlice("http.allow_origins"),
		},
		Shopify: ShopifyConfig{
			APIVersion:     v.GetString("shopify.api_version"),
			PageSize:       v.GetInt("shopify.page_size"),
			TimeoutSeconds: v.GetInt("shopify.timeout_seconds"),
			WebhookSecret:  v.GetString("shopify.webhook_secret"),
		},
		Sync: SyncConfig{
			CronKey:            v.GetString("sync.cron_key"),
			TenantPause:        v.GetDuration("sync.tenant_pause"),
			LoadRetryAttempts:  v.GetInt("sync.load_retry_attempts"),
			LoadRetryBaseDelay: v.GetDuration("sync.load_retry_base_delay"),
			LoadRetryMaxDelay:  v.GetDuration("sync.load_retry_max_delay"),
			LockTTL:            v.GetDuration("sync.lock_ttl"),
			RetryAfterSeconds:  v.GetInt("sync.retry_after_seconds"),
		},
		Abandonment: AbandonmentConfig{
			ThresholdMinutes: v.GetInt("abandonment.threshold_minutes"),
			LookbackHours:    v.GetInt("abandonment.lookback_hours"),
			LockTTL:          v.GetDuration("abandonment.lock_ttl"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storesync-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storesync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "storesync-backend"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2024-01"
	}
	if cfg.Shopify.PageSize == 0 {
		cfg.Shopify.PageSize = 250
	}
	if cfg.Shopify.TimeoutSeconds == 0 {
		cfg.Shopify.TimeoutSeconds = 30
	}
	if cfg.Sync.TenantPause == 0 {
		cfg.Sync.TenantPause = 500 * time.Millisecond
	}
	if cfg.Sync.LoadRetryAttempts == 0 {
		cfg.Sync.LoadRetryAttempts = 4
	}
	if cfg.Sync.LoadRetryBaseDelay == 0 {
		cfg.Sync.LoadRetryBaseDelay = time.Second
	}
	if cfg.Sync.LoadRetryMaxDelay == 0 {
		cfg.Sync.LoadRetryMaxDelay = 8 * time.Second
	}
	if cfg.Sync.LockTTL == 0 {
		cfg.Sync.LockTTL = 10 * time.Minute
	}
	if cfg.Sync.RetryAfterSeconds == 0 {
		cfg.Sync.RetryAfterSeconds = 30
	}
	if cfg.Abandonment.ThresholdMinutes == 0 {
		cfg.Abandonment.ThresholdMinutes = 60
	}
	if cfg.Abandonment.LookbackHours == 0 {
		cfg.Abandonment.LookbackHours = 24
	}
	if cfg.Abandonment.LockTTL == 0 {
		cfg.Abandonment.LockTTL = 5 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sync.LoadRetryAttempts < 1 || c.Sync.LoadRetryAttempts > 5 {
		return fmt.Errorf("sync.load_retry_attempts must be between 1 and 5")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Shopify.WebhookSecret == "" {
			return fmt.Errorf("shopify.webhook_secret is required in production")
		}
		if c.Sync.CronKey == "" {
			return fmt.Errorf("sync.cron_key is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis address in host:port form
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
