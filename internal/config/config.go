package config

import (
	"fmt"
	"time"
)

// Config represents the global configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Security  SecurityConfig  `mapstructure:"security"`
	Market    MarketConfig    `mapstructure:"market"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// TracingConfig represents tracing configuration
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// RateLimitConfig represents rate limiting configuration
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	PerUser struct {
		RPS   int `mapstructure:"rps"`
		Burst int `mapstructure:"burst"`
	} `mapstructure:"per_user"`
}

// SecurityConfig represents security configuration
type SecurityConfig struct {
	JWT struct {
		Secret     string        `mapstructure:"secret"`
		Expire     time.Duration `mapstructure:"expire"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
		Issuer     string        `mapstructure:"issuer"`
	} `mapstructure:"jwt"`
	CORS struct {
		Enabled      bool     `mapstructure:"enabled"`
		AllowOrigins []string `mapstructure:"allow_origins"`
	} `mapstructure:"cors"`
}

// MarketConfig represents marketplace business configuration. These are
// inputs to the core, not computed by it.
type MarketConfig struct {
	ServiceFee          float64 `mapstructure:"service_fee"`           // e.g. 0.1
	RequestValidityDays int     `mapstructure:"request_validity_days"` // order/complete request expiry window
	MaxMessageFiles     int     `mapstructure:"max_message_files"`
	MaxFileSizeMB       int     `mapstructure:"max_file_size_mb"`
	CompletionXP        int     `mapstructure:"completion_xp"` // XP awarded to the seller per completed order
	UploadRoot          string  `mapstructure:"upload_root"`
}

// RequestValidity returns the validity window as a duration
func (m *MarketConfig) RequestValidity() time.Duration {
	return time.Duration(m.RequestValidityDays) * 24 * time.Hour
}

// GetAddr returns the server address
func (s *ServerConfig) GetAddr() string {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetDSN returns the database DSN
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s&readTimeout=30s&writeTimeout=30s",
		d.Username, d.Password, d.Host, d.Port, d.DBName)
}

// GetAddr returns the Redis address
func (r *RedisConfig) GetAddr() string {
	if r.Host == "" {
		r.Host = "localhost"
	}
	if r.Port == 0 {
		r.Port = 6379
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SetDefaults fills in defaults for unset values
func (c *Config) SetDefaults() {
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.RateLimit.PerUser.RPS == 0 {
		c.RateLimit.PerUser.RPS = 10
	}
	if c.RateLimit.PerUser.Burst == 0 {
		c.RateLimit.PerUser.Burst = 20
	}
	if c.Security.JWT.Expire == 0 {
		c.Security.JWT.Expire = 2 * time.Hour
	}
	if c.Security.JWT.RefreshTTL == 0 {
		c.Security.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.Market.ServiceFee == 0 {
		c.Market.ServiceFee = 0.1
	}
	if c.Market.RequestValidityDays == 0 {
		c.Market.RequestValidityDays = 7
	}
	if c.Market.MaxMessageFiles == 0 {
		c.Market.MaxMessageFiles = 5
	}
	if c.Market.MaxFileSizeMB == 0 {
		c.Market.MaxFileSizeMB = 10
	}
	if c.Market.CompletionXP == 0 {
		c.Market.CompletionXP = 50
	}
	if c.Market.UploadRoot == "" {
		c.Market.UploadRoot = "./uploads"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Username == "" {
		return fmt.Errorf("database username is required")
	}

	if c.Security.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	if c.Market.ServiceFee < 0 || c.Market.ServiceFee >= 1 {
		return fmt.Errorf("invalid service fee: %f", c.Market.ServiceFee)
	}

	return nil
}
