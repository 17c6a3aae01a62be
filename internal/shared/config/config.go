package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/uniedit/filelink/internal/shared/errors"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	HTTPClient HTTPClientConfig `mapstructure:"http_client"`
	Upload     UploadConfig     `mapstructure:"upload"`
	STS        STSConfig        `mapstructure:"sts"`
	Log        LogConfig        `mapstructure:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// HTTPClientConfig holds connection pool settings for object store and token service calls.
type HTTPClientConfig struct {
	// Connection pool settings
	MaxIdleConns        int           `mapstructure:"max_idle_conns"`
	MaxIdleConnsPerHost int           `mapstructure:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `mapstructure:"idle_conn_timeout"`

	// Timeout settings
	DialTimeout         time.Duration `mapstructure:"dial_timeout"`
	TLSHandshakeTimeout time.Duration `mapstructure:"tls_handshake_timeout"`
	ResponseTimeout     time.Duration `mapstructure:"response_timeout"`

	// Keep-alive settings
	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// UploadConfig holds upload and link configuration.
type UploadConfig struct {
	Environment        string        `mapstructure:"environment"`
	LocalDir           string        `mapstructure:"local_dir"`
	LinkDuration       time.Duration `mapstructure:"link_duration"`
	MaxSTSLinkDuration time.Duration `mapstructure:"max_sts_link_duration"`
	Wait               WaitConfig    `mapstructure:"wait"`
}

// WaitConfig bounds the post-upload visibility check.
type WaitConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// STSConfig holds role assumption configuration.
type STSConfig struct {
	Endpoint    string        `mapstructure:"endpoint"`
	Region      string        `mapstructure:"region"`
	RoleARN     string        `mapstructure:"role_arn"`
	SessionName string        `mapstructure:"session_name"`
	Breaker     BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig holds circuit breaker configuration for token service calls.
type BreakerConfig struct {
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// Load loads configuration from .env, config file and environment.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration, reading the given file when path is not empty.
func LoadFrom(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/filelink")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults and env
	}

	v.SetEnvPrefix("FILELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override with environment variables for sensitive values
	if key := os.Getenv("FILELINK_STORAGE_SECRET_KEY"); key != "" {
		cfg.Storage.SecretAccessKey = key
	}

	if cfg.STS.Region == "" {
		cfg.STS.Region = cfg.Storage.Region
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MaxSTSLinkDuration is the longest lifetime a role-signed link may have.
const MaxSTSLinkDuration = 36 * time.Hour

// Validate checks values that must stay within fixed limits.
func (c *Config) Validate() error {
	if d := c.Upload.MaxSTSLinkDuration; d <= 0 || d > MaxSTSLinkDuration {
		return apperrors.Configuration(fmt.Sprintf(
			"upload.max_sts_link_duration must be within (0, %s], got %s", MaxSTSLinkDuration, d))
	}
	if c.Upload.LinkDuration <= 0 {
		return apperrors.Configuration(fmt.Sprintf(
			"upload.link_duration must be positive, got %s", c.Upload.LinkDuration))
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 512)

	// Storage defaults
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.use_path_style", false)

	// HTTP client defaults
	v.SetDefault("http_client.max_idle_conns", 100)
	v.SetDefault("http_client.max_idle_conns_per_host", 20)
	v.SetDefault("http_client.max_conns_per_host", 50)
	v.SetDefault("http_client.idle_conn_timeout", 90*time.Second)
	v.SetDefault("http_client.dial_timeout", 30*time.Second)
	v.SetDefault("http_client.tls_handshake_timeout", 10*time.Second)
	v.SetDefault("http_client.response_timeout", 5*time.Minute)
	v.SetDefault("http_client.keep_alive", 30*time.Second)

	// Upload defaults
	v.SetDefault("upload.environment", "dev")
	v.SetDefault("upload.local_dir", "assets/")
	v.SetDefault("upload.link_duration", 72*time.Hour)
	v.SetDefault("upload.max_sts_link_duration", MaxSTSLinkDuration)
	v.SetDefault("upload.wait.max_attempts", 20)
	v.SetDefault("upload.wait.initial_delay", time.Second)
	v.SetDefault("upload.wait.max_delay", 5*time.Second)
	v.SetDefault("upload.wait.timeout", 2*time.Minute)

	// STS defaults
	v.SetDefault("sts.endpoint", "")
	v.SetDefault("sts.region", "")
	v.SetDefault("sts.role_arn", "")
	v.SetDefault("sts.session_name", "")
	v.SetDefault("sts.breaker.failure_threshold", 3)
	v.SetDefault("sts.breaker.open_timeout", 60*time.Second)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Metrics defaults
	v.SetDefault("metrics.namespace", "filelink")
}
