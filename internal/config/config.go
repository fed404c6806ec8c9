package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Provider   ProviderConfig   `mapstructure:"provider"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Generation GenerationConfig `mapstructure:"generation"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
	}
	return c.Path
}

// ProviderConfig configures the external text-to-image provider.
type ProviderConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig configures the S3-compatible object store.
type StorageConfig struct {
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// GenerationConfig bounds the generation pipeline.
type GenerationConfig struct {
	MinImageBytes     int           `mapstructure:"min_image_bytes"`
	UploadMaxAttempts int           `mapstructure:"upload_max_attempts"`
	UploadTimeout     time.Duration `mapstructure:"upload_timeout"`
}

type AuthConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// Load reads configuration from the given file path (or the default search
// paths when empty), layering environment variables on top.
func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", false)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/thumblify.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("provider.base_url", "https://clipdrop-api.co")
	v.SetDefault("provider.timeout", 120*time.Second)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "thumbnails")
	v.SetDefault("generation.min_image_bytes", 1000)
	v.SetDefault("generation.upload_max_attempts", 3)
	v.SetDefault("generation.upload_timeout", 60*time.Second)
	v.SetDefault("auth.session_ttl", 7*24*time.Hour)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("provider.api_key", "CLIPDROP_API_KEY")
	v.BindEnv("provider.base_url", "CLIPDROP_BASE_URL")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that credentials required at runtime are present, so
// misconfiguration fails at startup instead of on the first generation.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return fmt.Errorf("provider api key is not set (set CLIPDROP_API_KEY)")
	}
	if c.Storage.Endpoint == "" {
		return fmt.Errorf("storage endpoint is not set (set STORAGE_ENDPOINT)")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return fmt.Errorf("storage credentials are incomplete (set STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY)")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is not set")
	}
	if c.Storage.PublicURL == "" {
		return fmt.Errorf("storage public URL is not set (set STORAGE_PUBLIC_URL)")
	}
	return nil
}
