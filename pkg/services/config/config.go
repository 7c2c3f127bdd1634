package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/orchard-atlas/pkg/services/aggregate"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "ORCHARD"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Grouping  GroupingConfig  `mapstructure:"grouping"`
	History   HistoryConfig   `mapstructure:"history"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type GroupingConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type HistoryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
}

type AnalyticsConfig struct {
	PageSize   int    `mapstructure:"page_size"`
	Duplicates string `mapstructure:"duplicates"`
}

// StorageConfig selects where the user-files root folder lives: an S3 bucket when Bucket
// is set, a local directory otherwise.
type StorageConfig struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Profile   string `mapstructure:"profile"`
	LocalRoot string `mapstructure:"local_root"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.path", "orchard.db")
	v.SetDefault("grouping.timezone", "UTC")
	v.SetDefault("history.max_retries", 3)
	v.SetDefault("history.base_delay", time.Second)
	v.SetDefault("analytics.page_size", aggregate.DefaultPageSize)
	v.SetDefault("analytics.duplicates", string(aggregate.DuplicatesSum))
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", "user-files")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.profile", "")
	v.SetDefault("storage.local_root", "data")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads the YAML file at path (optional when empty), applies ORCHARD_* environment
// overrides and validates the result. A .env file in the working directory is loaded first.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := aggregate.ParseDuplicatePolicy(c.Analytics.Duplicates); err != nil {
		return fmt.Errorf("analytics.duplicates: %w", err)
	}
	if c.History.MaxRetries <= 0 {
		return fmt.Errorf("history.max_retries must be positive")
	}
	if c.Analytics.PageSize <= 0 {
		return fmt.Errorf("analytics.page_size must be positive")
	}
	return nil
}

// Location is the zone used to bucket requests into calendar days.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Grouping.Timezone)
	if err != nil {
		return nil, fmt.Errorf("grouping.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) DuplicatePolicy() aggregate.DuplicatePolicy {
	p, err := aggregate.ParseDuplicatePolicy(c.Analytics.Duplicates)
	if err != nil {
		return aggregate.DuplicatesSum
	}
	return p
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
