package models

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ServerAddr          string `yaml:"server_addr"`
	DatabaseURL         string `yaml:"database_url"`
	DatabaseName        string `yaml:"database_name"`
	MigrationsDir       string `yaml:"migrations_dir"`
	KafkaBroker         string `yaml:"kafka_broker"`
	KafkaTopic          string `yaml:"kafka_topic"`
	KafkaGroup          string `yaml:"kafka_group"`
	CacheDir            string `yaml:"cache_dir"`
	FontsDir            string `yaml:"fonts_dir"`
	DefaultThumbnailURL string `yaml:"default_thumbnail_url"`
	WatermarkText       string `yaml:"watermark_text"`
	OwnerID             int64  `yaml:"owner_id"`
	TelegramToken       string `yaml:"telegram_token"`
	DownloadTimeout     string `yaml:"download_timeout"`
}

const (
	DefaultServerAddr      = ":8080"
	DefaultCacheDir        = "cache"
	DefaultFontsDir        = "fonts"
	DefaultMigrationsDir   = "migrations"
	DefaultKafkaGroup      = "thumbnail-render-group"
	DefaultWatermarkText   = "Powered by Armed Music"
	DefaultDownloadTimeout = 12 * time.Second
)

var (
	ErrNoDefaultThumbnail = errors.New("default_thumbnail_url is required")
	ErrNoOwner            = errors.New("owner_id is required")
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		c.TelegramToken = v
	}
	if v := os.Getenv("OWNER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.New("OWNER_ID must be an integer")
		}
		c.OwnerID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	if c.FontsDir == "" {
		c.FontsDir = DefaultFontsDir
	}
	if c.MigrationsDir == "" {
		c.MigrationsDir = DefaultMigrationsDir
	}
	if c.KafkaGroup == "" {
		c.KafkaGroup = DefaultKafkaGroup
	}
	if c.WatermarkText == "" {
		c.WatermarkText = DefaultWatermarkText
	}
}

func (c *Config) Validate() error {
	if c.DefaultThumbnailURL == "" {
		return ErrNoDefaultThumbnail
	}
	if c.OwnerID == 0 {
		return ErrNoOwner
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// Timeout returns the artwork download timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.DownloadTimeout == "" {
		return DefaultDownloadTimeout, nil
	}
	d, err := time.ParseDuration(c.DownloadTimeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("download_timeout must be positive")
	}
	return d, nil
}
