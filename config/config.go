package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config 應用程式設定 (viper 從環境變數與可選的設定檔讀取)
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Inventory InventoryConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Nats      NatsConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Env string // development, production
}

// IsProduction reports whether production logging should be used.
func (c AppConfig) IsProduction() bool {
	return c.Env == "production"
}

type HTTPConfig struct {
	Addr string
}

type InventoryConfig struct {
	URL     string
	Timeout time.Duration
}

type StorageConfig struct {
	Driver string
	Key    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled 有設定 REDIS_ADDR 才連線
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type PostgresConfig struct {
	DatabaseURL string
}

type NatsConfig struct {
	URL string
}

func (c NatsConfig) Enabled() bool {
	return c.URL != ""
}

type TelemetryConfig struct {
	OTLPEndpoint string
}

// Load reads configuration from the working directory. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads an optional config.{yaml,json,toml,...} from dir/config or
// dir, then an optional dir/.env on top of it. Environment variables win over
// both. A missing file is fine; an unreadable one is an error.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	if err := mergeConfigFile(v, dir); err != nil {
		return nil, err
	}
	if err := mergeDotEnv(v, filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return fromViper(v)
}

func mergeConfigFile(v *viper.Viper, dir string) error {
	fv := viper.New()
	fv.SetConfigName("config")
	fv.AddConfigPath(filepath.Join(dir, "config"))
	fv.AddConfigPath(dir)

	if err := fv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := v.MergeConfigMap(fv.AllSettings()); err != nil {
		return fmt.Errorf("failed to merge %s: %w", fv.ConfigFileUsed(), err)
	}
	return nil
}

func mergeDotEnv(v *viper.Viper, path string) error {
	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")

	if err := ev.ReadInConfig(); err != nil {
		// 檔案不存在時忽略
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := v.MergeConfigMap(ev.AllSettings()); err != nil {
		return fmt.Errorf("failed to merge %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("INVENTORY_URL", "http://localhost:3333")
	v.SetDefault("INVENTORY_TIMEOUT", "5s")
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("CART_STORAGE_KEY", "@RocketShoes:cart")
	v.SetDefault("REDIS_DB", 0)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App:  AppConfig{Env: v.GetString("APP_ENV")},
		HTTP: HTTPConfig{Addr: v.GetString("HTTP_ADDR")},
		Inventory: InventoryConfig{
			URL:     v.GetString("INVENTORY_URL"),
			Timeout: v.GetDuration("INVENTORY_TIMEOUT"),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Key:    v.GetString("CART_STORAGE_KEY"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Postgres:  PostgresConfig{DatabaseURL: v.GetString("DATABASE_URL")},
		Nats:      NatsConfig{URL: v.GetString("NATS_URL")},
		Telemetry: TelemetryConfig{OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected storage driver has what it needs.
func (c *Config) Validate() error {
	if c.Inventory.Timeout <= 0 {
		return fmt.Errorf("INVENTORY_TIMEOUT must be positive, got %s", c.Inventory.Timeout)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("CART_STORAGE_KEY must not be empty")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("STORAGE_DRIVER=redis requires REDIS_ADDR")
		}
	case StoragePostgres:
		if c.Postgres.DatabaseURL == "" {
			return fmt.Errorf("STORAGE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}
