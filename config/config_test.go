package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.False(t, cfg.App.IsProduction())
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "http://localhost:3333", cfg.Inventory.URL)
	assert.Equal(t, 5*time.Second, cfg.Inventory.Timeout)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "@RocketShoes:cart", cfg.Storage.Key)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Nats.Enabled())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("INVENTORY_TIMEOUT", "750ms")
	t.Setenv("STORAGE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, 750*time.Millisecond, cfg.Inventory.Timeout)
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Nats.Enabled())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Inventory: InventoryConfig{URL: "http://inventory", Timeout: time.Second},
			Storage:   StorageConfig{Driver: StorageMemory, Key: "cart"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "memory", mutate: func(*Config) {}},
		{name: "redis without addr", mutate: func(c *Config) { c.Storage.Driver = StorageRedis }, wantErr: true},
		{name: "redis", mutate: func(c *Config) {
			c.Storage.Driver = StorageRedis
			c.Redis.Addr = "localhost:6379"
		}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Storage.Driver = StoragePostgres }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Inventory.Timeout = 0 }, wantErr: true},
		{name: "empty key", mutate: func(c *Config) { c.Storage.Key = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadFrom_MergesConfigFileAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "HTTP_ADDR=:9999\nREDIS_DB=2\n")
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), "INVENTORY_URL: http://inv:1\nHTTP_ADDR: \":7777\"\nNATS_URL: nats://file:4222\n")
	t.Setenv("NATS_URL", "nats://env:4222")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr, ".env overrides the config file")
	assert.Equal(t, "http://inv:1", cfg.Inventory.URL)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "nats://env:4222", cfg.Nats.URL, "environment overrides both files")
}

func TestLoadFrom_ConfigFileInRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json"), `{"INVENTORY_TIMEOUT": "2s"}`)

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Inventory.Timeout)
}

func TestLoadFrom_MalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", "config.yaml"), "INVENTORY_URL: [unterminated\n")

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}
