package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray .env or
// config.yaml is picked up.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "proworkshop.db", cfg.Store.SQLitePath)
	assert.Equal(t, "proworkshop", cfg.Store.MongoDB)
	assert.Equal(t, time.Hour, cfg.Auth.JWTExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshExpiry)
	assert.Equal(t, "admin", cfg.Auth.AdminUsername)
	assert.Equal(t, 3.50, cfg.FuelPricePerGallon)
	assert.Equal(t, 7, cfg.UpcomingWindowDays)
	assert.Equal(t, 100, cfg.Rates.Requests)
	assert.Equal(t, time.Minute, cfg.Rates.Window())
	assert.False(t, cfg.Rates.TrustProxy)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "proworkshop", cfg.MQTT.TopicPrefix)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	inTempDir(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("FUEL_PRICE_PER_GALLON", "4.25")
	t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Auth.JWTExpiry)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, 4.25, cfg.FuelPricePerGallon)
	assert.True(t, cfg.Rates.TrustProxy)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := inTempDir(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("UPCOMING_WINDOW_DAYS", "")
	os.Unsetenv("UPCOMING_WINDOW_DAYS")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("UPCOMING_WINDOW_DAYS=14\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("UPCOMING_WINDOW_DAYS") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.UpcomingWindowDays)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	yaml := "port: \"9000\"\nstore:\n  sqlite_path: /tmp/x.db\nmqtt:\n  topic_prefix: plant\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Store.SQLitePath)
	assert.Equal(t, "plant", cfg.MQTT.TopicPrefix)
}

func TestLoad_InvalidDriver(t *testing.T) {
	inTempDir(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:              StoreConfig{Driver: DriverSQLite},
			Auth:               AuthConfig{JWTSecret: "s", JWTExpiry: time.Hour},
			Rates:              RateConfig{Requests: 1, WindowSeconds: 1},
			UpcomingWindowDays: 7,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"empty secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"zero expiry", func(c *Config) { c.Auth.JWTExpiry = 0 }, true},
		{"negative refresh expiry", func(c *Config) { c.Auth.RefreshExpiry = -time.Hour }, true},
		{"zero window", func(c *Config) { c.UpcomingWindowDays = 0 }, true},
		{"negative fuel price", func(c *Config) { c.FuelPricePerGallon = -1 }, true},
		{"zero rate", func(c *Config) { c.Rates.Requests = 0 }, true},
		{"unknown driver", func(c *Config) { c.Store.Driver = "redis" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
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

func TestNewLogger(t *testing.T) {
	cfg := Config{LogLevel: "debug", LogFormat: "json"}
	logger := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, logger.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg = Config{LogLevel: "loud"}
	logger = cfg.NewLogger()
	assert.Equal(t, logrus.InfoLevel, logger.Level)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
