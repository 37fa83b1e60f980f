package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port       int    `env:"CARTTEST_PORT" envDefault:"8080"`
	StorageDir string `env:"CARTTEST_STORAGE_DIR" envDefault:"/var/lib/cart"`
	LogLevel   string `env:"CARTTEST_LOG_LEVEL" envDefault:"info"`
	DebounceMS int    `env:"CARTTEST_DEBOUNCE_MS" envDefault:"1500"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/var/lib/cart", cfg.StorageDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1500, cfg.DebounceMS)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("CARTTEST_PORT", "9090")
	t.Setenv("CARTTEST_STORAGE_DIR", "/tmp/cart")
	t.Setenv("CARTTEST_LOG_LEVEL", "debug")
	t.Setenv("CARTTEST_DEBOUNCE_MS", "250")

	var cfg testConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/tmp/cart", cfg.StorageDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250, cfg.DebounceMS)
}

type requiredConfig struct {
	DatabaseURL string `env:"CARTTEST_DATABASE_URL,required"`
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_RequiredFieldPresent(t *testing.T) {
	t.Setenv("CARTTEST_DATABASE_URL", "postgres://localhost:5432/store")

	var cfg requiredConfig
	err := Load(&cfg)

	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/store", cfg.DatabaseURL)
}
