package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int      `env:"TEST_CFG_PORT" envDefault:"8080"`
	Host     string   `env:"TEST_CFG_HOST" envDefault:"localhost"`
	Brokers  []string `env:"TEST_CFG_BROKERS" envDefault:"a:9092,b:9092" envSeparator:","`
	Secret   string   `env:"TEST_CFG_DOTENV_SECRET"`
	Required string   `env:"TEST_CFG_REQUIRED,required"`
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TEST_CFG_REQUIRED", "x")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_REQUIRED", "x")
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_BROKERS", "k1:9092")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"k1:9092"}, cfg.Brokers)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_CFG_REQUIRED", "x")
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	assert.Error(t, Load(&cfg))
}

func TestLoad_ReadsDotenvFile(t *testing.T) {
	t.Setenv("TEST_CFG_REQUIRED", "x")
	t.Cleanup(func() { _ = os.Unsetenv("TEST_CFG_DOTENV_SECRET") })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_CFG_DOTENV_SECRET=from-file\n"), 0o600))

	var cfg testConfig
	require.NoError(t, Load(&cfg, path))
	assert.Equal(t, "from-file", cfg.Secret)
}

func TestLoad_MissingDotenvIsIgnored(t *testing.T) {
	t.Setenv("TEST_CFG_REQUIRED", "x")

	var cfg testConfig
	assert.NoError(t, Load(&cfg, filepath.Join(t.TempDir(), "absent.env")))
}
