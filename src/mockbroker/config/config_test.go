package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Empty path yields the defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, 1_000_000.0, cfg.Account.InitialBalance)
		assert.Equal(t, 5_000_000.0, cfg.Account.DailyCap)
		assert.Equal(t, []DataSourceKind{DataSourceAlpaca, DataSourcePolygon}, cfg.Data.Sources)
		assert.Equal(t, 10*time.Second, cfg.Data.ProviderTimeout)
		assert.Equal(t, ":8080", cfg.Server.Addr)
	})

	t.Run("YAML overrides the defaults", func(t *testing.T) {
		path := writeConfig(t, `
account:
  initial_balance: 25000
  playback_speed: 60
data:
  sources: [csv]
  provider_timeout: 3s
  csv_dir: /tmp/bars
market_hours:
  timezone: America/Chicago
  open: "08:30"
  close: "15:00"
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 25000.0, cfg.Account.InitialBalance)
		assert.Equal(t, 60.0, cfg.Account.PlaybackSpeed)
		assert.Equal(t, 5_000_000.0, cfg.Account.DailyCap)
		assert.Equal(t, []DataSourceKind{DataSourceCSV}, cfg.Data.Sources)
		assert.Equal(t, 3*time.Second, cfg.Data.ProviderTimeout)

		hours, err := cfg.Hours()
		require.NoError(t, err)
		assert.Equal(t, "America/Chicago", hours.Location.String())

		account := cfg.MockAccountConfig()
		assert.Equal(t, 25000.0, account.InitialBalance)
		assert.Equal(t, 3*time.Second, account.ProviderTimeout)
	})

	t.Run("Environment wins over the file", func(t *testing.T) {
		path := writeConfig(t, "account:\n  initial_balance: 25000\n")
		t.Setenv("MOCKBROKER_INITIAL_BALANCE", "777")
		t.Setenv("MOCKBROKER_DATA_SOURCES", "csv, polygon")
		t.Setenv("POLYGON_API_KEY", "secret")
		t.Setenv("MOCKBROKER_TELEMETRY", "true")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 777.0, cfg.Account.InitialBalance)
		assert.Equal(t, []DataSourceKind{DataSourceCSV, DataSourcePolygon}, cfg.Data.Sources)
		assert.Equal(t, "secret", cfg.Data.PolygonAPIKey)
		assert.True(t, cfg.Telemetry.Enabled)
	})

	t.Run("Invalid values are rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, "account:\n  playback_speed: 7\n"))
		assert.ErrorIs(t, err, models.ErrUnsupportedPlaybackSpeed)

		_, err = Load(writeConfig(t, "data:\n  sources: [bloomberg]\n"))
		assert.Error(t, err)

		_, err = Load(writeConfig(t, "market_hours:\n  timezone: Mars/Olympus\n"))
		assert.Error(t, err)

		t.Setenv("MOCKBROKER_LOOKBACK_DAYS", "many")
		_, err = Load("")
		assert.Error(t, err)
	})

	t.Run("Missing files fail", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
