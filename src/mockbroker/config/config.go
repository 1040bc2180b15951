package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
)

type DataSourceKind string

const (
	DataSourcePolygon DataSourceKind = "polygon"
	DataSourceAlpaca  DataSourceKind = "alpaca"
	DataSourceCSV     DataSourceKind = "csv"
)

type Config struct {
	Account     Account     `yaml:"account"`
	MarketHours MarketHours `yaml:"market_hours"`
	Data        Data        `yaml:"data"`
	Storage     Storage     `yaml:"storage"`
	Server      Server      `yaml:"server"`
	Logging     Logging     `yaml:"logging"`
	Telemetry   Telemetry   `yaml:"telemetry"`
}

type Account struct {
	InitialBalance  float64   `yaml:"initial_balance"`
	DailyCap        float64   `yaml:"daily_cap"`
	LookbackDays    int       `yaml:"lookback_days"`
	WindowDays      int       `yaml:"window_days"`
	PlaybackSpeed   float64   `yaml:"playback_speed"`
	SupportedSpeeds []float64 `yaml:"supported_speeds"`
}

type MarketHours struct {
	Timezone string `yaml:"timezone"`
	Open     string `yaml:"open"`
	Close    string `yaml:"close"`
}

// Data lists the historical sources in order of preference. The upstream
// account (alpaca) is tried before the feed when both are configured.
type Data struct {
	Sources         []DataSourceKind `yaml:"sources"`
	ProviderTimeout time.Duration    `yaml:"provider_timeout"`
	CSVDir          string           `yaml:"csv_dir"`
	PolygonAPIKey   string           `yaml:"polygon_api_key"`
	Alpaca          Alpaca           `yaml:"alpaca"`
}

type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
	Feed      string `yaml:"feed"`
}

type Storage struct {
	StateDir string `yaml:"state_dir"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

func Default() *Config {
	account := models.DefaultMockAccountConfig()

	return &Config{
		Account: Account{
			InitialBalance:  account.InitialBalance,
			DailyCap:        account.DailyCap,
			LookbackDays:    account.LookbackDays,
			WindowDays:      account.WindowDays,
			PlaybackSpeed:   account.PlaybackSpeed,
			SupportedSpeeds: account.SupportedSpeeds,
		},
		MarketHours: MarketHours{
			Timezone: "America/New_York",
			Open:     "09:30",
			Close:    "16:00",
		},
		Data: Data{
			Sources:         []DataSourceKind{DataSourceAlpaca, DataSourcePolygon},
			ProviderTimeout: account.ProviderTimeout,
			CSVDir:          "data/bars",
		},
		Storage: Storage{
			StateDir: "data/state",
		},
		Server: Server{
			Addr: ":8080",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Telemetry: Telemetry{
			ServiceName: "mockbroker",
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Load: failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("Load: failed to parse config: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	return cfg, nil
}

func envFloat(key string, target *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("$%s: %w", key, err)
	}

	*target = f
	return nil
}

func envInt(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("$%s: %w", key, err)
	}

	*target = i
	return nil
}

func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func applyEnvOverrides(cfg *Config) error {
	if err := envFloat("MOCKBROKER_INITIAL_BALANCE", &cfg.Account.InitialBalance); err != nil {
		return err
	}
	if err := envFloat("MOCKBROKER_DAILY_CAP", &cfg.Account.DailyCap); err != nil {
		return err
	}
	if err := envFloat("MOCKBROKER_PLAYBACK_SPEED", &cfg.Account.PlaybackSpeed); err != nil {
		return err
	}
	if err := envInt("MOCKBROKER_LOOKBACK_DAYS", &cfg.Account.LookbackDays); err != nil {
		return err
	}
	if err := envInt("MOCKBROKER_WINDOW_DAYS", &cfg.Account.WindowDays); err != nil {
		return err
	}

	if v := os.Getenv("MOCKBROKER_PROVIDER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("$MOCKBROKER_PROVIDER_TIMEOUT: %w", err)
		}
		cfg.Data.ProviderTimeout = d
	}

	if v := os.Getenv("MOCKBROKER_DATA_SOURCES"); v != "" {
		var sources []DataSourceKind
		for _, s := range strings.Split(v, ",") {
			sources = append(sources, DataSourceKind(strings.TrimSpace(s)))
		}
		cfg.Data.Sources = sources
	}

	envString("MOCKBROKER_CSV_DIR", &cfg.Data.CSVDir)
	envString("MOCKBROKER_STATE_DIR", &cfg.Storage.StateDir)
	envString("MOCKBROKER_ADDR", &cfg.Server.Addr)
	envString("MOCKBROKER_LOG_LEVEL", &cfg.Logging.Level)
	envString("MOCKBROKER_LOG_FORMAT", &cfg.Logging.Format)
	envString("POLYGON_API_KEY", &cfg.Data.PolygonAPIKey)
	envString("ALPACA_API_KEY", &cfg.Data.Alpaca.APIKey)
	envString("ALPACA_API_SECRET", &cfg.Data.Alpaca.APISecret)

	if v := os.Getenv("MOCKBROKER_TELEMETRY"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("$MOCKBROKER_TELEMETRY: %w", err)
		}
		cfg.Telemetry.Enabled = enabled
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive")
	}

	if c.Account.DailyCap <= 0 {
		return fmt.Errorf("account.daily_cap must be positive")
	}

	speeds := c.Account.SupportedSpeeds
	if len(speeds) == 0 {
		speeds = models.SupportedPlaybackSpeeds
	}

	supported := false
	for _, s := range speeds {
		if s == c.Account.PlaybackSpeed {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("account.playback_speed: %w: %v", models.ErrUnsupportedPlaybackSpeed, c.Account.PlaybackSpeed)
	}

	for _, source := range c.Data.Sources {
		switch source {
		case DataSourcePolygon, DataSourceAlpaca, DataSourceCSV:
		default:
			return fmt.Errorf("data.sources: unknown source %q", source)
		}
	}

	if _, err := c.Hours(); err != nil {
		return err
	}

	return nil
}

func (c *Config) Hours() (*models.MarketHours, error) {
	return models.NewMarketHours(c.MarketHours.Timezone, c.MarketHours.Open, c.MarketHours.Close)
}

func (c *Config) MockAccountConfig() models.MockAccountConfig {
	return models.MockAccountConfig{
		InitialBalance:  c.Account.InitialBalance,
		DailyCap:        c.Account.DailyCap,
		LookbackDays:    c.Account.LookbackDays,
		WindowDays:      c.Account.WindowDays,
		PlaybackSpeed:   c.Account.PlaybackSpeed,
		SupportedSpeeds: c.Account.SupportedSpeeds,
		ProviderTimeout: c.Data.ProviderTimeout,
	}
}
