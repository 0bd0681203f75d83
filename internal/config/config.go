package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// Data providers accepted in data_source.provider.
const (
	ProviderYahoo = "yahoo"
	ProviderMock  = "mock"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	DataSource struct {
		Provider        string        `yaml:"provider"`
		BaseURL         string        `yaml:"base_url"`
		Proxy           string        `yaml:"proxy"`
		Timeout         time.Duration `yaml:"timeout"`
		HistoryPeriod   string        `yaml:"history_period"`
		HistoryInterval string        `yaml:"history_interval"`
	} `yaml:"data_source"`
	Indicators struct {
		ShortWindow      int `yaml:"short_window"`
		LongWindow       int `yaml:"long_window"`
		OscillatorWindow int `yaml:"oscillator_window"`
	} `yaml:"indicators"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		SessionResetCron string `yaml:"session_reset_cron"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("STOCKLENS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("STOCKLENS_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.DataSource.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("SESSION_RESET_CRON"); v != "" {
		cfg.Schedule.SessionResetCron = v
	}
	if v := os.Getenv("RSI_PERIOD"); v != "" {
		period, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("RSI_PERIOD: %w", err)
		}
		cfg.Indicators.OscillatorWindow = period
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.HistoryPeriod == "" {
		c.DataSource.HistoryPeriod = "5y"
	}
	if c.DataSource.HistoryInterval == "" {
		c.DataSource.HistoryInterval = "1wk"
	}
	d := calculator.DefaultWindows
	if c.Indicators.ShortWindow == 0 {
		c.Indicators.ShortWindow = d.Short
	}
	if c.Indicators.LongWindow == 0 {
		c.Indicators.LongWindow = d.Long
	}
	if c.Indicators.OscillatorWindow == 0 {
		c.Indicators.OscillatorWindow = d.Oscillator
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stocklens.db"
	}
	if c.Schedule.SessionResetCron == "" {
		c.Schedule.SessionResetCron = "0 0 0 * * *"
	}
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be within 1-65535, got %d", c.Server.Port)
	}
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	default:
		return fmt.Errorf("data_source.provider must be %q or %q, got %q", ProviderYahoo, ProviderMock, c.DataSource.Provider)
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout must not be negative")
	}
	if err := calculator.ValidateWindows(c.Windows()); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	return nil
}

// Windows returns the configured default indicator windows.
func (c *Config) Windows() model.Windows {
	return model.Windows{
		Short:      c.Indicators.ShortWindow,
		Long:       c.Indicators.LongWindow,
		Oscillator: c.Indicators.OscillatorWindow,
	}
}
