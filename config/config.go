// Package config loads the autoscenario configuration from YAML with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/autoscenario/forecast"
	"github.com/sartorproj/autoscenario/panel"
	"github.com/sartorproj/autoscenario/store"
	"github.com/sartorproj/autoscenario/training"
)

// Environment variables that override file settings.
const (
	EnvSeed        = "AUTOSCENARIO_SEED"
	EnvData        = "AUTOSCENARIO_DATA"
	EnvOutputDir   = "AUTOSCENARIO_OUTPUT_DIR"
	EnvStoreDriver = "AUTOSCENARIO_STORE_DRIVER"
	EnvStoreDSN    = "AUTOSCENARIO_STORE_DSN"
	EnvAddr        = "AUTOSCENARIO_ADDR"
)

// Config is the complete application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Training  training.Config `yaml:"training"`
	Forecast  forecast.Config `yaml:"forecast"`
	Output    OutputConfig    `yaml:"output"`
	Scenarios ScenarioConfig  `yaml:"scenarios"`
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DataConfig locates the panel and configures its generation.
type DataConfig struct {
	Path       string       `yaml:"path"`
	Generator  panel.Config `yaml:"generator"`
	ExportXLSX bool         `yaml:"export_xlsx"`
}

// OutputConfig names the run outputs. Relative names resolve under Dir.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	Models        string `yaml:"models"`
	Results       string `yaml:"results"`
	Workbook      string `yaml:"workbook"`
	Charts        string `yaml:"charts"`
	Monthly       string `yaml:"monthly"`
	FocusScenario string `yaml:"focus_scenario"`
}

// ScenarioConfig optionally replaces the built-in scenarios.
type ScenarioConfig struct {
	Path string `yaml:"path"`
}

// StoreConfig configures the forecast run database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
}

// ServerConfig configures the read-only API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:      "data/automotive_panel.csv",
			Generator: panel.DefaultConfig(),
		},
		Training: training.DefaultConfig(),
		Forecast: forecast.DefaultConfig(),
		Output: OutputConfig{
			Dir:           "output",
			Models:        "models",
			Results:       "automotive_analysis_results.json",
			Workbook:      "automotive_analysis_report.xlsx",
			Charts:        "charts",
			Monthly:       "monthly_production.csv",
			FocusScenario: "status_quo",
		},
		Store: StoreConfig{
			Driver: store.DriverSQLite,
			DSN:    "output/forecasts.db",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file over the defaults, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		c.Data.Generator.Seed = seed
	}
	if v := os.Getenv(EnvData); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(EnvStoreDriver); v != "" {
		c.Store.Driver = v
		c.Store.Enabled = true
	}
	if v := os.Getenv(EnvStoreDSN); v != "" {
		c.Store.DSN = v
		c.Store.Enabled = true
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Data.Path == "" {
		return errors.New("data path is required")
	}
	if c.Data.Generator.Months <= 0 {
		return errors.New("generator months must be positive")
	}
	if err := c.Training.Validate(); err != nil {
		return err
	}
	if err := c.Forecast.Validate(); err != nil {
		return err
	}
	if c.Store.Enabled && c.Store.Driver != store.DriverSQLite && c.Store.Driver != store.DriverPostgres {
		return fmt.Errorf("invalid store driver: %s (valid: %s, %s)", c.Store.Driver, store.DriverSQLite, store.DriverPostgres)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

// Resolve returns name joined under the output directory unless it is
// absolute.
func (c *Config) Resolve(name string) string {
	if filepath.IsAbs(name) || c.Output.Dir == "" {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}

// ModelsDir returns the model artifact directory.
func (c *Config) ModelsDir() string { return c.Resolve(c.Output.Models) }

// ResultsPath returns the results JSON path.
func (c *Config) ResultsPath() string { return c.Resolve(c.Output.Results) }

// WorkbookPath returns the Excel report path.
func (c *Config) WorkbookPath() string { return c.Resolve(c.Output.Workbook) }

// ChartsDir returns the chart directory.
func (c *Config) ChartsDir() string { return c.Resolve(c.Output.Charts) }

// MonthlyPath is the monthly production series export.
func (c *Config) MonthlyPath() string { return c.Resolve(c.Output.Monthly) }
