package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
)

// Config is the resolved application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Params   ParamsConfig   `mapstructure:"params"`
	WhatIf   WhatIfConfig   `mapstructure:"whatif"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig locates the return archive.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ParamsConfig locates tax year override files.
type ParamsConfig struct {
	Dir string `mapstructure:"dir"`
}

// WhatIfConfig tunes scenario runs.
type WhatIfConfig struct {
	Workers int `mapstructure:"workers"`
}

// Defaults.
const (
	DefaultDatabasePath = "~/.local/share/taxflow/returns.db"
	DefaultParamsDir    = "~/.config/taxflow/params"
	DefaultWorkers      = 4
)

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("params.dir", DefaultParamsDir)
	v.SetDefault("whatif.workers", DefaultWorkers)
}

// Load reads the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals v, expands paths and validates the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Params.Dir = ExpandPath(cfg.Params.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	var errs common.ErrorSet
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: invalid log level %q", common.ErrInvalidConfig, c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.Logging.Format))
	}
	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("%w: database.path is empty", common.ErrMissingConfig))
	} else if c.Database.Path != ":memory:" && !filepath.IsAbs(c.Database.Path) {
		abs, err := filepath.Abs(c.Database.Path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: database.path: %w", common.ErrInvalidConfig, err))
		} else {
			c.Database.Path = abs
		}
	}
	if c.WhatIf.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: whatif.workers must be at least 1, got %d", common.ErrInvalidConfig, c.WhatIf.Workers))
	}
	return errs.OrNil()
}
