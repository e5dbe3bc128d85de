// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads crosscheck settings from defaults, an optional YAML
// file, and CROSSCHECK_ environment variables, and initializes the global
// zap logger.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/crosscheck/pkg/types"
)

// EnvPrefix is prepended to every environment override, e.g.
// CROSSCHECK_HISTORY_DIR for history.dir.
const EnvPrefix = "CROSSCHECK"

// Load resolves the configuration. When cfgFile is empty, crosscheck.yaml is
// looked up in the working directory and then ~/.config/crosscheck; a missing
// file is not an error. An explicit cfgFile must exist.
func Load(cfgFile string) (*types.Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("crosscheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "crosscheck"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("history.dir", ".crosscheck/history")
	v.SetDefault("history.layout", string(types.LayoutFiles))
	v.SetDefault("history.skip_corrupt", false)
	v.SetDefault("history.environment", "production")
	v.SetDefault("index.dir", ".crosscheck/index")
	v.SetDefault("index.max_results", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	switch cfg.History.Layout {
	case types.LayoutFiles, types.LayoutJournal:
	default:
		return nil, eris.Errorf("config: unknown history.layout %q", cfg.History.Layout)
	}
	if cfg.Index.MaxResults <= 0 {
		return nil, eris.Errorf("config: index.max_results must be positive, got %d", cfg.Index.MaxResults)
	}

	return &cfg, nil
}

// NewLogger builds a zap logger for cfg. Format "console" selects the
// development encoder; anything else logs JSON.
func NewLogger(cfg types.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg types.LogConfig) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(logger)
	return nil
}
