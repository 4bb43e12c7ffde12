// Package logging sets up the global zap logger for rental-arb.
package logging

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/evcraddock/rental-arb/internal/config"
)

// Setup installs the global zap logger.
// Console format is human-readable; anything else is JSON.
func Setup(cfg config.LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "logging: parse level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "logging: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
