// Package logging builds the zap logger shared by the gateway and the admin console.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sangihetrip/internal/config"
)

// New creates a structured logger appropriate for the environment.
// Production uses JSON output, everything else the development console encoder.
func New(cfg config.LogConfig, environment string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if environment == config.Production {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zapConfig.Level = zap.NewAtomicLevelAt(level)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
