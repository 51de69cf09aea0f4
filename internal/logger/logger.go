// Package logger builds the zap logger shared by every service.
package logger

import (
	"fmt"
	"strings"

	"gochat/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func New(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	switch cfg.Logging.Format {
	case "json", "console":
		zc.Encoding = cfg.Logging.Format
	}
	if cfg.Logging.OutputPath != "" {
		zc.OutputPaths = []string{cfg.Logging.OutputPath}
	}

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log.With(zap.String("service", "gochat")), nil
}
