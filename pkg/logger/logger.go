package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/topeberti/Polilingo/internal/config"
)

// New создает logrus-логгер по настройкам приложения.
// Формат "json" для продакшена, "text" (по умолчанию) для локального запуска.
func New(cfg config.LogConfig) (*logrus.Logger, error) {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput создает логгер, пишущий в out
func NewWithOutput(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	return logger, nil
}
