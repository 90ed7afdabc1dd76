package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger for the given environment.
// production uses JSON output, development uses colored console output.
// level (if non-empty) overrides the log level: debug, info, warn, error.
func NewLogger(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case "production":
		cfg = zap.NewProductionConfig()
	case "development":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", env)
	}

	if level != "" {
		var lvl zapcore.Level
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l, nil
}

// Log logs the resolved settings in a granular way, masking secrets
func Log(s *Settings, logger *zap.Logger) {
	logger.Info("Config: host", zap.String("value", s.Host))
	logger.Info("Config: port", zap.Int("value", s.Port))
	logger.Info("Config: index_path", zap.String("value", s.IndexPath))
	logger.Info("Config: search",
		zap.Int("default_per_page", s.Search.DefaultPerPage),
		zap.Int("max_per_page", s.Search.MaxPerPage),
		zap.Int("autocomplete_limit", s.Search.AutocompleteLimit))
	logger.Info("Config: ranker",
		zap.Float64("k1", s.Ranker.K1),
		zap.Float64("b", s.Ranker.B),
		zap.Float64("name_boost", s.Ranker.NameBoost))

	logger.Info("Config: auth.type", zap.String("value", s.Auth.Type))
	switch s.Auth.Type {
	case AuthTypeBasic:
		logger.Info("Config: auth.basic.username", zap.String("value", s.Auth.Basic.Username))
		logger.Info("Config: auth.basic.password", zap.String("value", "****"))
	case AuthTypeAPIKey:
		logger.Info("Config: auth.api_keys", zap.Int("count", len(s.Auth.APIKeys)))
	}
}
