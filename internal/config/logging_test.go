package config

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Production(t *testing.T) {
	logger, err := NewLogger("production", "")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger == nil {
		t.Fatal("Expected a logger")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug disabled in production by default")
	}
}

func TestNewLogger_Development(t *testing.T) {
	logger, err := NewLogger("development", "")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug enabled in development by default")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	logger, err := NewLogger("production", "debug")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug enabled after override")
	}

	logger, err = NewLogger("development", "error")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected info disabled after error override")
	}
}

func TestNewLogger_UnknownEnv(t *testing.T) {
	if _, err := NewLogger("staging", ""); err == nil {
		t.Error("Expected error for unknown environment")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger("production", "loud"); err == nil {
		t.Error("Expected error for invalid level")
	}
}

func TestLog_MasksBasicAuthPassword(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	s := validBase()
	s.Auth = AuthSettings{
		Type:  AuthTypeBasic,
		Basic: BasicAuthSettings{Username: "admin", Password: "supersecret"},
	}

	Log(&s, logger)

	var sawMask bool
	for _, entry := range recorded.All() {
		for _, field := range entry.Context {
			if field.String == "supersecret" {
				t.Error("Expected password to be masked in log output")
			}
			if field.String == "****" {
				sawMask = true
			}
		}
	}
	if !sawMask {
		t.Error("Expected masked password field in log output")
	}
}

func TestLog_APIKeysLoggedAsCount(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	s := validBase()
	s.Auth = AuthSettings{
		Type:    AuthTypeAPIKey,
		APIKeys: []string{"key1", "key2"},
	}

	Log(&s, logger)

	for _, entry := range recorded.All() {
		for _, field := range entry.Context {
			if field.String == "key1" || field.String == "key2" {
				t.Fatal("Expected API keys to never appear in log output")
			}
		}
	}
}
