package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// AuthSettings configuration for authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"` // AuthTypeNone, AuthTypeBasic, or AuthTypeAPIKey
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// BasicAuthSettings configuration for basic auth
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// SearchSettings configuration for the search surface
type SearchSettings struct {
	DefaultPerPage    int `mapstructure:"default_per_page"`
	MaxPerPage        int `mapstructure:"max_per_page"`
	AutocompleteLimit int `mapstructure:"autocomplete_limit"`
}

// RankerSettings configuration for relevance scoring
type RankerSettings struct {
	K1        float64 `mapstructure:"k1"`
	B         float64 `mapstructure:"b"`
	NameBoost float64 `mapstructure:"name_boost"`
}

// Settings application settings
type Settings struct {
	Host      string         `mapstructure:"host"`
	Port      int            `mapstructure:"port"`
	IndexPath string         `mapstructure:"index_path"`
	LogLevel  string         `mapstructure:"log_level"`
	Env       string         `mapstructure:"env"`
	Auth      AuthSettings   `mapstructure:"auth"`
	Search    SearchSettings `mapstructure:"search"`
	Ranker    RankerSettings `mapstructure:"ranker"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("index_path", "indexdir")
	v.SetDefault("log_level", "info")
	v.SetDefault("env", "production")
	v.SetDefault("auth.type", AuthTypeNone)
	v.SetDefault("search.default_per_page", 20)
	v.SetDefault("search.max_per_page", 100)
	v.SetDefault("search.autocomplete_limit", 10)
	v.SetDefault("ranker.k1", 1.5)
	v.SetDefault("ranker.b", 0.75)
	v.SetDefault("ranker.name_boost", 3.0)

	// Environment variables
	v.SetEnvPrefix("PRODSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("auth.type", "PRODSEARCH_AUTH_TYPE")
	_ = v.BindEnv("auth.basic.username", "PRODSEARCH_AUTH_BASIC_USERNAME")
	_ = v.BindEnv("auth.basic.password", "PRODSEARCH_AUTH_BASIC_PASSWORD")
	_ = v.BindEnv("auth.api_keys", "PRODSEARCH_AUTH_API_KEYS")
	_ = v.BindEnv("search.default_per_page", "PRODSEARCH_SEARCH_DEFAULT_PER_PAGE")
	_ = v.BindEnv("search.max_per_page", "PRODSEARCH_SEARCH_MAX_PER_PAGE")
	_ = v.BindEnv("search.autocomplete_limit", "PRODSEARCH_SEARCH_AUTOCOMPLETE_LIMIT")
	_ = v.BindEnv("ranker.k1", "PRODSEARCH_RANKER_K1")
	_ = v.BindEnv("ranker.b", "PRODSEARCH_RANKER_B")
	_ = v.BindEnv("ranker.name_boost", "PRODSEARCH_RANKER_NAME_BOOST")

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		_ = v.BindPFlag("host", flags.Lookup("host"))
		_ = v.BindPFlag("port", flags.Lookup("port"))
		_ = v.BindPFlag("index_path", flags.Lookup("index"))
		_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
		_ = v.BindPFlag("env", flags.Lookup("env"))
		_ = v.BindPFlag("auth.type", flags.Lookup("auth-type"))
		_ = v.BindPFlag("auth.basic.username", flags.Lookup("auth-basic-username"))
		_ = v.BindPFlag("auth.basic.password", flags.Lookup("auth-basic-password"))
		_ = v.BindPFlag("auth.api_keys", flags.Lookup("auth-api-keys"))
		_ = v.BindPFlag("search.default_per_page", flags.Lookup("default-per-page"))
		_ = v.BindPFlag("search.max_per_page", flags.Lookup("max-per-page"))
		_ = v.BindPFlag("search.autocomplete_limit", flags.Lookup("autocomplete-limit"))
		_ = v.BindPFlag("ranker.k1", flags.Lookup("ranker-k1"))
		_ = v.BindPFlag("ranker.b", flags.Lookup("ranker-b"))
		_ = v.BindPFlag("ranker.name_boost", flags.Lookup("ranker-name-boost"))
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// API keys arrive as one comma-separated string from env vars
	if len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",") {
		settings.Auth.APIKeys = strings.Split(settings.Auth.APIKeys[0], ",")
	}
	for i := range settings.Auth.APIKeys {
		settings.Auth.APIKeys[i] = strings.TrimSpace(settings.Auth.APIKeys[i])
	}
	settings.Auth.APIKeys = filterEmptyStrings(settings.Auth.APIKeys)

	return &settings, nil
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks for conflicting configurations.
// Returns an error if the settings contain mutually exclusive or incomplete auth config.
func ValidateSettings(s *Settings) error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got: %d", s.Port)
	}
	if s.IndexPath == "" {
		return errors.New("index cannot be empty")
	}

	switch s.Env {
	case "production", "development":
		// valid
	default:
		return errors.New("env must be 'production' or 'development', got: " + s.Env)
	}

	hasBasicCreds := s.Auth.Basic.Username != "" || s.Auth.Basic.Password != ""
	hasAPIKeys := len(s.Auth.APIKeys) > 0

	switch s.Auth.Type {
	case AuthTypeNone, "":
		if hasBasicCreds || hasAPIKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasAPIKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if s.Auth.Basic.Username == "" || s.Auth.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasicCreds {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasAPIKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + s.Auth.Type)
	}

	return validateSearchSettings(s)
}

func validateSearchSettings(s *Settings) error {
	if s.Search.DefaultPerPage <= 0 {
		return errors.New("default-per-page must be positive")
	}
	if s.Search.MaxPerPage <= 0 {
		return errors.New("max-per-page must be positive")
	}
	if s.Search.DefaultPerPage > s.Search.MaxPerPage {
		return errors.New("default-per-page cannot exceed max-per-page")
	}
	if s.Search.AutocompleteLimit <= 0 {
		return errors.New("autocomplete-limit must be positive")
	}
	if s.Ranker.K1 <= 0 {
		return errors.New("ranker-k1 must be positive")
	}
	if s.Ranker.B < 0 || s.Ranker.B > 1 {
		return errors.New("ranker-b must be in [0, 1]")
	}
	if s.Ranker.NameBoost <= 0 {
		return errors.New("ranker-name-boost must be positive")
	}
	return nil
}
