package app

import "github.com/spf13/pflag"

// RegisterServeFlags registers the serve command flags on the given FlagSet
func RegisterServeFlags(flags *pflag.FlagSet) {
	flags.StringP("host", "H", "", "Host to bind the HTTP server to")
	flags.IntP("port", "p", 0, "Port to bind the HTTP server to")
	flags.StringP("index", "i", "", "Path to the index directory")
	flags.String("log-level", "", "Log level: debug, info, warn, or error")
	flags.String("env", "", "Runtime environment: production or development")
	flags.StringP("auth-type", "a", "", "Authentication type: none, basic, or apikey")
	flags.StringP("auth-basic-username", "u", "", "Basic auth username")
	flags.StringP("auth-basic-password", "P", "", "Basic auth password")
	flags.StringSliceP("auth-api-keys", "k", nil, "API keys (comma-separated)")
	flags.Int("default-per-page", 0, "Default search page size")
	flags.Int("max-per-page", 0, "Maximum search page size")
	flags.Int("autocomplete-limit", 0, "Default autocomplete suggestion count")
	flags.Float64("ranker-k1", 0, "BM25 term frequency saturation")
	flags.Float64("ranker-b", 0, "BM25 length normalization")
	flags.Float64("ranker-name-boost", 0, "Static boost applied to product name matches")
}

// RegisterIndexFlags registers the index command flags on the given FlagSet
func RegisterIndexFlags(flags *pflag.FlagSet) {
	flags.StringP("data", "d", "", "Path to the product catalog JSON file")
	flags.StringP("index", "i", "", "Path to the index directory")
	flags.String("log-level", "", "Log level: debug, info, warn, or error")
	flags.String("env", "", "Runtime environment: production or development")
}
