package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/shoplight/prodsearch/internal/api"
	"github.com/shoplight/prodsearch/internal/auth"
	"github.com/shoplight/prodsearch/internal/config"
	"github.com/shoplight/prodsearch/internal/domain"
	"github.com/shoplight/prodsearch/internal/index"
	"github.com/shoplight/prodsearch/internal/search"
)

const shutdownTimeout = 10 * time.Second

// RunParams contains dependencies for the serve runner
type RunParams struct {
	LoadSettings  func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings func(*config.Settings) error
	OpenReader    func(string) (*index.Store, error)
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateSettings,
		OpenReader:    index.OpenReader,
	}
}

// RunServe starts the HTTP search server and blocks until ctx is cancelled
// or the server fails. The index must exist before the server starts.
func RunServe(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.NewLogger(settings.Env, settings.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting product search server", zap.String("version", version))
	config.Log(settings, logger)

	store, err := params.OpenReader(settings.IndexPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	docs, err := store.DocCount()
	if err != nil {
		return fmt.Errorf("failed to read document count: %w", err)
	}
	logger.Info("Index opened",
		zap.String("path", settings.IndexPath),
		zap.Uint64("documents", docs))

	engine := search.NewEngine(store, rankerConfig(settings), logger)
	server := api.NewServer(engine, settings, logger)

	authMiddleware, err := auth.NewMiddleware(settings.Auth)
	if err != nil {
		return fmt.Errorf("failed to create auth middleware: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", settings.Host, settings.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(authMiddleware),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening (HTTP)",
			zap.String("addr", addr),
			zap.String("auth_type", settings.Auth.Type))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// RunIndex builds the index from a catalog file.
func RunIndex(ctx context.Context, flags *pflag.FlagSet) error {
	settings, err := config.LoadSettingsWithFlags(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	dataPath, err := flags.GetString("data")
	if err != nil || dataPath == "" {
		return errors.New("--data is required")
	}

	logger, err := config.NewLogger(settings.Env, settings.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	result, err := index.Build(ctx, dataPath, settings.IndexPath, logger)
	if err != nil {
		return err
	}

	logger.Info("Index build complete",
		zap.String("index", settings.IndexPath),
		zap.Uint64("indexed", result.Indexed),
		zap.Uint64("documents", result.Documents))
	return nil
}

func rankerConfig(s *config.Settings) search.RankerConfig {
	cfg := search.DefaultRankerConfig()
	cfg.K1 = s.Ranker.K1
	cfg.B = s.Ranker.B
	cfg.FieldWeights[domain.FieldProductName] = s.Ranker.NameBoost
	return cfg
}
