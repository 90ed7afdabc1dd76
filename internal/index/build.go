package index

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shoplight/prodsearch/internal/catalog"
)

const (
	// LockTimeout bounds how long a build waits for a concurrent build
	// to finish before giving up.
	LockTimeout = 30 * time.Second

	lockSuffix     = ".lock"
	manifestSuffix = ".manifest.json"
)

// BuildResult summarizes a completed index build.
type BuildResult struct {
	Source    string
	Indexed   uint64
	Documents uint64
}

// Build reads product records from dataPath, normalizes every record into
// variant documents, stages an upsert per document and commits once. The
// build is fail-atomic: any staging error aborts the whole batch and the
// previously committed state stays visible. Re-running against the same
// location upserts, it does not rebuild destructively.
func Build(ctx context.Context, dataPath, indexPath string, logger *zap.Logger) (*BuildResult, error) {
	lock := NewBuildLock(indexPath + lockSuffix)
	if err := lock.Acquire(ctx, LockTimeout); err != nil {
		return nil, fmt.Errorf("another build holds the index: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release build lock", zap.Error(err))
		}
	}()

	records, err := catalog.ReadSource(dataPath)
	if err != nil {
		return nil, err
	}

	store, err := OpenWriter(indexPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close index", zap.Error(err))
		}
	}()

	batch := store.NewBatch()
	for _, rec := range records {
		for _, doc := range catalog.Normalize(rec) {
			if err := batch.Upsert(doc); err != nil {
				batch.Abort()
				return nil, fmt.Errorf("build aborted, index left at last committed state: %w", err)
			}
		}
	}

	staged := batch.Staged()
	if err := batch.Commit(); err != nil {
		return nil, fmt.Errorf("build aborted, index left at last committed state: %w", err)
	}

	total, err := store.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	manifest := &Manifest{
		Version:   ManifestVersion,
		Source:    dataPath,
		Documents: total,
		Schema:    SchemaVersion,
		BuiltAt:   time.Now().UTC(),
	}
	if err := manifest.Save(indexPath + manifestSuffix); err != nil {
		logger.Warn("failed to write build manifest", zap.Error(err))
	}

	logger.Info("indexed products",
		zap.String("source", dataPath),
		zap.String("index", indexPath),
		zap.Uint64("staged", staged),
		zap.Uint64("documents", total),
	)

	return &BuildResult{Source: dataPath, Indexed: staged, Documents: total}, nil
}
