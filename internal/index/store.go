package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"

	"github.com/shoplight/prodsearch/internal/domain"
)

var (
	// ErrIndexNotFound indicates no index exists at the configured
	// location. The engine never operates on an absent index.
	ErrIndexNotFound = errors.New("index not found")

	// ErrSchemaMismatch indicates the index on disk was built with an
	// incompatible field schema.
	ErrSchemaMismatch = errors.New("index schema mismatch")
)

// Internal KV keys persisted alongside the documents.
var (
	schemaKey = []byte("prodsearch.schema")
	statsKey  = []byte("prodsearch.stats")
)

// Stats carries the corpus statistics the ranker needs for length
// normalization. The snapshot is taken at commit time; index builds
// re-index the whole source file, so the snapshot covers the corpus.
type Stats struct {
	Documents   uint64             `json:"documents"`
	AvgFieldLen map[string]float64 `json:"avg_field_len"`
}

// Store is an inverted-index-backed document store keyed by document ID.
// Writes are staged in batches and published atomically on commit; readers
// opened before a commit keep their point-in-time view.
type Store struct {
	idx  bleve.Index
	path string
}

// OpenWriter opens the index at path for writing, creating a fresh one if
// the location is missing or empty. An existing index with an incompatible
// schema is an error, not a silent migration.
func OpenWriter(path string) (*Store, error) {
	if indexExists(path) {
		return open(path)
	}

	// bleve refuses to create over an existing path, even an empty
	// directory left behind by a previous failed run.
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to clear empty index location: %w", err)
		}
	}

	m, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	idx, err := bleve.New(path, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	if err := idx.SetInternal(schemaKey, []byte(SchemaVersion)); err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to persist schema version: %w", err)
	}
	return &Store{idx: idx, path: path}, nil
}

// OpenReader opens an existing index for searching. The returned handle is
// a consistent view; it does not observe later commits until reopened.
func OpenReader(path string) (*Store, error) {
	if !indexExists(path) {
		return nil, fmt.Errorf(
			"%w at %q: build it with 'prodsearch index --data <products.json> --index %s'",
			ErrIndexNotFound, path, path)
	}
	return open(path)
}

func open(path string) (*Store, error) {
	idx, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index at %q: %w", path, err)
	}
	version, err := idx.GetInternal(schemaKey)
	if err != nil {
		_ = idx.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	if string(version) != SchemaVersion {
		_ = idx.Close()
		return nil, fmt.Errorf("%w: index at %q has schema %q, this build expects %q",
			ErrSchemaMismatch, path, version, SchemaVersion)
	}
	return &Store{idx: idx, path: path}, nil
}

func indexExists(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// Path returns the on-disk index location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the index handle.
func (s *Store) Close() error {
	return s.idx.Close()
}

// DocCount returns the number of committed documents.
func (s *Store) DocCount() (uint64, error) {
	return s.idx.DocCount()
}

// Search executes a search request against the store.
func (s *Store) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return s.idx.SearchInContext(ctx, req)
}

// DocFreq returns the number of documents containing term in field.
func (s *Store) DocFreq(field, term string) (uint64, error) {
	dict, err := s.idx.FieldDictPrefix(field, []byte(term))
	if err != nil {
		return 0, fmt.Errorf("failed to read field dictionary: %w", err)
	}
	defer func() { _ = dict.Close() }()

	for {
		entry, err := dict.Next()
		if err != nil {
			return 0, fmt.Errorf("failed to iterate field dictionary: %w", err)
		}
		if entry == nil {
			return 0, nil
		}
		if entry.Term == term {
			return entry.Count, nil
		}
		if len(entry.Term) > len(term) {
			// Prefix enumeration is ordered; once past the exact
			// term only longer terms remain.
			return 0, nil
		}
	}
}

// Stats returns the corpus statistics written by the last commit. A store
// without a stats snapshot returns zero-value stats.
func (s *Store) Stats() (Stats, error) {
	data, err := s.idx.GetInternal(statsKey)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}
	if len(data) == 0 {
		return Stats{}, nil
	}
	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return Stats{}, fmt.Errorf("failed to parse stats: %w", err)
	}
	return stats, nil
}

// Batch stages document upserts. Nothing is visible to readers until
// Commit; Abort discards all staged work.
type Batch struct {
	store *Store
	batch *bleve.Batch

	docs       uint64
	nameTokens uint64
	attrTokens uint64
	textTokens uint64
}

// NewBatch starts an empty staging batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{store: s, batch: s.idx.NewBatch()}
}

// Upsert stages a document keyed by its ID. A staged document replaces any
// committed document with the same ID.
func (b *Batch) Upsert(doc domain.Document) error {
	if doc.ID == "" {
		return errors.New("document has empty id")
	}
	if err := b.batch.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to stage document %q: %w", doc.ID, err)
	}
	b.docs++
	b.nameTokens += uint64(doc.NameLen)
	b.attrTokens += uint64(doc.AttrLen)
	b.textTokens += uint64(doc.FullTextLen)
	return nil
}

// Staged returns the number of staged upserts.
func (b *Batch) Staged() uint64 {
	return b.docs
}

// Commit atomically publishes all staged upserts and refreshes the corpus
// statistics snapshot.
func (b *Batch) Commit() error {
	if err := b.store.idx.Batch(b.batch); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	stats := Stats{
		Documents: b.docs,
		AvgFieldLen: map[string]float64{
			domain.FieldProductName: avg(b.nameTokens, b.docs),
			domain.FieldAttributes:  avg(b.attrTokens, b.docs),
			domain.FieldFullText:    avg(b.textTokens, b.docs),
		},
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	if err := b.store.idx.SetInternal(statsKey, data); err != nil {
		return fmt.Errorf("failed to persist stats: %w", err)
	}
	return nil
}

// Abort discards all staged upserts. The previously committed state stays
// the visible state.
func (b *Batch) Abort() {
	b.batch.Reset()
	b.docs = 0
	b.nameTokens = 0
	b.attrTokens = 0
	b.textTokens = 0
}

func avg(total, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}
