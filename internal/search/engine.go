package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	bsearch "github.com/blevesearch/bleve/v2/search"
	"go.uber.org/zap"

	"github.com/shoplight/prodsearch/internal/domain"
	"github.com/shoplight/prodsearch/internal/index"
)

const (
	// fuzzyMinTokenLen is the shortest token rewritten for fuzzy
	// matching; shorter tokens stay exact.
	fuzzyMinTokenLen = 4
	fuzzyDistance    = 1

	// Candidate pool sizing for rescoring: the BM25 pass reorders the
	// index's own candidate ranking, so we over-fetch beyond the
	// requested window.
	candidateMultiplier = 3
	minCandidatePool    = 100
)

// Item is one search result record as served to clients.
type Item struct {
	ID          string   `json:"id"`
	ProductName string   `json:"product_name"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Sizes       []string `json:"sizes"`
	Color       string   `json:"color"`
	BrandSlug   string   `json:"brand_slug"`
	Category    string   `json:"category"`
	InStock     bool     `json:"in_stock"`
	PdpURL      string   `json:"pdp_url"`
	Highlights  *string  `json:"highlights"`
}

// Result is one ranked page plus the full match count.
type Result struct {
	Total uint64
	Items []Item
}

// Engine composes the query planner, filter builder and ranker over one
// read-only index handle. All methods are safe for concurrent use: each
// request runs to completion against the handle's consistent snapshot and
// no mutable state crosses requests.
type Engine struct {
	store  *index.Store
	ranker *Ranker
	cfg    RankerConfig
	logger *zap.Logger
}

// NewEngine creates a search engine over an open index store.
func NewEngine(store *index.Store, cfg RankerConfig, logger *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		ranker: NewRanker(cfg),
		cfg:    cfg,
		logger: logger,
	}
}

var resultFields = []string{
	domain.FieldProductName,
	domain.FieldPrice,
	domain.FieldImage,
	domain.FieldSizes,
	domain.FieldColor,
	domain.FieldBrandSlug,
	domain.FieldCategory,
	domain.FieldInStock,
	domain.FieldPdpURL,
	domain.FieldNameLen,
	domain.FieldAttrLen,
	domain.FieldFullTextLen,
}

// Search runs the parsed text query ANDed with the structured filters,
// rescores candidates with BM25 and returns the requested page. page and
// perPage are 1-indexed and assumed valid; the HTTP boundary enforces
// that. Total is the full match count, not the page size.
func (e *Engine) Search(ctx context.Context, queryStr string, filters Filters, page, perPage int, fuzzy bool) (*Result, error) {
	tree, err := Parse(queryStr)
	if err != nil {
		return nil, err
	}
	if fuzzy {
		tree = RewriteFuzzy(tree, fuzzyMinTokenLen, fuzzyDistance)
	}

	q := Compile(tree, e.cfg)
	if filterTree := BuildFilter(filters); filterTree != nil {
		q = bleve.NewConjunctionQuery(q, Compile(filterTree, e.cfg))
	}

	offset := (page - 1) * perPage
	window := offset + perPage
	pool := max(window*candidateMultiplier, minCandidatePool)

	req := bleve.NewSearchRequestOptions(q, pool, 0, false)
	req.Fields = resultFields
	req.IncludeLocations = true
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField(domain.FieldProductName)
	req.Highlight.AddField(domain.FieldAttributes)

	res, err := e.store.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	docCount, err := e.store.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to read document count: %w", err)
	}
	stats, err := e.store.Stats()
	if err != nil {
		e.logger.Warn("corpus stats unavailable, length normalization disabled", zap.Error(err))
	}
	e.ranker.Rescore(res.Hits, docCount, stats.AvgFieldLen, e.store)

	hits := res.Hits
	if offset >= len(hits) {
		hits = nil
	} else {
		hits = hits[offset:min(window, len(hits))]
	}

	items := make([]Item, 0, len(hits))
	for _, hit := range hits {
		items = append(items, itemFromHit(hit))
	}
	return &Result{Total: res.Total, Items: items}, nil
}

// Autocomplete returns up to limit typeahead suggestions for the prefix,
// deduplicated case-insensitively with first-seen casing preserved. An
// empty prefix yields an empty result, not an error.
func (e *Engine) Autocomplete(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || limit <= 0 {
		return []string{}, nil
	}
	lower := strings.ToLower(prefix)

	q := bleve.NewPrefixQuery(lower)
	q.SetField(domain.FieldAutocomplete)

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{domain.FieldProductName, domain.FieldCategory, domain.FieldBrandSlug}

	res, err := e.store.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete failed: %w", err)
	}

	suggestions := make([]string, 0, limit)
	seen := make(map[string]bool)
	for _, hit := range res.Hits {
		for _, field := range req.Fields {
			cand, _ := hit.Fields[field].(string)
			if cand == "" || !strings.HasPrefix(strings.ToLower(cand), lower) {
				continue
			}
			key := strings.ToLower(cand)
			if seen[key] {
				continue
			}
			seen[key] = true
			suggestions = append(suggestions, cand)
			if len(suggestions) >= limit {
				return suggestions, nil
			}
		}
	}
	return suggestions, nil
}

func itemFromHit(hit *bsearch.DocumentMatch) Item {
	return Item{
		ID:          hit.ID,
		ProductName: fieldString(hit, domain.FieldProductName),
		Price:       fieldFloat(hit, domain.FieldPrice),
		Image:       fieldString(hit, domain.FieldImage),
		Sizes:       splitSizes(fieldString(hit, domain.FieldSizes)),
		Color:       fieldString(hit, domain.FieldColor),
		BrandSlug:   fieldString(hit, domain.FieldBrandSlug),
		Category:    fieldString(hit, domain.FieldCategory),
		InStock:     fieldBool(hit, domain.FieldInStock),
		PdpURL:      fieldString(hit, domain.FieldPdpURL),
		Highlights:  highlight(hit),
	}
}

// highlight prefers a product name snippet and falls back to attributes.
// No snippet means nil, not an empty string.
func highlight(hit *bsearch.DocumentMatch) *string {
	for _, field := range []string{domain.FieldProductName, domain.FieldAttributes} {
		if frags := hit.Fragments[field]; len(frags) > 0 && frags[0] != "" {
			s := frags[0]
			return &s
		}
	}
	return nil
}

func splitSizes(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func fieldString(hit *bsearch.DocumentMatch, name string) string {
	v, _ := hit.Fields[name].(string)
	return v
}

func fieldFloat(hit *bsearch.DocumentMatch, name string) float64 {
	v, _ := hit.Fields[name].(float64)
	return v
}

func fieldBool(hit *bsearch.DocumentMatch, name string) bool {
	v, _ := hit.Fields[name].(bool)
	return v
}
