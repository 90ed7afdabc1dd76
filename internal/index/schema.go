package index

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/token/edgengram"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	regexptok "github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/shoplight/prodsearch/internal/domain"
)

// SchemaVersion fingerprints the index layout. It is persisted inside the
// index at creation time; opening an index written under a different
// fingerprint fails with ErrSchemaMismatch instead of silently migrating.
const SchemaVersion = "prodsearch/1"

// Analyzer names registered on the index mapping.
const (
	analyzerProductText  = "product_text"
	analyzerKeywordCSV   = "keyword_csv"
	analyzerAutocomplete = "autocomplete_text"
)

// buildIndexMapping creates the Bleve mapping for product documents:
// porter-stemmed text for relevance fields, comma-separated lowercase
// keywords for filterable fields, and an edge-n-gram field for typeahead.
func buildIndexMapping() (mapping.IndexMapping, error) {
	m := bleve.NewIndexMapping()

	if err := m.AddCustomTokenizer("comma", map[string]interface{}{
		"type":   regexptok.Name,
		"regexp": `[^,]+`,
	}); err != nil {
		return nil, fmt.Errorf("failed to register comma tokenizer: %w", err)
	}

	if err := m.AddCustomAnalyzer(analyzerProductText, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetok.Name,
		"token_filters": []string{lowercase.Name, porter.Name},
	}); err != nil {
		return nil, fmt.Errorf("failed to register text analyzer: %w", err)
	}

	if err := m.AddCustomAnalyzer(analyzerKeywordCSV, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     "comma",
		"token_filters": []string{lowercase.Name},
	}); err != nil {
		return nil, fmt.Errorf("failed to register keyword analyzer: %w", err)
	}

	if err := m.AddCustomTokenFilter("autocomplete_ngram", map[string]interface{}{
		"type": edgengram.Name,
		"min":  2.0,
		"max":  15.0,
	}); err != nil {
		return nil, fmt.Errorf("failed to register ngram filter: %w", err)
	}

	if err := m.AddCustomAnalyzer(analyzerAutocomplete, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicodetok.Name,
		"token_filters": []string{lowercase.Name, "autocomplete_ngram"},
	}); err != nil {
		return nil, fmt.Errorf("failed to register autocomplete analyzer: %w", err)
	}

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false

	// ID - stored but not indexed (we use the document ID for lookups)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	idField.IncludeInAll = false
	doc.AddFieldMappingsAt(domain.FieldID, idField)

	// Stemmed relevance fields. Term vectors are kept so the ranker can
	// read per-field term frequencies from hit locations.
	for _, spec := range []struct {
		name  string
		store bool
	}{
		{domain.FieldProductName, true},
		{domain.FieldAttributes, true},
		{domain.FieldFullText, false},
	} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = analyzerProductText
		f.Store = spec.store
		f.IncludeTermVectors = true
		f.IncludeInAll = false
		doc.AddFieldMappingsAt(spec.name, f)
	}

	// Exact-match filterable keyword fields, comma-separated multi-value.
	for _, name := range []string{
		domain.FieldBrandSlug,
		domain.FieldCategory,
		domain.FieldProductType,
		domain.FieldSizes,
		domain.FieldColor,
	} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = analyzerKeywordCSV
		f.Store = true
		f.IncludeTermVectors = true
		f.IncludeInAll = false
		doc.AddFieldMappingsAt(name, f)
	}

	price := bleve.NewNumericFieldMapping()
	price.Store = true
	price.IncludeInAll = false
	doc.AddFieldMappingsAt(domain.FieldPrice, price)

	inStock := bleve.NewBooleanFieldMapping()
	inStock.Store = true
	inStock.IncludeInAll = false
	doc.AddFieldMappingsAt(domain.FieldInStock, inStock)

	// Opaque stored strings, never analyzed.
	for _, name := range []string{domain.FieldPdpURL, domain.FieldImage} {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		f.Index = false
		f.Store = true
		f.IncludeInAll = false
		doc.AddFieldMappingsAt(name, f)
	}

	autocomplete := bleve.NewTextFieldMapping()
	autocomplete.Analyzer = analyzerAutocomplete
	autocomplete.Store = false
	autocomplete.IncludeInAll = false
	doc.AddFieldMappingsAt(domain.FieldAutocomplete, autocomplete)

	// Per-field token counts for length normalization; stored only.
	for _, name := range []string{
		domain.FieldNameLen,
		domain.FieldAttrLen,
		domain.FieldFullTextLen,
	} {
		f := bleve.NewNumericFieldMapping()
		f.Index = false
		f.Store = true
		f.IncludeInAll = false
		doc.AddFieldMappingsAt(name, f)
	}

	m.DefaultMapping = doc
	m.DefaultAnalyzer = analyzerProductText
	m.StoreDynamic = false
	m.IndexDynamic = false

	return m, nil
}
