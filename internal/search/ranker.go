package search

import (
	"math"
	"sort"

	bsearch "github.com/blevesearch/bleve/v2/search"

	"github.com/shoplight/prodsearch/internal/domain"
)

// DefaultFields is the free-text field set: every term contributes
// independently from each field rather than having to match all of them.
var DefaultFields = []string{
	domain.FieldProductName,
	domain.FieldCategory,
	domain.FieldAttributes,
	domain.FieldFullText,
}

// RankerConfig holds the BM25 parameters. K1 controls term-frequency
// saturation, B length normalization; FieldB overrides B per field and
// FieldWeights applies static per-field multipliers so product name
// matches dominate.
type RankerConfig struct {
	K1           float64
	B            float64
	FieldB       map[string]float64
	FieldWeights map[string]float64
}

// DefaultRankerConfig mirrors the tuning the service ships with.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		K1: 1.5,
		B:  0.75,
		FieldB: map[string]float64{
			domain.FieldProductName: 1.0,
			domain.FieldAttributes:  1.0,
			domain.FieldFullText:    1.0,
		},
		FieldWeights: map[string]float64{
			domain.FieldProductName: 3.0,
		},
	}
}

func (c RankerConfig) weight(field string) float64 {
	if w, ok := c.FieldWeights[field]; ok {
		return w
	}
	return 1.0
}

func (c RankerConfig) b(field string) float64 {
	if b, ok := c.FieldB[field]; ok {
		return b
	}
	return c.B
}

// DocFreqer resolves how many documents contain a term in a field. The
// index store satisfies it via its field dictionaries.
type DocFreqer interface {
	DocFreq(field, term string) (uint64, error)
}

// Ranker rescores candidate hits with BM25:
//
//	score = Σ idf(t) · tf·(k1+1) / (tf + k1·(1−b+b·len/avglen))
//
// summed over the matched terms of every scored field, scaled by the
// field's static weight. Term frequencies come from the hit's term
// locations, field lengths from stored token counts, document frequencies
// from the index dictionaries.
type Ranker struct {
	cfg    RankerConfig
	fields []string
}

// NewRanker creates a ranker over the default free-text fields.
func NewRanker(cfg RankerConfig) *Ranker {
	return &Ranker{cfg: cfg, fields: DefaultFields}
}

// Rescore replaces each hit's score and re-sorts the slice. Ties resolve
// by ascending document ID for deterministic paging.
func (r *Ranker) Rescore(hits []*bsearch.DocumentMatch, docCount uint64, avgLen map[string]float64, df DocFreqer) {
	type dictKey struct{ field, term string }
	freqs := make(map[dictKey]uint64)

	for _, hit := range hits {
		score := 0.0
		for _, field := range r.fields {
			terms := hit.Locations[field]
			if len(terms) == 0 {
				continue
			}
			weight := r.cfg.weight(field)
			norm := r.lengthNorm(field, hit, avgLen)
			for term, locs := range terms {
				key := dictKey{field: field, term: term}
				n, ok := freqs[key]
				if !ok {
					n, _ = df.DocFreq(field, term)
					freqs[key] = n
				}
				tf := float64(len(locs))
				idf := math.Log(1 + (float64(docCount)-float64(n)+0.5)/(float64(n)+0.5))
				score += weight * idf * (tf * (r.cfg.K1 + 1)) / (tf + r.cfg.K1*norm)
			}
		}
		hit.Score = score
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
}

// lengthNorm computes 1−b+b·len/avglen for the field, falling back to a
// neutral factor when the field carries no stored length or the corpus
// average is unknown.
func (r *Ranker) lengthNorm(field string, hit *bsearch.DocumentMatch, avgLen map[string]float64) float64 {
	lenField := domain.LengthField(field)
	if lenField == "" {
		return 1.0
	}
	length, ok := hit.Fields[lenField].(float64)
	if !ok {
		return 1.0
	}
	avg := avgLen[field]
	if avg <= 0 {
		return 1.0
	}
	b := r.cfg.b(field)
	return 1 - b + b*(length/avg)
}
