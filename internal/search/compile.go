package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Compile lowers a query tree into a Bleve query. Free-text nodes (empty
// Field) expand into a disjunction over the default field set with the
// ranker's field weights applied as boosts, so candidate retrieval order
// roughly agrees with the final BM25 rescoring. Field-scoped nodes from
// the filter builder compile to exact term, boolean and range queries.
func Compile(n Node, cfg RankerConfig) query.Query {
	switch t := n.(type) {
	case *TermNode:
		if t.Field != "" {
			q := bleve.NewTermQuery(strings.ToLower(t.Text))
			q.SetField(t.Field)
			return q
		}
		return perField(cfg, func(field string, boost float64) query.Query {
			q := bleve.NewMatchQuery(t.Text)
			q.SetField(field)
			q.SetBoost(boost)
			return q
		})

	case *FuzzyNode:
		field := t.Field
		if field != "" {
			q := bleve.NewMatchQuery(t.Text)
			q.SetField(field)
			q.SetFuzziness(t.Distance)
			return q
		}
		return perField(cfg, func(field string, boost float64) query.Query {
			q := bleve.NewMatchQuery(t.Text)
			q.SetField(field)
			q.SetBoost(boost)
			q.SetFuzziness(t.Distance)
			return q
		})

	case *PhraseNode:
		if t.Field != "" {
			q := bleve.NewMatchPhraseQuery(t.Text)
			q.SetField(t.Field)
			return q
		}
		return perField(cfg, func(field string, boost float64) query.Query {
			q := bleve.NewMatchPhraseQuery(t.Text)
			q.SetField(field)
			q.SetBoost(boost)
			return q
		})

	case *PrefixNode:
		if t.Field != "" {
			q := bleve.NewPrefixQuery(strings.ToLower(t.Text))
			q.SetField(t.Field)
			return q
		}
		return perField(cfg, func(field string, boost float64) query.Query {
			q := bleve.NewPrefixQuery(strings.ToLower(t.Text))
			q.SetField(field)
			q.SetBoost(boost)
			return q
		})

	case *AndNode:
		children := make([]query.Query, 0, len(t.Children))
		for _, c := range t.Children {
			children = append(children, Compile(c, cfg))
		}
		return bleve.NewConjunctionQuery(children...)

	case *OrNode:
		children := make([]query.Query, 0, len(t.Children))
		for _, c := range t.Children {
			children = append(children, Compile(c, cfg))
		}
		return bleve.NewDisjunctionQuery(children...)

	case *RangeNode:
		inclusive := true
		q := bleve.NewNumericRangeInclusiveQuery(t.Min, t.Max, &inclusive, &inclusive)
		q.SetField(t.Field)
		return q

	case *BoolNode:
		q := bleve.NewBoolFieldQuery(t.Value)
		q.SetField(t.Field)
		return q
	}

	return bleve.NewMatchNoneQuery()
}

func perField(cfg RankerConfig, build func(field string, boost float64) query.Query) query.Query {
	children := make([]query.Query, 0, len(DefaultFields))
	for _, field := range DefaultFields {
		children = append(children, build(field, cfg.weight(field)))
	}
	return bleve.NewDisjunctionQuery(children...)
}
