package search

import (
	"strings"

	"github.com/shoplight/prodsearch/internal/domain"
)

// Filters holds the recognized structured facet and range constraints.
// Values within one dimension OR-combine; distinct dimensions AND-combine.
type Filters struct {
	Brand    []string
	Category []string
	Color    []string
	Size     []string
	InStock  *bool
	PriceMin *float64
	PriceMax *float64
}

// BuildFilter translates filters into a query-tree fragment the caller
// ANDs with the text query. An empty filter set returns nil: no
// constraint, never an always-false one.
func BuildFilter(f Filters) Node {
	var dims []Node

	for _, dim := range []struct {
		field  string
		values []string
	}{
		{domain.FieldBrandSlug, f.Brand},
		{domain.FieldCategory, f.Category},
		{domain.FieldColor, f.Color},
		{domain.FieldSizes, f.Size},
	} {
		if n := termSet(dim.field, dim.values); n != nil {
			dims = append(dims, n)
		}
	}

	if f.InStock != nil {
		dims = append(dims, &BoolNode{Field: domain.FieldInStock, Value: *f.InStock})
	}

	if f.PriceMin != nil || f.PriceMax != nil {
		dims = append(dims, &RangeNode{
			Field: domain.FieldPrice,
			Min:   f.PriceMin,
			Max:   f.PriceMax,
		})
	}

	switch len(dims) {
	case 0:
		return nil
	case 1:
		return dims[0]
	default:
		return &AndNode{Children: dims}
	}
}

// termSet builds the OR-combination for one facet dimension. Blank values
// are dropped; a dimension with only blanks contributes nothing.
func termSet(field string, values []string) Node {
	var terms []Node
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		terms = append(terms, &TermNode{Field: field, Text: v})
	}
	switch len(terms) {
	case 0:
		return nil
	case 1:
		return terms[0]
	default:
		return &OrNode{Children: terms}
	}
}
