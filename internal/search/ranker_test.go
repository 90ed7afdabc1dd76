package search

import (
	"testing"

	bsearch "github.com/blevesearch/bleve/v2/search"
)

type fakeDocFreqer map[string]uint64

func (f fakeDocFreqer) DocFreq(field, term string) (uint64, error) {
	return f[field+"/"+term], nil
}

func hit(id string, locations bsearch.FieldTermLocationMap, fields map[string]interface{}) *bsearch.DocumentMatch {
	return &bsearch.DocumentMatch{
		ID:        id,
		Locations: locations,
		Fields:    fields,
	}
}

func locs(n int) bsearch.Locations {
	out := make(bsearch.Locations, n)
	for i := range out {
		out[i] = &bsearch.Location{}
	}
	return out
}

func TestRescore_TermFrequencyOrdering(t *testing.T) {
	hits := []*bsearch.DocumentMatch{
		hit("low", bsearch.FieldTermLocationMap{
			"full_text": {"tee": locs(1)},
		}, nil),
		hit("high", bsearch.FieldTermLocationMap{
			"full_text": {"tee": locs(3)},
		}, nil),
	}

	r := NewRanker(DefaultRankerConfig())
	r.Rescore(hits, 10, nil, fakeDocFreqer{"full_text/tee": 2})

	if hits[0].ID != "high" {
		t.Errorf("Expected higher term frequency first, got %q", hits[0].ID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("Expected descending scores, got %v then %v", hits[0].Score, hits[1].Score)
	}
}

func TestRescore_RareTermScoresHigher(t *testing.T) {
	hits := []*bsearch.DocumentMatch{
		hit("common", bsearch.FieldTermLocationMap{
			"full_text": {"shirt": locs(1)},
		}, nil),
		hit("rare", bsearch.FieldTermLocationMap{
			"full_text": {"paisley": locs(1)},
		}, nil),
	}

	r := NewRanker(DefaultRankerConfig())
	r.Rescore(hits, 100, nil, fakeDocFreqer{
		"full_text/shirt":   80,
		"full_text/paisley": 1,
	})

	if hits[0].ID != "rare" {
		t.Errorf("Expected rare term match first, got %q", hits[0].ID)
	}
}

func TestRescore_NameWeightDominates(t *testing.T) {
	hits := []*bsearch.DocumentMatch{
		hit("body", bsearch.FieldTermLocationMap{
			"full_text": {"tee": locs(1)},
		}, nil),
		hit("name", bsearch.FieldTermLocationMap{
			"product_name": {"tee": locs(1)},
		}, nil),
	}

	r := NewRanker(DefaultRankerConfig())
	r.Rescore(hits, 10, nil, fakeDocFreqer{
		"full_text/tee":    2,
		"product_name/tee": 2,
	})

	if hits[0].ID != "name" {
		t.Errorf("Expected product name match first, got %q", hits[0].ID)
	}
}

func TestRescore_TieBreaksByAscendingID(t *testing.T) {
	same := func(id string) *bsearch.DocumentMatch {
		return hit(id, bsearch.FieldTermLocationMap{
			"full_text": {"tee": locs(1)},
		}, nil)
	}
	hits := []*bsearch.DocumentMatch{same("P2-V1"), same("P1-V1"), same("P3-V1")}

	r := NewRanker(DefaultRankerConfig())
	r.Rescore(hits, 10, nil, fakeDocFreqer{"full_text/tee": 3})

	got := []string{hits[0].ID, hits[1].ID, hits[2].ID}
	want := []string{"P1-V1", "P2-V1", "P3-V1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}
}

func TestRescore_LengthNormalizationPenalizesLongFields(t *testing.T) {
	hits := []*bsearch.DocumentMatch{
		hit("long", bsearch.FieldTermLocationMap{
			"product_name": {"tee": locs(1)},
		}, map[string]interface{}{"name_len": 12.0}),
		hit("short", bsearch.FieldTermLocationMap{
			"product_name": {"tee": locs(1)},
		}, map[string]interface{}{"name_len": 2.0}),
	}

	r := NewRanker(DefaultRankerConfig())
	avg := map[string]float64{"product_name": 4.0}
	r.Rescore(hits, 10, avg, fakeDocFreqer{"product_name/tee": 2})

	if hits[0].ID != "short" {
		t.Errorf("Expected shorter name field first, got %q", hits[0].ID)
	}
}

func TestRescore_NoLocationsScoresZero(t *testing.T) {
	h := hit("none", nil, nil)
	h.Score = 42

	r := NewRanker(DefaultRankerConfig())
	r.Rescore([]*bsearch.DocumentMatch{h}, 10, nil, fakeDocFreqer{})

	if h.Score != 0 {
		t.Errorf("Expected zero score for hit without locations, got %v", h.Score)
	}
}
