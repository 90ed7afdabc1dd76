package catalog

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// String accepts a JSON string, number or boolean and renders it as a
// string. Anything else (objects, arrays, null) normalizes to "" rather
// than failing the record.
type String string

// UnmarshalJSON implements lenient scalar decoding.
func (s *String) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = String(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		*s = String(num.String())
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*s = String(strconv.FormatBool(b))
		return nil
	}
	*s = ""
	return nil
}

// StringList accepts either a single scalar or a list of scalars.
type StringList []string

// UnmarshalJSON implements scalar-or-list decoding.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var many []String
	if err := json.Unmarshal(data, &many); err == nil {
		out := make([]string, 0, len(many))
		for _, v := range many {
			if v != "" {
				out = append(out, string(v))
			}
		}
		*l = out
		return nil
	}
	var one String
	if err := json.Unmarshal(data, &one); err == nil && one != "" {
		*l = []string{string(one)}
		return nil
	}
	*l = nil
	return nil
}

// AttributeSet is the tagged union behind the source's attributes field,
// which arrives either as a map of attribute name to value(s) or as a
// list of pre-joined "key:value" strings.
type AttributeSet struct {
	pairs  map[string]StringList
	values []string
}

// UnmarshalJSON accepts the map form, the list form, or nothing.
func (a *AttributeSet) UnmarshalJSON(data []byte) error {
	var pairs map[string]StringList
	if err := json.Unmarshal(data, &pairs); err == nil && pairs != nil {
		a.pairs = pairs
		a.values = nil
		return nil
	}
	var values StringList
	if err := json.Unmarshal(data, &values); err == nil {
		a.pairs = nil
		a.values = values
		return nil
	}
	a.pairs = nil
	a.values = nil
	return nil
}

// Flatten renders the set as a canonical space-joined token string.
// Map entries become "key:v1,v2" and are emitted in sorted key order so
// repeated normalization of the same record is deterministic.
func (a AttributeSet) Flatten() string {
	if len(a.pairs) > 0 {
		keys := make([]string, 0, len(a.pairs))
		for k := range a.pairs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tokens := make([]string, 0, len(keys))
		for _, k := range keys {
			tokens = append(tokens, k+":"+strings.Join(a.pairs[k], ","))
		}
		return strings.Join(tokens, " ")
	}
	return strings.Join(a.values, " ")
}

// Price accepts the nested price object form {"final_price": n}, a bare
// number, or a numeric string. Missing or malformed values decode to 0.
type Price struct {
	value float64
}

// UnmarshalJSON implements lenient price decoding.
func (p *Price) UnmarshalJSON(data []byte) error {
	p.value = 0
	var obj struct {
		FinalPrice String `json:"final_price"`
	}
	if err := json.Unmarshal(data, &obj); err == nil && obj.FinalPrice != "" {
		p.value = parsePrice(string(obj.FinalPrice))
		return nil
	}
	var scalar String
	if err := json.Unmarshal(data, &scalar); err == nil {
		p.value = parsePrice(string(scalar))
	}
	return nil
}

// Value returns the normalized price: finite and non-negative, 0 on any
// parse failure.
func (p Price) Value() float64 {
	return p.value
}

func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f != f || f < 0 || f > maxPrice {
		return 0
	}
	return f
}

// maxPrice guards against +Inf and absurd overflow values in the source.
const maxPrice = 1e12

// RawVariant is one sellable variant inside a product record.
type RawVariant struct {
	VariantID String     `json:"variant_id"`
	Price     Price      `json:"price"`
	Sizes     StringList `json:"sizes"`
	Color     StringList `json:"color"`
	InStock   bool       `json:"in_stock"`
	Images    StringList `json:"images"`
}

// RawProduct is a product record as it appears in the source file.
// Unknown fields are ignored by encoding/json, which keeps ingestion
// forward-compatible with source schema additions.
type RawProduct struct {
	ID          String       `json:"id"`
	SKU         String       `json:"sku"`
	Slug        String       `json:"slug"`
	ProductName String       `json:"product_name"`
	BrandSlug   String       `json:"brand_slug"`
	Category    String       `json:"category"`
	ProductType String       `json:"product_type"`
	Attributes  AttributeSet `json:"attributes"`
	Gender      String       `json:"gender"`
	Occasion    String       `json:"occasion"`
	Style       String       `json:"style"`
	FullText    String       `json:"full_text"`
	Description String       `json:"description"`
	PdpURL      String       `json:"pdp_url"`
	URL         String       `json:"url"`
	Image       String       `json:"image"`
	Variants    []RawVariant `json:"variants"`
}
