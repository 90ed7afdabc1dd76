package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shoplight/prodsearch/internal/domain"
)

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

// TokenCount counts the alphanumeric runs in s. The same tokenization is
// applied at query time, so stored field lengths line up with the terms
// the ranker sees.
func TokenCount(s string) int {
	return len(tokenPattern.FindAllStringIndex(s, -1))
}

// Normalize flattens one raw product record into indexable documents, one
// per variant. A record with no variants yields no documents. Malformed
// individual fields degrade to defaults; normalization never rejects a
// record.
func Normalize(rec RawProduct) []domain.Document {
	name := strings.TrimSpace(string(rec.ProductName))
	brand := keyword(string(rec.BrandSlug))
	category := keyword(string(rec.Category))
	productType := keyword(string(rec.ProductType))

	attributes := flattenAttributes(rec)
	fullText := strings.TrimSpace(string(rec.FullText))
	if fullText == "" {
		fullText = strings.TrimSpace(string(rec.Description))
	}
	pdpURL := strings.TrimSpace(string(rec.PdpURL))
	if pdpURL == "" {
		pdpURL = strings.TrimSpace(string(rec.URL))
	}

	// Typeahead seed is always name + brand + category.
	autocomplete := strings.TrimSpace(name + " " + brand + " " + category)

	productID := recordID(rec, name, brand, category)

	docs := make([]domain.Document, 0, len(rec.Variants))
	for i, v := range rec.Variants {
		variantID := strings.TrimSpace(string(v.VariantID))
		if variantID == "" {
			variantID = strconv.Itoa(i)
		}

		image := strings.TrimSpace(string(rec.Image))
		if len(v.Images) > 0 {
			image = v.Images[0]
		}

		docs = append(docs, domain.Document{
			ID:           productID + "-" + variantID,
			ProductName:  name,
			BrandSlug:    brand,
			Category:     category,
			ProductType:  productType,
			Attributes:   attributes,
			FullText:     fullText,
			Price:        v.Price.Value(),
			Sizes:        joinKeywords(v.Sizes),
			Color:        joinKeywords(v.Color),
			InStock:      v.InStock,
			PdpURL:       pdpURL,
			Image:        image,
			Autocomplete: autocomplete,
			NameLen:      TokenCount(name),
			AttrLen:      TokenCount(attributes),
			FullTextLen:  TokenCount(fullText),
		})
	}
	return docs
}

// recordID resolves the product identifier leniently: id, then sku, then
// slug, then a name/brand/category placeholder. Malformed records are
// indexed under a synthetic key rather than rejected.
func recordID(rec RawProduct, name, brand, category string) string {
	for _, candidate := range []string{string(rec.ID), string(rec.SKU), string(rec.Slug)} {
		if id := strings.TrimSpace(candidate); id != "" {
			return id
		}
	}
	return name + "-" + brand + "-" + category
}

// flattenAttributes renders the attribute union plus the fixed
// gender/occasion/style fields as one canonical token string.
func flattenAttributes(rec RawProduct) string {
	parts := make([]string, 0, 4)
	if s := rec.Attributes.Flatten(); s != "" {
		parts = append(parts, s)
	}
	for _, fixed := range []struct {
		key   string
		value String
	}{
		{"gender", rec.Gender},
		{"occasion", rec.Occasion},
		{"style", rec.Style},
	} {
		if v := keyword(string(fixed.value)); v != "" {
			parts = append(parts, fixed.key+":"+v)
		}
	}
	return strings.Join(parts, " ")
}

func keyword(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func joinKeywords(values []string) string {
	if len(values) == 0 {
		return ""
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if k := keyword(v); k != "" {
			out = append(out, k)
		}
	}
	return strings.Join(out, ",")
}
