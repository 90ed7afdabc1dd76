package domain

// Document is the atomic indexed unit: one per product variant.
// It is the primary data structure stored in the Bleve search index.
type Document struct {
	// ID uniquely identifies the document within the store.
	// Format: "{product_id}-{variant_id}"; re-indexing the same ID
	// replaces the prior document.
	ID string `json:"id"`

	// ProductName is the primary relevance field (stemmed, tokenized).
	ProductName string `json:"product_name"`

	// BrandSlug, Category and ProductType are exact-match filterable
	// keyword fields, lowercase, comma-joined when multi-valued.
	BrandSlug   string `json:"brand_slug"`
	Category    string `json:"category"`
	ProductType string `json:"product_type"`

	// Attributes is a flattened "key:value" token string built from the
	// record's attribute map/list plus the fixed gender/occasion/style
	// fields.
	Attributes string `json:"attributes"`

	// FullText is the free-form description. Indexed for relevance,
	// never stored.
	FullText string `json:"full_text"`

	// Price is always a finite non-negative float; parse failures
	// normalize to 0.0.
	Price float64 `json:"price"`

	// Sizes and Color are lowercase comma-joined keyword fields.
	Sizes string `json:"sizes"`
	Color string `json:"color"`

	InStock bool `json:"in_stock"`

	// PdpURL and Image are stored verbatim and never analyzed.
	PdpURL string `json:"pdp_url"`
	Image  string `json:"image"`

	// Autocomplete seeds the edge-n-gram typeahead field with
	// name + brand + category.
	Autocomplete string `json:"autocomplete"`

	// Token counts per scored text field, captured at normalization
	// time for length normalization during ranking. Stored, not indexed.
	NameLen     int `json:"name_len"`
	AttrLen     int `json:"attr_len"`
	FullTextLen int `json:"full_text_len"`
}

// Bleve field name constants for consistent field references in mappings,
// queries and stored-field extraction.
const (
	FieldID           = "id"
	FieldProductName  = "product_name"
	FieldBrandSlug    = "brand_slug"
	FieldCategory     = "category"
	FieldProductType  = "product_type"
	FieldAttributes   = "attributes"
	FieldFullText     = "full_text"
	FieldPrice        = "price"
	FieldSizes        = "sizes"
	FieldColor        = "color"
	FieldInStock      = "in_stock"
	FieldPdpURL       = "pdp_url"
	FieldImage        = "image"
	FieldAutocomplete = "autocomplete"
	FieldNameLen      = "name_len"
	FieldAttrLen      = "attr_len"
	FieldFullTextLen  = "full_text_len"
)

// LengthField maps a scored text field to the stored field carrying its
// token count. Fields without a recorded length (e.g. category) return "".
func LengthField(field string) string {
	switch field {
	case FieldProductName:
		return FieldNameLen
	case FieldAttributes:
		return FieldAttrLen
	case FieldFullText:
		return FieldFullTextLen
	default:
		return ""
	}
}
