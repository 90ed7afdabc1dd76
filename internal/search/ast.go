package search

// Node is one node of a typed query tree. Trees are produced by the query
// parser and the filter builder and compiled into index queries in one
// place, so the rest of the pipeline never touches query syntax.
type Node interface {
	isNode()
}

// TermNode matches a single term. An empty Field means the term applies to
// the default free-text field set.
type TermNode struct {
	Field string
	Text  string
}

// FuzzyNode matches a term within a bounded edit distance.
type FuzzyNode struct {
	Field    string
	Text     string
	Distance int
}

// PhraseNode matches a quoted phrase in order.
type PhraseNode struct {
	Field string
	Text  string
}

// PrefixNode matches terms starting with Text.
type PrefixNode struct {
	Field string
	Text  string
}

// AndNode requires all children to match.
type AndNode struct {
	Children []Node
}

// OrNode requires at least one child to match.
type OrNode struct {
	Children []Node
}

// RangeNode matches numeric field values within inclusive bounds. A nil
// bound is open.
type RangeNode struct {
	Field string
	Min   *float64
	Max   *float64
}

// BoolNode matches a boolean field value.
type BoolNode struct {
	Field string
	Value bool
}

func (*TermNode) isNode()   {}
func (*FuzzyNode) isNode()  {}
func (*PhraseNode) isNode() {}
func (*PrefixNode) isNode() {}
func (*AndNode) isNode()    {}
func (*OrNode) isNode()     {}
func (*RangeNode) isNode()  {}
func (*BoolNode) isNode()   {}
