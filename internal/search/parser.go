package search

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrEmptyQuery indicates a query with no searchable content reached the
// planner. The orchestrator and the HTTP layer guard against it.
var ErrEmptyQuery = errors.New("empty query")

// maxFuzzyDistance caps explicit term~N syntax. Larger distances expand to
// far too many false positives on short catalog vocabulary.
const maxFuzzyDistance = 2

var alnumRuns = regexp.MustCompile(`[A-Za-z0-9]+`)

// Parse turns a free-text query string into a query tree. The grammar is
// permissive: adjacent terms OR-combine, uppercase AND/OR are operators,
// quotes delimit phrases, a trailing '*' makes a prefix, and term~N asks
// for fuzzy matching. Anything unrecognizable degrades to literal term
// matching instead of failing the request.
func Parse(query string) (Node, error) {
	toks := lex(query)
	if len(toks) == 0 {
		return nil, ErrEmptyQuery
	}

	p := &parser{toks: toks}
	var nodes []Node
	for !p.eof() {
		if p.peekIs(tokRParen) {
			// Stray closing paren, ignore it.
			p.next()
			continue
		}
		if n := p.parseOr(); n != nil {
			nodes = append(nodes, n)
		}
	}

	switch len(nodes) {
	case 0:
		return nil, ErrEmptyQuery
	case 1:
		return nodes[0], nil
	default:
		return &OrNode{Children: nodes}, nil
	}
}

// RewriteFuzzy rewrites free-text terms of length >= minLen into bounded
// edit-distance matches. Shorter tokens stay exact: under edit-distance
// matching they expand into excessive false positives.
func RewriteFuzzy(n Node, minLen, distance int) Node {
	switch t := n.(type) {
	case *TermNode:
		if t.Field != "" {
			return t
		}
		runs := alnumRuns.FindAllString(t.Text, -1)
		if len(runs) == 0 {
			return t
		}
		children := make([]Node, 0, len(runs))
		for _, run := range runs {
			if len(run) >= minLen {
				children = append(children, &FuzzyNode{Text: run, Distance: distance})
			} else {
				children = append(children, &TermNode{Text: run})
			}
		}
		if len(children) == 1 {
			return children[0]
		}
		return &OrNode{Children: children}
	case *AndNode:
		out := make([]Node, len(t.Children))
		for i, c := range t.Children {
			out[i] = RewriteFuzzy(c, minLen, distance)
		}
		return &AndNode{Children: out}
	case *OrNode:
		out := make([]Node, len(t.Children))
		for i, c := range t.Children {
			out[i] = RewriteFuzzy(c, minLen, distance)
		}
		return &OrNode{Children: out}
	default:
		return n
	}
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokPhrase
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func lex(query string) []token {
	var toks []token
	rs := []rune(query)
	i := 0
	for i < len(rs) {
		switch r := rs[i]; {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				j++
			}
			// An unclosed quote swallows the rest of the input as a
			// phrase rather than failing the request.
			toks = append(toks, token{kind: tokPhrase, text: string(rs[i+1 : j])})
			i = j + 1
		default:
			j := i
			for j < len(rs) && !isSpecial(rs[j]) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: string(rs[i:j])})
			i = j
		}
	}
	return toks
}

func isSpecial(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"'
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.toks)
}

func (p *parser) peekIs(kind tokenKind) bool {
	return !p.eof() && p.toks[p.pos].kind == kind
}

func (p *parser) peekWord(text string) bool {
	return !p.eof() && p.toks[p.pos].kind == tokWord && p.toks[p.pos].text == text
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	p.pos++
	return t
}

// parseOr collects AND-groups separated by explicit OR or by plain
// adjacency. Free-text terms OR-combine by default so a multi-word query
// matches documents containing any of the words.
func (p *parser) parseOr() Node {
	var children []Node
	for !p.eof() && !p.peekIs(tokRParen) {
		if p.peekWord("OR") {
			p.next()
			continue
		}
		if n := p.parseAnd(); n != nil {
			children = append(children, n)
		}
	}
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return &OrNode{Children: children}
	}
}

func (p *parser) parseAnd() Node {
	left := p.parsePrimary()
	for p.peekWord("AND") {
		p.next()
		right := p.parsePrimary()
		if right == nil {
			// Dangling AND degrades to whatever we already have.
			break
		}
		if left == nil {
			left = right
			continue
		}
		if a, ok := left.(*AndNode); ok {
			a.Children = append(a.Children, right)
		} else {
			left = &AndNode{Children: []Node{left, right}}
		}
	}
	return left
}

func (p *parser) parsePrimary() Node {
	if p.eof() || p.peekIs(tokRParen) {
		return nil
	}
	t := p.next()
	switch t.kind {
	case tokLParen:
		n := p.parseOr()
		if p.peekIs(tokRParen) {
			p.next()
		}
		return n
	case tokPhrase:
		if strings.TrimSpace(t.text) == "" {
			return nil
		}
		return &PhraseNode{Text: t.text}
	default:
		return termFromWord(t.text)
	}
}

// termFromWord interprets one bare word, honoring term~N fuzzy syntax and
// a trailing '*' prefix marker. Malformed operator syntax is stripped and
// the remainder matched literally.
func termFromWord(text string) Node {
	if idx := strings.LastIndex(text, "~"); idx >= 0 {
		base := strings.ReplaceAll(text[:idx], "~", "")
		suffix := text[idx+1:]
		if base == "" {
			if suffix == "" {
				return nil
			}
			return &TermNode{Text: stripWildcards(suffix)}
		}
		base = stripWildcards(base)
		if base == "" {
			return nil
		}
		switch {
		case suffix == "":
			return &FuzzyNode{Text: base, Distance: 1}
		default:
			n, err := strconv.Atoi(suffix)
			if err != nil || n < 0 {
				// Unrecognized operator syntax, match literally.
				return &TermNode{Text: base + suffix}
			}
			if n == 0 {
				return &TermNode{Text: base}
			}
			return &FuzzyNode{Text: base, Distance: min(n, maxFuzzyDistance)}
		}
	}

	if strings.HasSuffix(text, "*") {
		rest := strings.TrimRight(text, "*")
		if rest == "" {
			return nil
		}
		if !strings.ContainsAny(rest, "*?") {
			return &PrefixNode{Text: strings.ToLower(rest)}
		}
		text = rest
	}

	text = stripWildcards(text)
	if text == "" {
		return nil
	}
	return &TermNode{Text: text}
}

func stripWildcards(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '*' || r == '?' {
			return -1
		}
		return r
	}, s)
}
