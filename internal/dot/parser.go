package dot

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// reserved words that can never be node ids.
var reservedWords = map[string]bool{
	"graph":    true,
	"node":     true,
	"edge":     true,
	"subgraph": true,
	"digraph":  true,
}

var (
	digraphQuotedRe = regexp.MustCompile(`digraph\s+"([^"]*)"`)
	digraphBareRe   = regexp.MustCompile(`digraph\s+(\w+)`)
	defaultBlockRe  = regexp.MustCompile(`\b(graph|node|edge)\s*\[`)
	identBracketRe  = regexp.MustCompile(`([A-Za-z_]\w*)\s*\[`)
)

// Parse parses a pipeline document into a Graph. It never fails: comments
// are stripped, recognizable structure is extracted, and anything
// malformed degrades to partial or empty results. A document with no
// braces simply yields no nodes and no edges. The schema validator, not
// the parser, is the authority on well-formedness.
func Parse(content string) *Graph {
	text := stripLineComments(content)
	g := NewGraph(parseName(text))

	// Default blocks (graph [...], node [...], edge [...]) are collected
	// from the whole document in order, consuming each block so a keyword
	// appearing inside an earlier block is not re-matched.
	pos := 0
	for _, m := range defaultBlockRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] < pos {
			continue
		}
		// Keyword must stand alone, not be the tail of an identifier.
		if m[0] > 0 && isWordChar(text[m[0]-1]) {
			continue
		}
		open := m[1] - 1 // index of '['
		block, end := scanBracketBlock(text, open)
		pos = end
		attrs := ParseAttrs(block)
		switch text[m[2]:m[3]] {
		case "graph":
			g.GraphAttrs.Merge(attrs)
		case "node":
			g.NodeDefaults.Merge(attrs)
		case "edge":
			g.EdgeDefaults.Merge(attrs)
		}
	}

	body := documentBody(text)
	parseEdges(g, body)
	parseNodes(g, body)
	return g
}

// ParseFile reads and parses a pipeline file. File access is the only
// failure mode; malformed content still parses (tolerantly).
func ParseFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path) // #nosec G304 - caller-supplied pipeline path
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	return Parse(string(data)), nil
}

// stripLineComments removes // comments that fall outside quoted strings,
// using a per-line quote-toggle scan.
func stripLineComments(content string) string {
	lines := strings.Split(content, "\n")
	for li, line := range lines {
		inQuote := false
		for i := 0; i < len(line); i++ {
			c := line[i]
			if c == '\\' && inQuote && i+1 < len(line) {
				i++
				continue
			}
			if c == '"' {
				inQuote = !inQuote
				continue
			}
			if c == '/' && !inQuote && i+1 < len(line) && line[i+1] == '/' {
				lines[li] = line[:i]
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func parseName(text string) string {
	if m := digraphQuotedRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := digraphBareRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// documentBody returns the text between the first '{' and the last '}',
// or "" when either brace is missing.
func documentBody(text string) string {
	open := strings.Index(text, "{")
	closeIdx := strings.LastIndex(text, "}")
	if open < 0 || closeIdx < 0 || closeIdx <= open {
		return ""
	}
	return text[open+1 : closeIdx]
}

// parseEdges extracts every `ident -> ident` occurrence, with an optional
// trailing attribute block. Edges are scanned around each "->" token so
// chains like `a -> b -> c` yield both hops. Exact duplicates collapse;
// attribute-distinguished parallel edges are kept in first-seen order.
func parseEdges(g *Graph, body string) {
	for i := 0; i+1 < len(body); i++ {
		if body[i] != '-' || body[i+1] != '>' {
			continue
		}
		src := identBefore(body, i)
		dst, dstEnd := identAfter(body, i+2)
		if src == "" || dst == "" {
			continue
		}

		edge := NewEdge(src, dst)
		j := skipSpace(body, dstEnd)
		if j < len(body) && body[j] == '[' {
			block, _ := scanBracketBlock(body, j)
			edge.Attrs = ParseAttrs(block)
		}

		if !hasExactEdge(g, edge) {
			g.Edges = append(g.Edges, edge)
		}
	}
}

func hasExactEdge(g *Graph, e *Edge) bool {
	for _, other := range g.Edges {
		if other.Src == e.Src && other.Dst == e.Dst && other.Attrs.Equal(e.Attrs) {
			return true
		}
	}
	return false
}

// parseNodes extracts every `ident [...]` declaration. Reserved words are
// skipped, as is any ident immediately preceded by "->" (that is an edge
// destination, not a declaration). First declaration per id wins.
func parseNodes(g *Graph, body string) {
	pos := 0 // end of the last consumed attribute block
	for _, m := range identBracketRe.FindAllStringSubmatchIndex(body, -1) {
		if m[0] < pos {
			continue // inside a block we already scanned past
		}
		start, end := m[2], m[3]
		id := body[start:end]
		if start > 0 && isWordChar(body[start-1]) {
			continue
		}
		open := m[1] - 1 // index of '['
		block, blockEnd := scanBracketBlock(body, open)
		pos = blockEnd
		if reservedWords[id] {
			continue
		}
		if precededByArrow(body, start) {
			continue
		}
		if g.HasNode(id) {
			continue
		}
		node := NewNode(id)
		node.Attrs = ParseAttrs(block)
		g.Nodes = append(g.Nodes, node)
	}
}

// precededByArrow reports whether the token starting at idx follows a
// "->" with only whitespace in between.
func precededByArrow(s string, idx int) bool {
	i := idx - 1
	for i >= 0 && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i--
	}
	return i >= 1 && s[i] == '>' && s[i-1] == '-'
}

// identBefore scans backwards from the "->" at idx for the source ident.
func identBefore(s string, idx int) string {
	i := idx - 1
	for i >= 0 && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i--
	}
	end := i + 1
	for i >= 0 && isWordChar(s[i]) {
		i--
	}
	ident := s[i+1 : end]
	if ident == "" || ident[0] >= '0' && ident[0] <= '9' {
		return ""
	}
	return ident
}

// identAfter scans forward from just past "->" for the destination ident.
// Returns the ident and the index just past it.
func identAfter(s string, idx int) (string, int) {
	i := skipSpace(s, idx)
	start := i
	for i < len(s) && isWordChar(s[i]) {
		i++
	}
	ident := s[start:i]
	if ident == "" || ident[0] >= '0' && ident[0] <= '9' {
		return "", idx
	}
	return ident, i
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// scanBracketBlock scans a `[...]` block starting at s[open] == '[',
// counting bracket depth and ignoring bracket characters inside quoted
// strings. Returns the block including brackets and the index just past
// the closing bracket. An unterminated block runs to end of input.
func scanBracketBlock(s string, open int) (string, int) {
	depth := 0
	inQuote := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if c == '\\' && inQuote && i+1 < len(s) {
			i++
			continue
		}
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[open : i+1], i + 1
			}
		}
	}
	return s[open:], len(s)
}
