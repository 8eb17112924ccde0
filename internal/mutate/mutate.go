// Package mutate implements the edge mutation engine: pure text
// transforms that add and remove edge statements, plus a file-facing
// Editor that wraps them with locking, atomic writes, and audit logging.
//
// The transforms share their preconditions with the schema validator's
// cycle rule: an edge that would close an unguarded cycle is rejected
// unless explicitly overridden, and the guarded back-edge (condition=fail
// from a conditional node) is always permitted.
package mutate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/steveyegge/attractor/internal/dot"
	"github.com/steveyegge/attractor/internal/graphalg"
)

// ErrNoMatchingEdge indicates a remove call matched zero statements.
// A non-empty match set is part of RemoveEdge's contract.
var ErrNoMatchingEdge = errors.New("no matching edge to remove")

// AddOptions carries the optional parts of an edge addition.
type AddOptions struct {
	// Label is the edge's display label.
	Label string

	// Condition is the branch condition ("", pass, fail, or partial).
	Condition dot.Condition

	// Extra holds additional attributes, appended after label and
	// condition in the serialized statement.
	Extra *dot.Attrs

	// AllowCycle skips the unguarded-cycle check. It never legalizes a
	// self-loop.
	AllowCycle bool
}

// AddEdge returns new document content with an edge statement for
// src -> dst spliced in immediately before the final closing brace.
// Preconditions, checked in order: no self-loops (ever), a known
// condition, both endpoints declared, and no unguarded cycle unless
// AllowCycle is set. A condition=fail edge leaving a conditional node is
// always permitted; that is the canonical retry loop.
func AddEdge(content, src, dst string, opts AddOptions) (string, error) {
	if src == dst {
		return "", fmt.Errorf("self-loop %s -> %s is not allowed (no override exists)", src, dst)
	}
	if opts.Condition != "" && !opts.Condition.IsValid() {
		return "", fmt.Errorf("invalid condition %q (valid: pass, fail, partial, or empty)", opts.Condition)
	}

	g := dot.Parse(content)
	if !g.HasNode(src) {
		return "", fmt.Errorf("source node %q not found in pipeline", src)
	}
	if !g.HasNode(dst) {
		return "", fmt.Errorf("destination node %q not found in pipeline", dst)
	}

	if !opts.AllowCycle && graphalg.WouldCreateUnguardedCycle(g, src, dst, opts.Condition) {
		return "", fmt.Errorf(
			"adding %s -> %s would create an unguarded cycle (pass --allow-cycle to override)", src, dst)
	}

	edge := dot.NewEdge(src, dst)
	if opts.Label != "" {
		edge.Attrs.Set(dot.KeyLabel, opts.Label)
	}
	if opts.Condition != "" {
		edge.Attrs.Set(dot.KeyCondition, string(opts.Condition))
	}
	edge.Attrs.Merge(opts.Extra)

	return spliceBeforeClose(content, dot.FormatEdge(edge))
}

// spliceBeforeClose inserts a statement line immediately before the
// document's final closing brace.
func spliceBeforeClose(content, stmt string) (string, error) {
	idx := strings.LastIndex(content, "}")
	if idx < 0 {
		return "", fmt.Errorf("pipeline has no closing brace to splice before")
	}
	insertion := "  " + stmt + "\n"
	if idx > 0 && content[idx-1] != '\n' {
		insertion = "\n" + insertion
	}
	return content[:idx] + insertion + content[idx:], nil
}

var blankRunRe = regexp.MustCompile(`\n{4,}`)

// RemoveEdge deletes every whole edge statement matching src -> dst,
// optionally filtered by substring match of condition= / label= against
// the statement's serialized attribute text. Returns the new content and
// the number of statements removed; zero matches is an error. Runs of 3+
// blank lines left behind collapse to 2.
func RemoveEdge(content, src, dst, condition, label string) (string, int, error) {
	stmtRe, err := edgeStmtPattern(src, dst)
	if err != nil {
		return "", 0, err
	}

	count := 0
	for {
		loc := findRemovableStmt(content, stmtRe, condition, label)
		if loc == nil {
			break
		}
		content = content[:loc[0]] + content[loc[1]:]
		count++
	}
	if count == 0 {
		return "", 0, fmt.Errorf("%w: %s -> %s (condition=%q, label=%q)",
			ErrNoMatchingEdge, src, dst, condition, label)
	}

	content = blankRunRe.ReplaceAllString(content, "\n\n\n")
	return content, count, nil
}

func edgeStmtPattern(src, dst string) (*regexp.Regexp, error) {
	pat := `\b` + regexp.QuoteMeta(src) + `\s*->\s*` + regexp.QuoteMeta(dst) + `\b`
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, fmt.Errorf("bad edge pattern: %w", err)
	}
	return re, nil
}

// findRemovableStmt locates the first src -> dst statement whose
// attribute text passes the condition/label filters. Returns the
// [start, end) range of the whole statement (expanded to eat the line
// when deletion would leave it blank), or nil.
func findRemovableStmt(content string, stmtRe *regexp.Regexp, condition, label string) []int {
	searchFrom := 0
	for searchFrom < len(content) {
		m := stmtRe.FindStringIndex(content[searchFrom:])
		if m == nil {
			return nil
		}
		start := searchFrom + m[0]
		end := searchFrom + m[1]

		// Optional attribute block on the same line.
		attrText := ""
		j := skipInline(content, end)
		if j < len(content) && content[j] == '[' {
			block, blockEnd := scanBlock(content, j)
			attrText = block
			end = blockEnd
			j = skipInline(content, end)
		}
		// Optional trailing semicolon.
		if j < len(content) && content[j] == ';' {
			end = j + 1
		}

		if matchesFilter(attrText, "condition", condition) && matchesFilter(attrText, "label", label) {
			return expandToLine(content, start, end)
		}
		searchFrom = end
	}
	return nil
}

// matchesFilter applies the substring filter contract: an empty wanted
// value matches anything; otherwise the serialized attribute text must
// contain key=value in quoted or bare form.
func matchesFilter(attrText, key, wanted string) bool {
	if wanted == "" {
		return true
	}
	return strings.Contains(attrText, key+`="`+wanted+`"`) ||
		strings.Contains(attrText, key+"="+wanted)
}

// expandToLine widens a statement range to swallow the whole line when
// nothing but whitespace would remain on it.
func expandToLine(content string, start, end int) []int {
	lineStart := strings.LastIndexByte(content[:start], '\n') + 1
	if strings.TrimSpace(content[lineStart:start]) != "" {
		return []int{start, end}
	}
	lineEnd := end
	for lineEnd < len(content) && (content[lineEnd] == ' ' || content[lineEnd] == '\t') {
		lineEnd++
	}
	if lineEnd < len(content) && content[lineEnd] == '\n' {
		return []int{lineStart, lineEnd + 1}
	}
	if lineEnd == len(content) {
		return []int{lineStart, lineEnd}
	}
	return []int{start, end}
}

// skipInline advances past spaces and tabs (not newlines: an edge
// statement ends at its line).
func skipInline(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// scanBlock scans a quote-aware `[...]` block starting at s[open] == '['.
// Returns the block text and the index just past the closing bracket.
func scanBlock(s string, open int) (string, int) {
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
