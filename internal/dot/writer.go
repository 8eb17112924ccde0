package dot

import (
	"fmt"
	"strings"
)

// EscapeValue escapes a value for inclusion in a quoted DOT attribute.
// Backslash and double-quote are escaped; everything else passes through,
// so a parsed `\n` (two characters) re-serializes as `\\n` and survives
// the next parse unchanged.
func EscapeValue(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return r.Replace(v)
}

// FormatAttrs renders an attribute map as a `[key="value", ...]` block,
// in insertion order. Returns "" for an empty map.
func FormatAttrs(a *Attrs) string {
	if a.Len() == 0 {
		return ""
	}
	var parts []string
	for _, k := range a.Keys() {
		parts = append(parts, k+`="`+EscapeValue(a.Get(k))+`"`)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatEdge renders a complete edge statement, with or without an
// attribute block.
func FormatEdge(e *Edge) string {
	if e.Attrs.Len() == 0 {
		return fmt.Sprintf("%s -> %s;", e.Src, e.Dst)
	}
	return fmt.Sprintf("%s -> %s %s;", e.Src, e.Dst, FormatAttrs(e.Attrs))
}

// FormatNode renders a complete node declaration.
func FormatNode(n *Node) string {
	if n.Attrs.Len() == 0 {
		return n.ID + ";"
	}
	return fmt.Sprintf("%s %s;", n.ID, FormatAttrs(n.Attrs))
}
