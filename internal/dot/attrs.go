package dot

import "strings"

// Attrs is an ordered string-to-string attribute map. The pipeline format
// is intentionally extensible, so unknown keys are carried verbatim;
// insertion order is preserved so documents round-trip stably.
type Attrs struct {
	keys []string
	vals map[string]string
}

// NewAttrs creates an empty attribute map.
func NewAttrs() *Attrs {
	return &Attrs{vals: make(map[string]string)}
}

// Get returns the value for key, or "" if absent.
func (a *Attrs) Get(key string) string {
	if a == nil {
		return ""
	}
	return a.vals[key]
}

// Lookup returns the value for key and whether it is present.
func (a *Attrs) Lookup(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a.vals[key]
	return v, ok
}

// Set stores a value. A new key is appended to the order; an existing key
// keeps its position (last write wins for the value).
func (a *Attrs) Set(key, value string) {
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = value
}

// Keys returns the keys in insertion order.
func (a *Attrs) Keys() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Len returns the number of attributes.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.keys)
}

// Merge copies every attribute from other into a, overriding on key
// collision. Later blocks override earlier ones.
func (a *Attrs) Merge(other *Attrs) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		a.Set(k, other.vals[k])
	}
}

// Clone returns an independent copy.
func (a *Attrs) Clone() *Attrs {
	out := NewAttrs()
	out.Merge(a)
	return out
}

// Equal reports whether two attribute maps hold the same keys and values
// in the same order. Used to collapse exact-duplicate edges.
func (a *Attrs) Equal(other *Attrs) bool {
	if a.Len() != other.Len() {
		return false
	}
	for i, k := range a.keys {
		if other.keys[i] != k || other.vals[k] != a.vals[k] {
			return false
		}
	}
	return true
}

// ParseAttrs parses the text of a single `[...]` attribute block into an
// ordered map. Brackets may be included or already stripped. The scanner
// never fails: unrecognized tokens are skipped one character at a time,
// and the last occurrence of a duplicate key wins.
//
// Quoted values unescape `\"` and `\\`; every other backslash sequence
// (`\n`, `\l`, ...) is preserved literally as two characters so DOT-native
// label line-breaks survive a round-trip.
func ParseAttrs(block string) *Attrs {
	s := strings.TrimSpace(block)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSuffix(s, "]")

	attrs := NewAttrs()
	i := 0
	for i < len(s) {
		// Skip separators between key=value pairs.
		if c := s[i]; c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == ';' {
			i++
			continue
		}

		key, next, ok := scanKey(s, i)
		if !ok {
			// Not a key=... token at this position; skip one character
			// and try again. Tolerance over strictness.
			i++
			continue
		}
		i = next

		var value string
		if i < len(s) && s[i] == '"' {
			value, i = scanQuoted(s, i)
		} else {
			value, i = scanBare(s, i)
		}
		attrs.Set(key, value)
	}
	return attrs
}

// scanKey matches a bare-word key followed by `=` (with optional
// surrounding whitespace). Returns the key and the index just past `=`.
func scanKey(s string, i int) (key string, next int, ok bool) {
	j := i
	for j < len(s) && isWordChar(s[j]) {
		j++
	}
	if j == i {
		return "", i, false
	}
	key = s[i:j]
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	if j >= len(s) || s[j] != '=' {
		return "", i, false
	}
	j++
	for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
		j++
	}
	return key, j, true
}

// scanQuoted consumes a double-quoted value starting at s[i] == '"',
// through the matching unescaped quote. `\"` and `\\` are unescaped;
// other backslash pairs pass through untouched.
func scanQuoted(s string, i int) (string, int) {
	var b strings.Builder
	i++ // opening quote
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
			}
			i += 2
			continue
		}
		if c == '"' {
			i++ // closing quote
			break
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), i
}

// scanBare consumes an unquoted value: a run of non-separator characters.
func scanBare(s string, i int) (string, int) {
	j := i
	for j < len(s) && !isSeparator(s[j]) {
		j++
	}
	return s[i:j], j
}

func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', ';', ']':
		return true
	}
	return false
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
