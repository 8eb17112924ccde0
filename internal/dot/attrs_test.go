package dot

import "testing"

func TestParseAttrs_Basic(t *testing.T) {
	a := ParseAttrs(`[shape=Mdiamond, label="PARSE", status="pending"]`)
	if got := a.Get("shape"); got != "Mdiamond" {
		t.Errorf("shape = %q, want Mdiamond", got)
	}
	if got := a.Get("label"); got != "PARSE" {
		t.Errorf("label = %q, want PARSE", got)
	}
	if got := a.Get("status"); got != "pending" {
		t.Errorf("status = %q, want pending", got)
	}
	if a.Len() != 3 {
		t.Errorf("Len = %d, want 3", a.Len())
	}
}

func TestParseAttrs_BracketsOptional(t *testing.T) {
	with := ParseAttrs(`[color=red]`)
	without := ParseAttrs(`color=red`)
	trailing := ParseAttrs(`[color=red];`)
	for _, a := range []*Attrs{with, without, trailing} {
		if got := a.Get("color"); got != "red" {
			t.Errorf("color = %q, want red", got)
		}
	}
}

func TestParseAttrs_QuotedEscapes(t *testing.T) {
	a := ParseAttrs(`[label="say \"hi\"", path="C:\\tmp"]`)
	if got := a.Get("label"); got != `say "hi"` {
		t.Errorf("label = %q, want %q", got, `say "hi"`)
	}
	if got := a.Get("path"); got != `C:\tmp` {
		t.Errorf("path = %q, want %q", got, `C:\tmp`)
	}
}

func TestParseAttrs_DOTEscapesPassThrough(t *testing.T) {
	// \n and \l are DOT line-break codes, not Go escapes. They must
	// survive as two characters so labels round-trip.
	a := ParseAttrs(`[label="line one\nline two\l"]`)
	if got := a.Get("label"); got != `line one\nline two\l` {
		t.Errorf("label = %q, want %q", got, `line one\nline two\l`)
	}
}

func TestParseAttrs_DuplicateKeyLastWins(t *testing.T) {
	a := ParseAttrs(`[color=red, color=blue]`)
	if got := a.Get("color"); got != "blue" {
		t.Errorf("color = %q, want blue", got)
	}
	if a.Len() != 1 {
		t.Errorf("Len = %d, want 1", a.Len())
	}
}

func TestParseAttrs_SeparatorVariants(t *testing.T) {
	a := ParseAttrs(`[a=1; b=2 c=3,d=4]`)
	for key, want := range map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"} {
		if got := a.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestParseAttrs_GarbageNeverFails(t *testing.T) {
	cases := []string{
		``,
		`[]`,
		`[====]`,
		`[no equals here just words]`,
		`[key=]`,
		`[="orphan value"]`,
		"[\x00\x01\x02]",
		`[label="unterminated`,
	}
	for _, c := range cases {
		a := ParseAttrs(c) // must not panic
		if a == nil {
			t.Errorf("ParseAttrs(%q) returned nil", c)
		}
	}
}

func TestParseAttrs_UnquotedValueStopsAtSeparator(t *testing.T) {
	a := ParseAttrs(`[shape=box,label=short]`)
	if got := a.Get("shape"); got != "box" {
		t.Errorf("shape = %q, want box", got)
	}
	if got := a.Get("label"); got != "short" {
		t.Errorf("label = %q, want short", got)
	}
}

func TestAttrs_Order(t *testing.T) {
	a := NewAttrs()
	a.Set("z", "1")
	a.Set("a", "2")
	a.Set("z", "3") // existing key keeps position
	keys := a.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Errorf("Keys = %v, want [z a]", keys)
	}
	if got := a.Get("z"); got != "3" {
		t.Errorf("z = %q, want 3", got)
	}
}

func TestAttrs_Equal(t *testing.T) {
	a := ParseAttrs(`[x=1, y=2]`)
	b := ParseAttrs(`[x=1, y=2]`)
	c := ParseAttrs(`[y=2, x=1]`)
	if !a.Equal(b) {
		t.Error("identical attr blocks should be equal")
	}
	if a.Equal(c) {
		t.Error("differently ordered attr blocks should not be equal")
	}
}
