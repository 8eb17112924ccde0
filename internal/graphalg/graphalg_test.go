package graphalg

import (
	"testing"

	"github.com/steveyegge/attractor/internal/dot"
)

// linear builds a -> b -> c -> d.
func linear() *dot.Graph {
	return dot.Parse(`digraph t {
  a [shape=Mdiamond]; b [shape=box]; c [shape=box]; d [shape=Msquare];
  a -> b; b -> c; c -> d;
}`)
}

func TestReachable(t *testing.T) {
	g := linear()
	r := Reachable(g, "a")
	for _, id := range []string{"a", "b", "c", "d"} {
		if !r[id] {
			t.Errorf("%s should be reachable from a", id)
		}
	}
	r = Reachable(g, "c")
	if r["a"] || r["b"] {
		t.Error("a and b must not be reachable from c")
	}
	if !r["d"] {
		t.Error("d should be reachable from c")
	}
}

func TestReachable_UnknownStart(t *testing.T) {
	if r := Reachable(linear(), "nope"); len(r) != 0 {
		t.Errorf("Reachable from unknown node = %v, want empty", r)
	}
}

func TestFindCycles_None(t *testing.T) {
	if cycles := FindCycles(linear(), nil); len(cycles) != 0 {
		t.Errorf("cycles = %v, want none", cycles)
	}
}

func TestFindCycles_Simple(t *testing.T) {
	g := dot.Parse(`digraph t {
  a [shape=box]; b [shape=box]; c [shape=box];
  a -> b; b -> c; c -> a;
}`)
	cycles := FindCycles(g, nil)
	if len(cycles) != 1 {
		t.Fatalf("len(cycles) = %d, want 1: %v", len(cycles), cycles)
	}
	cycle := cycles[0]
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("cycle %v should close on its first node", cycle)
	}
}

func TestFindCycles_Deduplicated(t *testing.T) {
	// Two entry points into the same cycle must not report it twice.
	g := dot.Parse(`digraph t {
  entry [shape=box]; a [shape=box]; b [shape=box];
  entry -> a; a -> b; b -> a;
}`)
	if cycles := FindCycles(g, nil); len(cycles) != 1 {
		t.Errorf("len(cycles) = %d, want 1: %v", len(cycles), cycles)
	}
}

// retryLoop builds the canonical guarded pattern: impl -> decide, decide
// fails back to impl.
func retryLoop() *dot.Graph {
	return dot.Parse(`digraph t {
  impl [shape=box, handler="codergen", worker_type="backend"];
  decide [shape=diamond, handler="conditional"];
  done [shape=box];
  impl -> decide;
  decide -> done [condition="pass"];
  decide -> impl [condition="fail"];
}`)
}

func TestGuardedBackEdges(t *testing.T) {
	g := retryLoop()
	guarded := GuardedBackEdges(g)
	if len(guarded) != 1 {
		t.Fatalf("len(guarded) = %d, want 1", len(guarded))
	}
	if guarded[0].Src != "decide" || guarded[0].Dst != "impl" {
		t.Errorf("guarded edge = %s -> %s, want decide -> impl", guarded[0].Src, guarded[0].Dst)
	}
}

func TestFindUnguardedCycles_GuardedLoopExempt(t *testing.T) {
	if cycles := FindUnguardedCycles(retryLoop()); len(cycles) != 0 {
		t.Errorf("guarded retry loop reported as cycle: %v", cycles)
	}
}

func TestFindUnguardedCycles_PassLoopCaught(t *testing.T) {
	g := dot.Parse(`digraph t {
  impl [shape=box];
  decide [shape=diamond, handler="conditional"];
  impl -> decide;
  decide -> impl [condition="pass"];
}`)
	if cycles := FindUnguardedCycles(g); len(cycles) != 1 {
		t.Errorf("pass back-edge must count as a cycle, got %v", cycles)
	}
}

func TestWouldCreateUnguardedCycle(t *testing.T) {
	g := dot.Parse(`digraph t {
  a [shape=box]; b [shape=box];
  a -> b;
}`)
	if !WouldCreateUnguardedCycle(g, "b", "a", dot.ConditionPass) {
		t.Error("b -> a closes a cycle and must be flagged")
	}
	if WouldCreateUnguardedCycle(g, "a", "b", "") {
		t.Error("a second a -> b edge creates no cycle")
	}
}

func TestWouldCreateUnguardedCycle_GuardedCandidateAllowed(t *testing.T) {
	g := dot.Parse(`digraph t {
  impl [shape=box];
  decide [shape=diamond, handler="conditional"];
  impl -> decide;
}`)
	if WouldCreateUnguardedCycle(g, "decide", "impl", dot.ConditionFail) {
		t.Error("a fail edge from a conditional node is guarded by definition")
	}
	if !WouldCreateUnguardedCycle(g, "decide", "impl", dot.ConditionPass) {
		t.Error("a pass edge closing the same loop is unguarded")
	}
}

func TestIsGuardedBackEdge(t *testing.T) {
	g := retryLoop()
	for _, e := range g.Edges {
		guarded := IsGuardedBackEdge(g, e)
		wantGuarded := e.Condition() == dot.ConditionFail && e.Src == "decide"
		if guarded != wantGuarded {
			t.Errorf("edge %s -> %s (condition=%s): guarded = %v, want %v",
				e.Src, e.Dst, e.Condition(), guarded, wantGuarded)
		}
	}
}
