// Package schema validates pipeline graphs against the structural and
// semantic rules the execution runner depends on. Validation is
// exhaustive: every rule runs on every call, so callers always see the
// complete problem set in one pass. Problems are data (Issues), never
// errors; only file access can fail.
package schema

import (
	"fmt"
	"strings"

	"github.com/steveyegge/attractor/internal/dot"
	"github.com/steveyegge/attractor/internal/graphalg"
)

// Level is an issue's severity.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Issue is one validation finding.
type Issue struct {
	Level   Level  `json:"level"`
	Rule    int    `json:"rule"`
	Message string `json:"message"`
	Node    string `json:"node,omitempty"`
}

func (i Issue) String() string {
	if i.Node != "" {
		return fmt.Sprintf("[%s] rule %d (%s): %s", i.Level, i.Rule, i.Node, i.Message)
	}
	return fmt.Sprintf("[%s] rule %d: %s", i.Level, i.Rule, i.Message)
}

// Rule numbers, fixed for tooling that filters by rule.
const (
	RuleStartExit        = 1  // exactly one start and one exit node
	RuleReachability     = 2  // every node reachable from start
	RuleOrphans          = 3  // every node has an incident edge
	RuleEdgeEndpoints    = 4  // edges reference declared nodes
	RuleCodergenGate     = 5  // codergen has a wait.human descendant
	RuleDiamondEdges     = 6  // conditional has exactly pass+fail outbound
	RuleStatusEnum       = 7  // status is a known value
	RuleHandlerContract  = 8  // handler enum, required attrs, shape match
	RuleNoUnguardedCycle = 9  // no cycles except guarded back-edges
	RulePromiseID        = 10 // promise_ac requires graph promise_id
	RuleEdgeCondition    = 11 // edge condition is a known value
)

// requiredAttrs is the per-handler required-attribute contract.
var requiredAttrs = map[dot.Handler][]string{
	dot.HandlerStart:       {},
	dot.HandlerExit:        {},
	dot.HandlerCodergen:    {dot.KeyWorkerType},
	dot.HandlerTool:        {dot.KeyCommand},
	dot.HandlerWaitHuman:   {dot.KeyGate},
	dot.HandlerConditional: {},
	dot.HandlerParallel:    {},
}

// expectedShape is the per-handler expected shape. A node carrying both an
// explicit handler and an explicit shape must keep them consistent.
var expectedShape = map[dot.Handler]dot.Shape{
	dot.HandlerStart:       dot.ShapeMdiamond,
	dot.HandlerExit:        dot.ShapeMsquare,
	dot.HandlerCodergen:    dot.ShapeBox,
	dot.HandlerTool:        dot.ShapeParallelogram,
	dot.HandlerWaitHuman:   dot.ShapeHexagon,
	dot.HandlerConditional: dot.ShapeDiamond,
	dot.HandlerParallel:    dot.ShapeBox,
}

// Validate applies all rules to the graph and returns every finding. It
// never stops at the first failure. With strict set, a codergen node
// missing a downstream gate (rule 5) is an error instead of a warning.
func Validate(g *dot.Graph, strict bool) []Issue {
	v := &validator{g: g, strict: strict}
	v.checkStartExit()
	v.checkReachability()
	v.checkOrphans()
	v.checkEdgeEndpoints()
	v.checkCodergenGates()
	v.checkDiamondEdges()
	v.checkStatusEnum()
	v.checkHandlerContract()
	v.checkCycles()
	v.checkPromiseID()
	v.checkEdgeConditions()
	return v.issues
}

// ValidateFile parses and validates a pipeline file. Only file access
// fails; semantic problems come back as issues.
func ValidateFile(path string, strict bool) ([]Issue, error) {
	g, err := dot.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Validate(g, strict), nil
}

// HasErrors reports whether any issue is error-level.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Level == LevelError {
			return true
		}
	}
	return false
}

type validator struct {
	g      *dot.Graph
	strict bool
	issues []Issue
}

func (v *validator) add(level Level, rule int, node, format string, args ...any) {
	v.issues = append(v.issues, Issue{
		Level:   level,
		Rule:    rule,
		Message: fmt.Sprintf(format, args...),
		Node:    node,
	})
}

// Rule 1: exactly one start node (shape=Mdiamond) and one exit node
// (shape=Msquare).
func (v *validator) checkStartExit() {
	starts := v.g.StartNodes()
	exits := v.g.ExitNodes()
	if len(starts) != 1 {
		v.add(LevelError, RuleStartExit, "",
			"pipeline must have exactly one start node (shape=Mdiamond), found %d", len(starts))
	}
	if len(exits) != 1 {
		v.add(LevelError, RuleStartExit, "",
			"pipeline must have exactly one exit node (shape=Msquare), found %d", len(exits))
	}
}

// Rule 2: every node reachable from the start node. Skipped when there is
// no unique start (rule 1 already fired).
func (v *validator) checkReachability() {
	starts := v.g.StartNodes()
	if len(starts) != 1 {
		return
	}
	reachable := graphalg.Reachable(v.g, starts[0].ID)
	for _, n := range v.g.Nodes {
		if !reachable[n.ID] {
			v.add(LevelError, RuleReachability, n.ID,
				"node %q is not reachable from start node %q", n.ID, starts[0].ID)
		}
	}
}

// Rule 3: when the graph has more than one node, every node has at least
// one incident edge.
func (v *validator) checkOrphans() {
	if len(v.g.Nodes) <= 1 {
		return
	}
	incident := make(map[string]bool)
	for _, e := range v.g.Edges {
		incident[e.Src] = true
		incident[e.Dst] = true
	}
	for _, n := range v.g.Nodes {
		if !incident[n.ID] {
			v.add(LevelError, RuleOrphans, n.ID, "node %q has no incident edges", n.ID)
		}
	}
}

// Rule 4: every edge endpoint references a declared node.
func (v *validator) checkEdgeEndpoints() {
	for _, e := range v.g.Edges {
		if !v.g.HasNode(e.Src) {
			v.add(LevelError, RuleEdgeEndpoints, e.Src,
				"edge %s -> %s references undeclared node %q", e.Src, e.Dst, e.Src)
		}
		if !v.g.HasNode(e.Dst) {
			v.add(LevelError, RuleEdgeEndpoints, e.Dst,
				"edge %s -> %s references undeclared node %q", e.Src, e.Dst, e.Dst)
		}
	}
}

// Rule 5: every codergen node has at least one wait.human descendant
// strictly downstream of itself. Warning by default, error in strict mode.
func (v *validator) checkCodergenGates() {
	level := LevelWarning
	if v.strict {
		level = LevelError
	}
	for _, n := range v.g.Nodes {
		if n.Handler() != dot.HandlerCodergen {
			continue
		}
		reachable := graphalg.Reachable(v.g, n.ID)
		gated := false
		for id := range reachable {
			if id == n.ID {
				continue // strictly downstream
			}
			if d := v.g.FindNode(id); d != nil && d.Handler() == dot.HandlerWaitHuman {
				gated = true
				break
			}
		}
		if !gated {
			v.add(level, RuleCodergenGate, n.ID,
				"codergen node %q has no downstream wait.human gate", n.ID)
		}
	}
}

// Rule 6: every conditional/diamond node has exactly two outbound edges
// whose conditions are exactly {pass, fail}.
func (v *validator) checkDiamondEdges() {
	for _, n := range v.g.Nodes {
		if n.Handler() != dot.HandlerConditional && n.Shape() != dot.ShapeDiamond {
			continue
		}
		out := v.g.OutEdges(n.ID)
		if len(out) != 2 {
			v.add(LevelError, RuleDiamondEdges, n.ID,
				"conditional node %q must have exactly 2 outbound edges, found %d", n.ID, len(out))
			continue
		}
		conds := map[dot.Condition]int{}
		for _, e := range out {
			conds[e.Condition()]++
		}
		if conds[dot.ConditionPass] != 1 || conds[dot.ConditionFail] != 1 {
			v.add(LevelError, RuleDiamondEdges, n.ID,
				"conditional node %q outbound edges must be exactly one pass and one fail", n.ID)
		}
	}
}

// Rule 7: node status values are from the known enum.
func (v *validator) checkStatusEnum() {
	for _, n := range v.g.Nodes {
		raw, ok := n.Attrs.Lookup(dot.KeyStatus)
		if !ok {
			continue
		}
		if !dot.Status(raw).IsValid() {
			v.add(LevelError, RuleStatusEnum, n.ID,
				"node %q has invalid status %q (valid: %s)", n.ID, raw, joinStatuses())
		}
	}
}

// Rule 8: handler enum, required attributes per handler, handler/shape
// consistency, and enum warnings for worker_type, gate, and mode.
func (v *validator) checkHandlerContract() {
	for _, n := range v.g.Nodes {
		if raw, ok := n.Attrs.Lookup(dot.KeyHandler); ok && !dot.Handler(raw).IsValid() {
			v.add(LevelError, RuleHandlerContract, n.ID,
				"node %q has invalid handler %q (valid: %s)", n.ID, raw, joinHandlers())
			continue
		}

		h := n.Handler()
		for _, key := range requiredAttrs[h] {
			if _, ok := n.Attrs.Lookup(key); !ok {
				v.add(LevelError, RuleHandlerContract, n.ID,
					"%s node %q is missing required attribute %q", h, n.ID, key)
			}
		}

		if shape, ok := n.Attrs.Lookup(dot.KeyShape); ok {
			if want := expectedShape[h]; want != "" && dot.Shape(shape) != want {
				v.add(LevelError, RuleHandlerContract, n.ID,
					"%s node %q has shape %q, expected %q", h, n.ID, shape, want)
			}
		}

		if raw, ok := n.Attrs.Lookup(dot.KeyWorkerType); ok && !dot.WorkerType(raw).IsValid() {
			v.add(LevelWarning, RuleHandlerContract, n.ID,
				"node %q has unknown worker_type %q", n.ID, raw)
		}
		if raw, ok := n.Attrs.Lookup(dot.KeyGate); ok && !dot.GateKind(raw).IsValid() {
			v.add(LevelWarning, RuleHandlerContract, n.ID,
				"node %q has unknown gate %q (valid: technical, business)", n.ID, raw)
		}
		if raw, ok := n.Attrs.Lookup(dot.KeyMode); ok && !dot.Mode(raw).IsValid() {
			v.add(LevelWarning, RuleHandlerContract, n.ID,
				"node %q has unknown mode %q (valid: fan_out, fan_in)", n.ID, raw)
		}
	}
}

// Rule 9: no cycles other than guarded back-edges.
func (v *validator) checkCycles() {
	for _, cycle := range graphalg.FindUnguardedCycles(v.g) {
		v.add(LevelError, RuleNoUnguardedCycle, cycle[0],
			"unguarded cycle: %s", strings.Join(cycle, " -> "))
	}
}

// Rule 10: any node carrying promise_ac requires a graph-level promise_id.
func (v *validator) checkPromiseID() {
	if _, ok := v.g.GraphAttrs.Lookup(dot.KeyPromiseID); ok {
		return
	}
	for _, n := range v.g.Nodes {
		if _, ok := n.Attrs.Lookup(dot.KeyPromiseAC); ok {
			v.add(LevelError, RulePromiseID, n.ID,
				"node %q declares promise_ac but the graph has no promise_id", n.ID)
		}
	}
}

// Rule 11: edge conditions are from the known enum (or absent).
func (v *validator) checkEdgeConditions() {
	for _, e := range v.g.Edges {
		raw, ok := e.Attrs.Lookup(dot.KeyCondition)
		if !ok || raw == "" {
			continue
		}
		if !dot.Condition(raw).IsValid() {
			v.add(LevelError, RuleEdgeCondition, e.Src,
				"edge %s -> %s has invalid condition %q (valid: pass, fail, partial)",
				e.Src, e.Dst, raw)
		}
	}
}

func joinStatuses() string {
	parts := make([]string, len(dot.ValidStatuses))
	for i, s := range dot.ValidStatuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func joinHandlers() string {
	parts := make([]string, len(dot.ValidHandlers))
	for i, h := range dot.ValidHandlers {
		parts[i] = string(h)
	}
	return strings.Join(parts, ", ")
}
