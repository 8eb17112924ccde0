// Package graphalg implements the traversal primitives shared by the
// schema validator and the edge mutation engine: BFS reachability and
// cycle detection with the guarded-back-edge exemption.
//
// A cycle is permitted only when it passes through a guarded back-edge: a
// condition="fail" edge whose source is a conditional (diamond) node. That
// is the canonical retry loop a decision node wires back to its codergen
// stage. Every other cycle is a defect.
package graphalg

import (
	"strings"

	"github.com/steveyegge/attractor/internal/dot"
)

// Reachable returns the set of node ids reachable from start by following
// src->dst edges, start included (when it exists in the graph).
func Reachable(g *dot.Graph, start string) map[string]bool {
	adj := adjacency(g, nil)
	visited := make(map[string]bool)
	if !g.HasNode(start) {
		return visited
	}
	queue := []string{start}
	visited[start] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}

// IsGuardedBackEdge reports whether the edge is exempt from the cycle
// prohibition: its source is a conditional/diamond node and its condition
// is fail.
func IsGuardedBackEdge(g *dot.Graph, e *dot.Edge) bool {
	if e.Condition() != dot.ConditionFail {
		return false
	}
	src := g.FindNode(e.Src)
	if src == nil {
		return false
	}
	return src.Handler() == dot.HandlerConditional || src.Shape() == dot.ShapeDiamond
}

// GuardedBackEdges returns every guarded back-edge in the graph.
func GuardedBackEdges(g *dot.Graph) []*dot.Edge {
	var out []*dot.Edge
	for _, e := range g.Edges {
		if IsGuardedBackEdge(g, e) {
			out = append(out, e)
		}
	}
	return out
}

// FindCycles detects cycles with a three-color DFS from every unvisited
// node, over an adjacency list that omits allowedBackEdges. Each cycle is
// reconstructed from the DFS path and reported once, deduplicated by its
// a->b->...->a signature.
func FindCycles(g *dot.Graph, allowedBackEdges []*dot.Edge) [][]string {
	skip := make(map[*dot.Edge]bool, len(allowedBackEdges))
	for _, e := range allowedBackEdges {
		skip[e] = true
	}
	adj := adjacency(g, skip)

	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int)

	var cycles [][]string
	seen := make(map[string]bool)
	var path []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		path = append(path, id)
		for _, next := range adj[id] {
			switch color[next] {
			case white:
				visit(next)
			case gray:
				// Back-edge into the current path: the cycle runs from
				// next through the path tail, closing back at next.
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), next)
				sig := strings.Join(cycle, "->")
				if !seen[sig] {
					seen[sig] = true
					cycles = append(cycles, cycle)
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
	}

	for _, n := range g.Nodes {
		if color[n.ID] == white {
			visit(n.ID)
		}
	}
	return cycles
}

// FindUnguardedCycles is FindCycles with the graph's own guarded
// back-edges excluded; a non-empty result means the graph violates the
// cycle rule.
func FindUnguardedCycles(g *dot.Graph) [][]string {
	return FindCycles(g, GuardedBackEdges(g))
}

// WouldCreateUnguardedCycle reports whether adding src->dst with the
// proposed condition would close an unguarded cycle. A candidate that is
// itself a guarded back-edge never can.
func WouldCreateUnguardedCycle(g *dot.Graph, src, dst string, condition dot.Condition) bool {
	candidate := dot.NewEdge(src, dst)
	if condition != "" {
		candidate.Attrs.Set(dot.KeyCondition, string(condition))
	}
	if IsGuardedBackEdge(g, candidate) {
		return false
	}

	probe := &dot.Graph{
		Name:         g.Name,
		GraphAttrs:   g.GraphAttrs,
		Nodes:        g.Nodes,
		Edges:        append(append([]*dot.Edge{}, g.Edges...), candidate),
		NodeDefaults: g.NodeDefaults,
		EdgeDefaults: g.EdgeDefaults,
	}
	return len(FindCycles(probe, GuardedBackEdges(probe))) > 0
}

// adjacency builds the src->dst adjacency list, omitting edges in skip
// and edges whose endpoints are undeclared.
func adjacency(g *dot.Graph, skip map[*dot.Edge]bool) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range g.Edges {
		if skip[e] {
			continue
		}
		adj[e.Src] = append(adj[e.Src], e.Dst)
	}
	return adj
}
