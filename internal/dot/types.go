// Package dot implements the Attractor pipeline document format, a
// constrained DOT subset describing multi-stage, multi-agent code-generation
// workflows.
//
// A pipeline looks like:
//
//	digraph "PRD-123" {
//	  graph [prd_ref="PRD-123", promise_id="pr-9"];
//	  parse_input [shape=Mdiamond, label="PARSE"];
//	  impl_login  [shape=box, handler="codergen", worker_type="backend"];
//	  finalize    [shape=Msquare, label="FINALIZE"];
//	  parse_input -> impl_login;
//	  impl_login -> finalize;
//	}
//
// The parser is deliberately tolerant: malformed input degrades to partial
// or empty results and never returns an error. Well-formedness is the
// schema validator's job, not the parser's.
package dot

import "fmt"

// Handler is a node's execution role. It determines the node's required
// attributes and its expected shape.
type Handler string

const (
	HandlerStart       Handler = "start"
	HandlerExit        Handler = "exit"
	HandlerCodergen    Handler = "codergen"
	HandlerTool        Handler = "tool"
	HandlerWaitHuman   Handler = "wait.human"
	HandlerConditional Handler = "conditional"
	HandlerParallel    Handler = "parallel"
)

// ValidHandlers lists the recognized handler values, for error messages.
var ValidHandlers = []Handler{
	HandlerStart, HandlerExit, HandlerCodergen, HandlerTool,
	HandlerWaitHuman, HandlerConditional, HandlerParallel,
}

// IsValid checks if the handler is recognized.
func (h Handler) IsValid() bool {
	switch h {
	case HandlerStart, HandlerExit, HandlerCodergen, HandlerTool,
		HandlerWaitHuman, HandlerConditional, HandlerParallel:
		return true
	}
	return false
}

// Status is a node's lifecycle state.
type Status string

const (
	StatusPending      Status = "pending"
	StatusActive       Status = "active"
	StatusImplComplete Status = "impl_complete"
	StatusValidated    Status = "validated"
	StatusFailed       Status = "failed"
)

// ValidStatuses lists the recognized status values, for error messages.
var ValidStatuses = []Status{
	StatusPending, StatusActive, StatusImplComplete, StatusValidated, StatusFailed,
}

// IsValid checks if the status is recognized.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusImplComplete, StatusValidated, StatusFailed:
		return true
	}
	return false
}

// Shape is a node's DOT shape. Shapes double as handler hints: a node
// without an explicit handler attribute gets one inferred from its shape.
type Shape string

const (
	ShapeMdiamond      Shape = "Mdiamond"      // start
	ShapeMsquare       Shape = "Msquare"       // exit
	ShapeBox           Shape = "box"           // codergen
	ShapeHexagon       Shape = "hexagon"       // wait.human
	ShapeDiamond       Shape = "diamond"       // conditional
	ShapeParallelogram Shape = "parallelogram" // tool
)

// ValidShapes lists the recognized shape values.
var ValidShapes = []Shape{
	ShapeMdiamond, ShapeMsquare, ShapeBox, ShapeHexagon, ShapeDiamond, ShapeParallelogram,
}

// IsValid checks if the shape is recognized.
func (s Shape) IsValid() bool {
	switch s {
	case ShapeMdiamond, ShapeMsquare, ShapeBox, ShapeHexagon, ShapeDiamond, ShapeParallelogram:
		return true
	}
	return false
}

// Condition is an edge's branch condition, used on outbound edges of
// conditional nodes.
type Condition string

const (
	ConditionPass    Condition = "pass"
	ConditionFail    Condition = "fail"
	ConditionPartial Condition = "partial"
)

// ValidConditions lists the recognized edge conditions.
var ValidConditions = []Condition{ConditionPass, ConditionFail, ConditionPartial}

// IsValid checks if the condition is recognized. The empty condition is
// legal on an edge but not a valid Condition value.
func (c Condition) IsValid() bool {
	switch c {
	case ConditionPass, ConditionFail, ConditionPartial:
		return true
	}
	return false
}

// WorkerType categorizes a codergen node's work for agent routing.
type WorkerType string

const (
	WorkerBackend      WorkerType = "backend"
	WorkerFrontend     WorkerType = "frontend"
	WorkerTest         WorkerType = "test"
	WorkerArchitecture WorkerType = "architecture"
)

// ValidWorkerTypes lists the recognized worker types, in tie-break
// priority order for keyword inference.
var ValidWorkerTypes = []WorkerType{WorkerBackend, WorkerFrontend, WorkerTest, WorkerArchitecture}

// IsValid checks if the worker type is recognized.
func (w WorkerType) IsValid() bool {
	switch w {
	case WorkerBackend, WorkerFrontend, WorkerTest, WorkerArchitecture:
		return true
	}
	return false
}

// GateKind is the sign-off category of a wait.human gate node.
type GateKind string

const (
	GateTechnical GateKind = "technical"
	GateBusiness  GateKind = "business"
)

// ValidGateKinds lists the recognized gate kinds.
var ValidGateKinds = []GateKind{GateTechnical, GateBusiness}

// IsValid checks if the gate kind is recognized.
func (g GateKind) IsValid() bool {
	return g == GateTechnical || g == GateBusiness
}

// Mode is a parallel node's fan role.
type Mode string

const (
	ModeFanOut Mode = "fan_out"
	ModeFanIn  Mode = "fan_in"
)

// ValidModes lists the recognized parallel modes.
var ValidModes = []Mode{ModeFanOut, ModeFanIn}

// IsValid checks if the mode is recognized.
func (m Mode) IsValid() bool {
	return m == ModeFanOut || m == ModeFanIn
}

// Well-known attribute keys. The attribute space is open-ended; these are
// the keys the engine itself understands.
const (
	KeyShape          = "shape"
	KeyHandler        = "handler"
	KeyStatus         = "status"
	KeyLabel          = "label"
	KeyBeadID         = "bead_id"
	KeyWorkerType     = "worker_type"
	KeyPromiseAC      = "promise_ac"
	KeyGate           = "gate"
	KeyMode           = "mode"
	KeyCommand        = "command"
	KeyFilePath       = "file_path"
	KeyDeltaStatus    = "delta_status"
	KeyInterfaces     = "interfaces"
	KeyChangeSummary  = "change_summary"
	KeySolutionDesign = "solution_design"
	KeyPRDRef         = "prd_ref"
	KeyPromiseID      = "promise_id"
	KeyTargetDir      = "target_dir"
	KeyCondition      = "condition"
)

// Node is a single pipeline stage.
type Node struct {
	ID    string
	Attrs *Attrs
}

// NewNode creates a node with an empty attribute map.
func NewNode(id string) *Node {
	return &Node{ID: id, Attrs: NewAttrs()}
}

// Attr returns the raw attribute value for key, or "" if absent.
func (n *Node) Attr(key string) string {
	return n.Attrs.Get(key)
}

// SetAttr sets an attribute, preserving first-insertion key order.
func (n *Node) SetAttr(key, value string) {
	n.Attrs.Set(key, value)
}

// Shape returns the node's declared shape (possibly empty or unrecognized).
func (n *Node) Shape() Shape {
	return Shape(n.Attr(KeyShape))
}

// Handler returns the node's execution role. An explicit handler attribute
// wins; otherwise the role is inferred from the shape. Box and unknown
// shapes default to codergen, the workhorse role.
func (n *Node) Handler() Handler {
	if h := n.Attr(KeyHandler); h != "" {
		return Handler(h)
	}
	switch n.Shape() {
	case ShapeMdiamond:
		return HandlerStart
	case ShapeMsquare:
		return HandlerExit
	case ShapeHexagon:
		return HandlerWaitHuman
	case ShapeDiamond:
		return HandlerConditional
	case ShapeParallelogram:
		return HandlerTool
	default:
		return HandlerCodergen
	}
}

// Status returns the node's lifecycle status, defaulting to pending when
// the attribute is absent.
func (n *Node) Status() Status {
	if s := n.Attr(KeyStatus); s != "" {
		return Status(s)
	}
	return StatusPending
}

// Label returns the node's display label, falling back to its id.
func (n *Node) Label() string {
	if l := n.Attr(KeyLabel); l != "" {
		return l
	}
	return n.ID
}

// Edge is a directed dependency between two stages. Parallel edges between
// the same pair are legal when distinguished by attributes.
type Edge struct {
	Src   string
	Dst   string
	Attrs *Attrs
}

// NewEdge creates an edge with an empty attribute map.
func NewEdge(src, dst string) *Edge {
	return &Edge{Src: src, Dst: dst, Attrs: NewAttrs()}
}

// Attr returns the raw attribute value for key, or "" if absent.
func (e *Edge) Attr(key string) string {
	return e.Attrs.Get(key)
}

// Condition returns the edge's branch condition ("" when unconditional).
func (e *Edge) Condition() Condition {
	return Condition(e.Attr(KeyCondition))
}

// Label returns the edge's display label.
func (e *Edge) Label() string {
	return e.Attr(KeyLabel)
}

// Graph is a parsed pipeline document. It is ephemeral: the pipeline text
// file is the sole source of truth, and a Graph is reconstructed by
// parsing on every read.
type Graph struct {
	// Name is the digraph name.
	Name string

	// GraphAttrs holds graph-level attributes (prd_ref, promise_id, ...).
	GraphAttrs *Attrs

	// Nodes are the declared nodes, in first-declaration order, unique by id.
	Nodes []*Node

	// Edges are the declared edges in first-seen order. Exact duplicates
	// are collapsed; attribute-distinguished parallel edges are kept.
	Edges []*Edge

	// NodeDefaults and EdgeDefaults hold `node [...]` / `edge [...]`
	// default-attribute blocks.
	NodeDefaults *Attrs
	EdgeDefaults *Attrs
}

// NewGraph creates an empty graph.
func NewGraph(name string) *Graph {
	return &Graph{
		Name:         name,
		GraphAttrs:   NewAttrs(),
		NodeDefaults: NewAttrs(),
		EdgeDefaults: NewAttrs(),
	}
}

// FindNode returns the node with the given id, or nil.
func (g *Graph) FindNode(id string) *Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// HasNode reports whether a node with the given id is declared.
func (g *Graph) HasNode(id string) bool {
	return g.FindNode(id) != nil
}

// OutEdges returns the edges leaving the given node, in document order.
func (g *Graph) OutEdges(id string) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Src == id {
			out = append(out, e)
		}
	}
	return out
}

// InEdges returns the edges entering the given node, in document order.
func (g *Graph) InEdges(id string) []*Edge {
	var in []*Edge
	for _, e := range g.Edges {
		if e.Dst == id {
			in = append(in, e)
		}
	}
	return in
}

// NodesByStatus groups nodes by lifecycle status, for progress summaries.
func (g *Graph) NodesByStatus() map[Status][]*Node {
	out := make(map[Status][]*Node)
	for _, n := range g.Nodes {
		out[n.Status()] = append(out[n.Status()], n)
	}
	return out
}

// NodesByHandler groups nodes by execution role.
func (g *Graph) NodesByHandler() map[Handler][]*Node {
	out := make(map[Handler][]*Node)
	for _, n := range g.Nodes {
		out[n.Handler()] = append(out[n.Handler()], n)
	}
	return out
}

// StartNodes returns all nodes whose shape is Mdiamond. A valid pipeline
// has exactly one; the validator reports any other count.
func (g *Graph) StartNodes() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Shape() == ShapeMdiamond {
			out = append(out, n)
		}
	}
	return out
}

// ExitNodes returns all nodes whose shape is Msquare.
func (g *Graph) ExitNodes() []*Node {
	var out []*Node
	for _, n := range g.Nodes {
		if n.Shape() == ShapeMsquare {
			out = append(out, n)
		}
	}
	return out
}

// statusTransitions is the legal node-status state machine. Entry to
// validated is the transition external indexers care about; see
// TransitionHook.
var statusTransitions = map[Status][]Status{
	StatusPending:      {StatusActive, StatusFailed},
	StatusActive:       {StatusImplComplete, StatusFailed},
	StatusImplComplete: {StatusValidated, StatusFailed},
	StatusValidated:    {},
	StatusFailed:       {StatusPending},
}

// CanTransition reports whether moving a node from one status to another
// is legal.
func CanTransition(from, to Status) bool {
	for _, t := range statusTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// TransitionHook observes a node entering a new status. The engine never
// invokes hooks itself; embedders (e.g. the codebase indexer that reacts
// to validated) register one and drive transitions through Transition.
type TransitionHook func(node *Node, from, to Status)

// Transition moves a node to a new status, enforcing the transition table
// and firing hook (if non-nil) after the attribute is updated.
func Transition(n *Node, to Status, hook TransitionHook) error {
	from := n.Status()
	if !CanTransition(from, to) {
		return fmt.Errorf("illegal status transition %s -> %s for node %s", from, to, n.ID)
	}
	n.SetAttr(KeyStatus, string(to))
	if hook != nil {
		hook(n, from, to)
	}
	return nil
}
