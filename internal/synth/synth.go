// Package synth builds complete, schema-valid pipeline documents from a
// list of work items. Every synthesized pipeline carries the same 5-stage
// skeleton (PARSE, VALIDATE, INITIALIZE, an EXECUTE region, FINALIZE);
// the EXECUTE region is shaped by the task count: a parallel fan-out/
// fan-in for 2+ tasks, a direct chain for 1, and an unassigned
// placeholder for 0.
//
// Synthesized output always validates with zero error-level issues; that
// property is pinned by tests.
package synth

import (
	"fmt"
	"strings"

	"github.com/steveyegge/attractor/internal/dot"
)

// Task is one work item from the upstream enrichment step.
type Task struct {
	// ID is the task's external identifier (e.g. a tracker key).
	ID string `yaml:"id"`

	// Title names the work; node ids are derived from it.
	Title string `yaml:"title"`

	// FilePath is the primary file the task touches.
	FilePath string `yaml:"file_path"`

	// DeltaStatus describes the kind of change (added, modified, ...).
	DeltaStatus string `yaml:"delta_status"`

	// Interfaces lists interface names the task defines or alters.
	Interfaces []string `yaml:"interfaces"`

	// ChangeSummary is a one-line description of the change.
	ChangeSummary string `yaml:"change_summary"`

	// WorkerType routes the task to an agent category. Empty means
	// infer it from keywords in the title, summary, and file path.
	WorkerType string `yaml:"worker_type"`

	// BeadID cross-references the external issue-tracking record.
	BeadID string `yaml:"bead_id"`

	// PromiseAC carries the task's acceptance criteria, emitted only
	// when the request declares a promise id.
	PromiseAC string `yaml:"promise_ac"`
}

// Request carries the identifying metadata for a synthesized pipeline.
type Request struct {
	PRDRef         string
	Tasks          []Task
	Label          string
	PromiseID      string
	TargetDir      string
	SolutionDesign string
}

// Skeleton node ids, fixed across every synthesized pipeline.
const (
	nodeStart       = "parse_input"
	nodeValidate    = "validate_prd"
	nodeInit        = "init_env"
	nodeFinalize    = "finalize"
	nodeFanOut      = "parallel_start"
	nodeJoin        = "join_validation"
	nodePlaceholder = "impl_placeholder"
)

// Synthesize builds a complete pipeline document for the request.
func Synthesize(req Request) string {
	b := newBuilder(req)
	b.emitSkeletonNodes()

	switch len(req.Tasks) {
	case 0:
		b.emitPlaceholder()
	case 1:
		b.emitSingleTask()
	default:
		b.emitParallelTasks()
	}

	return b.render()
}

// Scaffold builds the reduced skeleton-only variant: VALIDATE and
// INITIALIZE wired straight through to FINALIZE, no execute region.
func Scaffold(req Request) string {
	b := newBuilder(req)
	b.emitSkeletonNodes()
	b.edge(nodeInit, nodeFinalize, nil)
	return b.render()
}

type builder struct {
	req   req
	nodes []string
	edges []string
	used  map[string]bool
}

// req is Request with derived fields resolved.
type req struct {
	Request
	name  string
	label string
}

func newBuilder(r Request) *builder {
	name := r.PRDRef
	if name == "" {
		name = "attractor_pipeline"
	}
	label := r.Label
	if label == "" {
		label = "Attractor Pipeline: " + name
	}
	return &builder{
		req:  req{Request: r, name: name, label: label},
		used: map[string]bool{},
	}
}

// node emits a node declaration. Attribute order follows the kv pairs.
func (b *builder) node(id string, kvs ...string) {
	b.used[id] = true
	n := dot.NewNode(id)
	for i := 0; i+1 < len(kvs); i += 2 {
		if kvs[i+1] != "" {
			n.SetAttr(kvs[i], kvs[i+1])
		}
	}
	b.nodes = append(b.nodes, "  "+dot.FormatNode(n))
}

func (b *builder) edge(src, dst string, kvs []string) {
	e := dot.NewEdge(src, dst)
	for i := 0; i+1 < len(kvs); i += 2 {
		if kvs[i+1] != "" {
			e.Attrs.Set(kvs[i], kvs[i+1])
		}
	}
	b.edges = append(b.edges, "  "+dot.FormatEdge(e))
}

func (b *builder) emitSkeletonNodes() {
	b.node(nodeStart,
		dot.KeyShape, string(dot.ShapeMdiamond),
		dot.KeyHandler, string(dot.HandlerStart),
		dot.KeyLabel, "PARSE",
		dot.KeyStatus, string(dot.StatusPending))
	b.node(nodeValidate,
		dot.KeyShape, string(dot.ShapeParallelogram),
		dot.KeyHandler, string(dot.HandlerTool),
		dot.KeyLabel, "VALIDATE",
		dot.KeyCommand, "attractor validate",
		dot.KeyStatus, string(dot.StatusPending))
	b.node(nodeInit,
		dot.KeyShape, string(dot.ShapeParallelogram),
		dot.KeyHandler, string(dot.HandlerTool),
		dot.KeyLabel, "INITIALIZE",
		dot.KeyCommand, "init_workspace",
		dot.KeyStatus, string(dot.StatusPending))
	b.node(nodeFinalize,
		dot.KeyShape, string(dot.ShapeMsquare),
		dot.KeyHandler, string(dot.HandlerExit),
		dot.KeyLabel, "FINALIZE",
		dot.KeyStatus, string(dot.StatusPending))

	b.edge(nodeStart, nodeValidate, nil)
	b.edge(nodeValidate, nodeInit, nil)
}

// emitPlaceholder handles the zero-task pipeline: one unassigned codergen
// node between INITIALIZE and FINALIZE.
func (b *builder) emitPlaceholder() {
	b.node(nodePlaceholder,
		dot.KeyShape, string(dot.ShapeBox),
		dot.KeyHandler, string(dot.HandlerCodergen),
		dot.KeyLabel, "Unassigned Task",
		dot.KeyStatus, string(dot.StatusPending),
		dot.KeyWorkerType, string(dot.WorkerBackend),
		dot.KeyBeadID, "UNASSIGNED")
	b.edge(nodeInit, nodePlaceholder, nil)
	b.edge(nodePlaceholder, nodeFinalize, nil)
}

// emitSingleTask wires one chain directly: the decision's pass edge goes
// straight to FINALIZE.
func (b *builder) emitSingleTask() {
	c := b.emitTaskChain(b.req.Tasks[0])
	b.edge(nodeInit, c.impl, nil)
	b.passFail(c, nodeFinalize)
}

// emitParallelTasks fans 2+ chains out of a parallel node and joins every
// decision's pass edge at a fan-in before FINALIZE.
func (b *builder) emitParallelTasks() {
	b.node(nodeFanOut,
		dot.KeyShape, string(dot.ShapeBox),
		dot.KeyHandler, string(dot.HandlerParallel),
		dot.KeyLabel, "Parallel Execution",
		dot.KeyMode, string(dot.ModeFanOut),
		dot.KeyStatus, string(dot.StatusPending))
	b.node(nodeJoin,
		dot.KeyShape, string(dot.ShapeBox),
		dot.KeyHandler, string(dot.HandlerParallel),
		dot.KeyLabel, "Join Validation",
		dot.KeyMode, string(dot.ModeFanIn),
		dot.KeyStatus, string(dot.StatusPending))

	b.edge(nodeInit, nodeFanOut, nil)
	for _, t := range b.req.Tasks {
		c := b.emitTaskChain(t)
		b.edge(nodeFanOut, c.impl, nil)
		b.passFail(c, nodeJoin)
	}
	b.edge(nodeJoin, nodeFinalize, nil)
}

// chain holds the node ids of one task's stage chain.
type chain struct {
	impl, gateTech, gateBiz, decide string
}

// emitTaskChain emits codergen -> technical gate -> business gate ->
// decision for one task, leaving the decision's outbound edges to the
// caller (their pass target differs by composition).
func (b *builder) emitTaskChain(t Task) chain {
	base := b.taskBase(t)
	c := chain{
		impl:     "impl_" + base,
		gateTech: "gate_tech_" + base,
		gateBiz:  "gate_biz_" + base,
		decide:   "decide_" + base,
	}

	worker := t.WorkerType
	if worker == "" {
		worker = string(InferWorkerType(t))
	}
	promiseAC := ""
	if b.req.PromiseID != "" {
		promiseAC = t.PromiseAC
	}

	b.node(c.impl,
		dot.KeyShape, string(dot.ShapeBox),
		dot.KeyHandler, string(dot.HandlerCodergen),
		dot.KeyLabel, t.Title,
		dot.KeyStatus, string(dot.StatusPending),
		dot.KeyWorkerType, worker,
		dot.KeyBeadID, t.BeadID,
		dot.KeyFilePath, t.FilePath,
		dot.KeyDeltaStatus, t.DeltaStatus,
		dot.KeyInterfaces, strings.Join(t.Interfaces, ","),
		dot.KeyChangeSummary, t.ChangeSummary,
		dot.KeyPromiseAC, promiseAC)
	b.node(c.gateTech,
		dot.KeyShape, string(dot.ShapeHexagon),
		dot.KeyHandler, string(dot.HandlerWaitHuman),
		dot.KeyGate, string(dot.GateTechnical),
		dot.KeyLabel, "Technical Review: "+t.Title,
		dot.KeyStatus, string(dot.StatusPending))
	b.node(c.gateBiz,
		dot.KeyShape, string(dot.ShapeHexagon),
		dot.KeyHandler, string(dot.HandlerWaitHuman),
		dot.KeyGate, string(dot.GateBusiness),
		dot.KeyLabel, "Business Review: "+t.Title,
		dot.KeyStatus, string(dot.StatusPending))
	b.node(c.decide,
		dot.KeyShape, string(dot.ShapeDiamond),
		dot.KeyHandler, string(dot.HandlerConditional),
		dot.KeyLabel, "Decision: "+t.Title,
		dot.KeyStatus, string(dot.StatusPending))

	b.edge(c.impl, c.gateTech, nil)
	b.edge(c.gateTech, c.gateBiz, nil)
	b.edge(c.gateBiz, c.decide, nil)
	return c
}

// passFail emits the decision's two outbound edges: pass forward to the
// target, fail back to the codergen node. The fail edge is the canonical
// guarded back-edge.
func (b *builder) passFail(c chain, passTarget string) {
	b.edge(c.decide, passTarget, []string{
		dot.KeyCondition, string(dot.ConditionPass),
		"color", "green",
	})
	b.edge(c.decide, c.impl, []string{
		dot.KeyCondition, string(dot.ConditionFail),
		"color", "red",
		"style", "dashed",
	})
}

// taskBase derives a stable node-id base from the task title, appending a
// suffix from the task's external id (or a counter) on collision.
func (b *builder) taskBase(t Task) string {
	base := slugify(t.Title)
	if base == "" {
		base = "task"
	}
	if !b.used["impl_"+base] {
		return base
	}
	if suffix := slugify(t.ID); suffix != "" && !b.used["impl_"+base+"_"+suffix] {
		return base + "_" + suffix
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if !b.used["impl_"+candidate] {
			return candidate
		}
	}
}

// slugify lowercases and squashes a title into an identifier-safe token.
func slugify(s string) string {
	var b strings.Builder
	lastUnderscore := true // trim leading underscores
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "_")
	if len(out) > 40 {
		out = strings.Trim(out[:40], "_")
	}
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "t_" + out
	}
	return out
}

// render assembles the final document.
func (b *builder) render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph \"%s\" {\n", dot.EscapeValue(b.req.name))

	ga := dot.NewAttrs()
	ga.Set(dot.KeyPRDRef, b.req.PRDRef)
	ga.Set(dot.KeyLabel, b.req.label)
	if b.req.PromiseID != "" {
		ga.Set(dot.KeyPromiseID, b.req.PromiseID)
	}
	if b.req.TargetDir != "" {
		ga.Set(dot.KeyTargetDir, b.req.TargetDir)
	}
	if b.req.SolutionDesign != "" {
		ga.Set(dot.KeySolutionDesign, b.req.SolutionDesign)
	}
	fmt.Fprintf(&sb, "  graph %s;\n\n", dot.FormatAttrs(ga))

	for _, n := range b.nodes {
		sb.WriteString(n)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	for _, e := range b.edges {
		sb.WriteString(e)
		sb.WriteByte('\n')
	}
	sb.WriteString("}\n")
	return sb.String()
}
