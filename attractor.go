// Package attractor provides a minimal public API for embedding the
// pipeline graph engine: parsing pipeline documents, validating them,
// mutating edges, and synthesizing new pipelines from task lists.
//
// The CLI in cmd/attractor is a thin wrapper over these entry points.
package attractor

import (
	"github.com/steveyegge/attractor/internal/dot"
	"github.com/steveyegge/attractor/internal/mutate"
	"github.com/steveyegge/attractor/internal/schema"
	"github.com/steveyegge/attractor/internal/synth"
)

// Core document types
type (
	Graph = dot.Graph
	Node  = dot.Node
	Edge  = dot.Edge
	Attrs = dot.Attrs
)

// Validation types
type (
	Issue = schema.Issue
	Level = schema.Level
)

// Mutation types
type (
	Editor     = mutate.Editor
	AddOptions = mutate.AddOptions
)

// Synthesis types
type (
	Task    = synth.Task
	Request = synth.Request
)

// Severity levels
const (
	LevelError   = schema.LevelError
	LevelWarning = schema.LevelWarning
)

// Parse parses a pipeline document; it never fails on malformed input.
var Parse = dot.Parse

// ParseFile reads and parses a pipeline file.
var ParseFile = dot.ParseFile

// Validate applies every schema rule and returns the full issue set.
var Validate = schema.Validate

// ValidateFile parses and validates a pipeline file.
var ValidateFile = schema.ValidateFile

// AddEdge and RemoveEdge are the pure text transforms behind Editor.
var (
	AddEdge    = mutate.AddEdge
	RemoveEdge = mutate.RemoveEdge
)

// NewEditor creates a file-facing editor with the default lock strategy.
var NewEditor = mutate.NewEditor

// Synthesize builds a complete pipeline document from a task list.
var Synthesize = synth.Synthesize

// Scaffold builds the skeleton-only pipeline variant.
var Scaffold = synth.Scaffold
