package synth

import (
	"strings"

	"github.com/steveyegge/attractor/internal/dot"
)

// workerKeywords scores a task into one of four worker categories. The
// lists are deliberately plain substrings matched against lowercased
// title + change summary + file path.
var workerKeywords = map[dot.WorkerType][]string{
	dot.WorkerFrontend: {
		"frontend", "ui", "css", "component", "react", "vue", "view",
		"page", "style", "layout", "button", "form", "render", "tsx",
	},
	dot.WorkerBackend: {
		"backend", "api", "server", "database", "db", "endpoint",
		"service", "handler", "storage", "auth", "queue", "worker",
		"cache", "sql",
	},
	dot.WorkerTest: {
		"test", "spec", "coverage", "regression", "e2e", "unit",
		"integration", "qa", "fixture", "assert",
	},
	dot.WorkerArchitecture: {
		"architecture", "design", "refactor", "schema", "migration",
		"infra", "structure", "scaffold", "framework", "module",
	},
}

// workerPriority breaks ties (including the all-zero case) in a fixed
// order, so inference is deterministic.
var workerPriority = []dot.WorkerType{
	dot.WorkerBackend, dot.WorkerFrontend, dot.WorkerTest, dot.WorkerArchitecture,
}

// InferWorkerType picks a worker category for a task by keyword scoring
// across its title, change summary, and file path. An explicit
// Task.WorkerType always wins upstream; this runs only when it is empty.
func InferWorkerType(t Task) dot.WorkerType {
	haystack := strings.ToLower(t.Title + " " + t.ChangeSummary + " " + t.FilePath)

	scores := make(map[dot.WorkerType]int, len(workerKeywords))
	for wt, words := range workerKeywords {
		for _, w := range words {
			scores[wt] += strings.Count(haystack, w)
		}
	}

	best := workerPriority[0]
	for _, wt := range workerPriority[1:] {
		if scores[wt] > scores[best] {
			best = wt
		}
	}
	return best
}
