package synth

import (
	"testing"

	"github.com/steveyegge/attractor/internal/dot"
)

func TestInferWorkerType(t *testing.T) {
	cases := []struct {
		name string
		task Task
		want dot.WorkerType
	}{
		{
			name: "backend keywords",
			task: Task{Title: "Add auth endpoint", FilePath: "internal/api/auth.go"},
			want: dot.WorkerBackend,
		},
		{
			name: "frontend keywords",
			task: Task{Title: "Style the settings form", FilePath: "web/components/Settings.tsx"},
			want: dot.WorkerFrontend,
		},
		{
			name: "test keywords",
			task: Task{Title: "Cover regression in fixture loading", ChangeSummary: "add unit coverage"},
			want: dot.WorkerTest,
		},
		{
			name: "architecture keywords",
			task: Task{Title: "Refactor migration scaffolding", ChangeSummary: "restructure the schema layer"},
			want: dot.WorkerArchitecture,
		},
		{
			name: "no keywords falls back to backend",
			task: Task{Title: "Do the thing"},
			want: dot.WorkerBackend,
		},
		{
			name: "tie breaks toward backend",
			task: Task{Title: "api css"},
			want: dot.WorkerBackend,
		},
		{
			name: "file path counts",
			task: Task{Title: "Tweak output", FilePath: "web/src/views/render_layout.tsx"},
			want: dot.WorkerFrontend,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := InferWorkerType(c.task); got != c.want {
				t.Errorf("InferWorkerType(%q) = %q, want %q", c.task.Title, got, c.want)
			}
		})
	}
}
