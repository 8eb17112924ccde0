package synth

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTaskYAML = `tasks:
  - id: T-101
    title: Implement login endpoint
    file_path: internal/auth/login.go
    delta_status: modified
    interfaces: [LoginService, SessionStore]
    change_summary: Add session issuance to the login flow
    worker_type: backend
    bead_id: bd-a3f8e9
  - id: T-102
    title: Build settings page
`

func TestLoadTasks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte(sampleTaskYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	tasks, err := LoadTasks(path)
	if err != nil {
		t.Fatalf("LoadTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len(tasks) = %d, want 2", len(tasks))
	}
	first := tasks[0]
	if first.ID != "T-101" || first.Title != "Implement login endpoint" {
		t.Errorf("tasks[0] = %+v", first)
	}
	if len(first.Interfaces) != 2 || first.Interfaces[1] != "SessionStore" {
		t.Errorf("Interfaces = %v", first.Interfaces)
	}
	if first.BeadID != "bd-a3f8e9" {
		t.Errorf("BeadID = %q", first.BeadID)
	}
	if tasks[1].WorkerType != "" {
		t.Errorf("tasks[1].WorkerType = %q, want empty (inferred later)", tasks[1].WorkerType)
	}
}

func TestLoadTasks_Errors(t *testing.T) {
	if _, err := LoadTasks(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file must error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("tasks: {not: [a, list"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTasks(bad); err == nil {
		t.Error("unparseable YAML must error")
	}
}
