package synth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// taskFile is the on-disk shape the upstream enrichment step emits.
type taskFile struct {
	Tasks []Task `yaml:"tasks"`
}

// LoadTasks reads a task-descriptor YAML file:
//
//	tasks:
//	  - id: T-101
//	    title: Implement login endpoint
//	    file_path: internal/auth/login.go
//	    delta_status: modified
//	    interfaces: [LoginService]
//	    change_summary: Add session issuance to the login flow
//	    worker_type: backend
//	    bead_id: bd-a3f8e9
func LoadTasks(path string) ([]Task, error) {
	data, err := os.ReadFile(path) // #nosec G304 - caller-supplied task file
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	var tf taskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	return tf.Tasks, nil
}
