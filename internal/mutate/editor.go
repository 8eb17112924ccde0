package mutate

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/attractor/internal/audit"
	"github.com/steveyegge/attractor/internal/dot"
	"github.com/steveyegge/attractor/internal/pipelock"
)

// Editor applies edge mutations to a pipeline file. Each mutation holds
// the file's advisory lock for the whole read-modify-write-audit
// sequence, commits via a single atomic rename, and appends one audit
// record on success. Reads (ListEdges) take no lock: a mutation only
// becomes visible through its one terminal write.
type Editor struct {
	// Path is the pipeline file.
	Path string

	// Locker provides the mutual-exclusion strategy. Defaults to the
	// sentinel-file FileLocker.
	Locker pipelock.Locker

	// LockTimeout bounds lock acquisition. Zero blocks indefinitely.
	LockTimeout time.Duration

	// AuditPath overrides the audit log location. Defaults to
	// <Path>.ops.jsonl.
	AuditPath string

	// DryRun performs every validation but skips the write and the
	// audit append. Always safely retryable.
	DryRun bool
}

// NewEditor creates an editor with the default file-based lock strategy.
func NewEditor(path string) *Editor {
	return &Editor{Path: path, Locker: pipelock.FileLocker{}}
}

func (e *Editor) locker() pipelock.Locker {
	if e.Locker != nil {
		return e.Locker
	}
	return pipelock.FileLocker{}
}

func (e *Editor) auditPath() string {
	if e.AuditPath != "" {
		return e.AuditPath
	}
	return audit.LogPath(e.Path)
}

// AddEdge adds src -> dst to the pipeline file under the file lock.
func (e *Editor) AddEdge(src, dst string, opts AddOptions) error {
	lock, err := e.locker().Acquire(e.Path, e.LockTimeout)
	if err != nil {
		return err
	}
	defer lock.Release()

	content, err := os.ReadFile(e.Path) // #nosec G304 - caller-supplied pipeline path
	if err != nil {
		return fmt.Errorf("read pipeline: %w", err)
	}

	updated, err := AddEdge(string(content), src, dst, opts)
	if err != nil {
		return err
	}
	if e.DryRun {
		return nil
	}

	if err := writeAtomic(e.Path, []byte(updated)); err != nil {
		return err
	}
	return audit.Append(e.auditPath(), audit.Record{
		File:      e.Path,
		Command:   audit.CmdEdgeAdd,
		Src:       src,
		Dst:       dst,
		Label:     opts.Label,
		Condition: string(opts.Condition),
	})
}

// RemoveEdge removes matching src -> dst statements from the pipeline
// file under the file lock, returning the number removed.
func (e *Editor) RemoveEdge(src, dst, condition, label string) (int, error) {
	lock, err := e.locker().Acquire(e.Path, e.LockTimeout)
	if err != nil {
		return 0, err
	}
	defer lock.Release()

	content, err := os.ReadFile(e.Path) // #nosec G304 - caller-supplied pipeline path
	if err != nil {
		return 0, fmt.Errorf("read pipeline: %w", err)
	}

	updated, count, err := RemoveEdge(string(content), src, dst, condition, label)
	if err != nil {
		return 0, err
	}
	if e.DryRun {
		return count, nil
	}

	if err := writeAtomic(e.Path, []byte(updated)); err != nil {
		return 0, err
	}
	if err := audit.Append(e.auditPath(), audit.Record{
		File:      e.Path,
		Command:   audit.CmdEdgeRemove,
		Src:       src,
		Dst:       dst,
		Label:     label,
		Condition: condition,
		Count:     count,
	}); err != nil {
		return count, err
	}
	return count, nil
}

// ListEdges parses the pipeline and returns its edges. Takes no lock;
// see the Editor doc comment.
func (e *Editor) ListEdges() ([]*dot.Edge, error) {
	g, err := dot.ParseFile(e.Path)
	if err != nil {
		return nil, err
	}
	return g.Edges, nil
}

// writeAtomic commits content with a write-to-temp-then-rename in the
// target's directory, so readers either see the old document or the new
// one, never a torn write.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit pipeline write: %w", err)
	}
	return nil
}
