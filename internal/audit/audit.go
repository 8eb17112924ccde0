// Package audit maintains the append-only operations log that rides along
// with a pipeline file (<pipeline>.ops.jsonl). Every successful mutation
// appends one JSON object per line; the log is never rewritten.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Commands recorded in the log.
const (
	CmdEdgeAdd    = "edge_add"
	CmdEdgeRemove = "edge_remove"
)

// Record is one audited mutation.
type Record struct {
	Timestamp time.Time `json:"ts"`
	File      string    `json:"file"`
	Command   string    `json:"cmd"`
	Src       string    `json:"src"`
	Dst       string    `json:"dst"`
	Label     string    `json:"label,omitempty"`
	Condition string    `json:"condition,omitempty"`
	Count     int       `json:"count,omitempty"`
}

// LogPath returns the audit log path for a pipeline file.
func LogPath(pipelinePath string) string {
	return pipelinePath + ".ops.jsonl"
}

// Append writes one record to the log, creating it if needed.
func Append(path string, rec Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	// #nosec G304 - audit path derived from the pipeline path
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// Read returns every record in the log, oldest first. A missing log is an
// empty history, not an error. Unparseable lines are skipped; the log is
// advisory, not a ledger of record.
func Read(path string) ([]Record, error) {
	// #nosec G304 - audit path derived from the pipeline path
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("read audit log: %w", err)
	}
	return records, nil
}
