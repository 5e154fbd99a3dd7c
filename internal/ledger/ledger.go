// Package ledger persists the per-item execution record for a batch of
// agent-driven tasks. The ledger is the crash-recovery source of truth: it is
// written before and after every agent invocation so a resume knows exactly
// which items still need work.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/pretty"
)

// Status is the execution status of a single ledger entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Entry is the execution record for one work item.
type Entry struct {
	ID                string    `json:"id"`
	Status            Status    `json:"status"`
	AttemptCount      int       `json:"attempt_count"`
	LastAgentExitCode *int      `json:"last_agent_exit_code"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Ledger is the persisted entry set for one batch run.
type Ledger struct {
	Iteration string  `json:"iteration"`
	Task      string  `json:"task"`
	Entries   []Entry `json:"entries"`

	path string
}

// FilePath returns the deterministic ledger location for an iteration and
// task kind, e.g. .iterflow/progress/0001-refactor.json.
func FilePath(dir, iteration, kind string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.json", iteration, kind))
}

// OutOfSyncError indicates the persisted entry ids no longer match the
// authoritative item ids. This is fatal and never auto-healed: the operator
// must reconcile the plan and the ledger by hand.
type OutOfSyncError struct {
	Path    string
	Missing []string // item ids with no ledger entry
	Extra   []string // ledger ids with no matching item
}

func (e *OutOfSyncError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing entries for [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("stale entries for [%s]", strings.Join(e.Extra, ", ")))
	}
	return fmt.Sprintf("progress ledger %s is out of sync with the plan: %s; resolve manually before re-running",
		e.Path, strings.Join(parts, "; "))
}

// New initializes a ledger with one pending entry per item id, in order.
func New(path, iteration, task string, ids []string, now time.Time) *Ledger {
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{ID: id, Status: StatusPending, UpdatedAt: now}
	}
	return &Ledger{Iteration: iteration, Task: task, Entries: entries, path: path}
}

// Load reads a ledger from disk. A missing file is reported via os.IsNotExist
// on the returned error so callers can fall back to New.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("malformed ledger %s: %w", path, err)
	}
	l.path = path
	return &l, nil
}

// Reconcile verifies that the entry id set exactly equals ids. Any
// discrepancy is a fatal *OutOfSyncError; no partial repair is attempted.
func (l *Ledger) Reconcile(ids []string) error {
	have := make(map[string]bool, len(l.Entries))
	for _, e := range l.Entries {
		have[e.ID] = true
	}
	want := make(map[string]bool, len(ids))
	var missing []string
	for _, id := range ids {
		want[id] = true
		if !have[id] {
			missing = append(missing, id)
		}
	}
	var extra []string
	for _, e := range l.Entries {
		if !want[e.ID] {
			extra = append(extra, e.ID)
		}
	}
	if len(missing) > 0 || len(extra) > 0 || len(l.Entries) != len(ids) {
		return &OutOfSyncError{Path: l.path, Missing: missing, Extra: extra}
	}
	return nil
}

// Find returns the entry for id, or nil.
func (l *Ledger) Find(id string) *Entry {
	for i := range l.Entries {
		if l.Entries[i].ID == id {
			return &l.Entries[i]
		}
	}
	return nil
}

// AllCompleted reports whether every entry has completed.
func (l *Ledger) AllCompleted() bool {
	for _, e := range l.Entries {
		if e.Status != StatusCompleted {
			return false
		}
	}
	return len(l.Entries) > 0
}

// Save persists the ledger with the shared JSON file conventions
// (two-space pretty print, trailing newline, atomic replace).
func (l *Ledger) Save() error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	out := pretty.PrettyOptions(data, &pretty.Options{Indent: "  "})
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create progress dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
