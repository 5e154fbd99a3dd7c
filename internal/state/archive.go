package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Archive snapshots the current iteration under historyDir, moves its ledger
// files out of progressDir, appends a history record, and persists a fresh
// document for the next iteration. It returns the new document.
func (s *Store) Archive(historyDir, progressDir string) (*Iteration, error) {
	it, err := s.Load()
	if err != nil {
		return nil, err
	}

	nextID, err := NextIterationID(it.CurrentIteration)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(historyDir, it.CurrentIteration)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	// Snapshot the state document as it stood at archival time.
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", s.path, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "state.json"), data, 0o644); err != nil {
		return nil, fmt.Errorf("snapshot state: %w", err)
	}

	if err := moveLedgers(progressDir, dir, it.CurrentIteration); err != nil {
		return nil, err
	}

	next := New(nextID)
	next.FlowGuardrail = it.FlowGuardrail
	next.History = append(it.History, ArchivedIteration{
		Iteration:  it.CurrentIteration,
		ArchivedAt: s.clock().UTC(),
		Dir:        dir,
	})

	if err := s.Save(next); err != nil {
		return nil, err
	}
	return next, nil
}

// moveLedgers relocates the iteration's ledger files into the archive dir.
// A missing progress dir is fine: the iteration may never have run a batch.
func moveLedgers(progressDir, archiveDir, iteration string) error {
	entries, err := os.ReadDir(progressDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read progress dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), iteration+"-") {
			continue
		}
		src := filepath.Join(progressDir, e.Name())
		dst := filepath.Join(archiveDir, e.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("archive ledger %s: %w", e.Name(), err)
		}
	}
	return nil
}
