package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/iterflow/iterflow/internal/domain"
)

// Clock supplies timestamps for state mutations. Injected for tests.
type Clock func() time.Time

// Store loads, validates, and persists the iteration state document.
type Store struct {
	path  string
	clock Clock
	actor string
}

// NewStore creates a Store for the state file at path.
func NewStore(path string) *Store {
	return &Store{path: path, clock: time.Now, actor: "iterflow"}
}

// NewStoreWithClock creates a Store with an injected clock (for tests).
func NewStoreWithClock(path string, clock Clock) *Store {
	return &Store{path: path, clock: clock, actor: "iterflow"}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the state file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads, validates, and decodes the state file.
//
// Failures are classified: a missing file returns *NotFoundError, invalid
// JSON returns *ParseError, and a schema mismatch returns *ValidationError
// naming the offending field path.
func (s *Store) Load() (*Iteration, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: s.path}
		}
		return nil, fmt.Errorf("read state file %s: %w", s.path, err)
	}

	if !gjson.ValidBytes(data) {
		var probe any
		return nil, &ParseError{Path: s.path, Err: json.Unmarshal(data, &probe)}
	}

	if err := s.validate(data); err != nil {
		return nil, err
	}

	var it Iteration
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}
	return &it, nil
}

// validate checks the document shape field by field so errors name the exact
// offending path.
func (s *Store) validate(data []byte) error {
	iter := gjson.GetBytes(data, "current_iteration")
	switch {
	case !iter.Exists():
		return &ValidationError{Path: s.path, Field: "current_iteration", Reason: "missing required field"}
	case iter.Type != gjson.String:
		return &ValidationError{Path: s.path, Field: "current_iteration", Reason: "must be a string"}
	case !domain.IterationIDPattern.MatchString(iter.String()):
		return &ValidationError{Path: s.path, Field: "current_iteration", Reason: fmt.Sprintf("%q is not a zero-padded iteration id", iter.String())}
	}

	if g := gjson.GetBytes(data, "flow_guardrail"); g.Exists() && g.String() != "" {
		if g.String() != GuardrailStrict && g.String() != GuardrailRelaxed {
			return &ValidationError{Path: s.path, Field: "flow_guardrail", Reason: fmt.Sprintf("unknown mode %q", g.String())}
		}
	}

	if a := gjson.GetBytes(data, "prototype_approved"); a.Exists() && !a.IsBool() {
		return &ValidationError{Path: s.path, Field: "prototype_approved", Reason: "must be a boolean"}
	}

	if !gjson.GetBytes(data, "phases").IsObject() {
		return &ValidationError{Path: s.path, Field: "phases", Reason: "missing required object"}
	}

	for _, path := range StepPaths {
		field := path + ".status"
		st := gjson.GetBytes(data, field)
		switch {
		case !st.Exists():
			return &ValidationError{Path: s.path, Field: field, Reason: "missing required field"}
		case st.Type != gjson.String:
			return &ValidationError{Path: s.path, Field: field, Reason: "must be a string"}
		case !Known(Status(st.String())):
			return &ValidationError{Path: s.path, Field: field, Reason: fmt.Sprintf("unknown status %q", st.String())}
		}
	}

	if h := gjson.GetBytes(data, "history"); h.Exists() && !h.IsArray() {
		return &ValidationError{Path: s.path, Field: "history", Reason: "must be an array"}
	}

	return nil
}

// Save stamps and persists the full document.
func (s *Store) Save(it *Iteration) error {
	it.LastUpdated = s.clock().UTC()
	it.UpdatedBy = s.actor

	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return s.write(data)
}

// Field is a single dotted-path update applied by Update.
type Field struct {
	Path  string
	Value any
}

// Update applies surgical field updates to the on-disk document, preserving
// any fields this version of iterflow does not know about. The last_updated
// and updated_by stamps are refreshed in the same write.
func (s *Store) Update(fields ...Field) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Path: s.path}
		}
		return fmt.Errorf("read state file %s: %w", s.path, err)
	}

	for _, f := range fields {
		if data, err = sjson.SetBytes(data, f.Path, f.Value); err != nil {
			return fmt.Errorf("set %s: %w", f.Path, err)
		}
	}
	if data, err = sjson.SetBytes(data, "last_updated", s.clock().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("set last_updated: %w", err)
	}
	if data, err = sjson.SetBytes(data, "updated_by", s.actor); err != nil {
		return fmt.Errorf("set updated_by: %w", err)
	}

	return s.write(data)
}

// SetStatus updates a single step's status field.
func (s *Store) SetStatus(stepPath string, st Status) error {
	return s.Update(Field{Path: stepPath + ".status", Value: string(st)})
}

// write pretty-prints and atomically replaces the state file.
func (s *Store) write(data []byte) error {
	out := pretty.PrettyOptions(data, &pretty.Options{Indent: "  "})
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
