package state

import "fmt"

// NotFoundError indicates the state file does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("state file not found: %s (run `iterflow init` to start an iteration)", e.Path)
}

// ParseError indicates the state file exists but is not valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed JSON in state file %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError indicates the state file is valid JSON but does not match
// the expected schema. Field is the dotted path of the offending field.
type ValidationError struct {
	Path   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid state file %s: %s: %s", e.Path, e.Field, e.Reason)
}
