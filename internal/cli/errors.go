package cli

import "fmt"

// ExitError lets RunE functions signal a specific process exit code without
// calling os.Exit, which keeps command behavior testable. Execute unwraps it.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
