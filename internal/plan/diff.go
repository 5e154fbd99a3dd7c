package plan

import (
	"fmt"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"
)

// DiffDocuments returns a unified diff between two revisions of a plan
// document, labeled with the file's base name. An empty string means the
// revisions are identical.
func DiffDocuments(path, before, after string) string {
	if before == after {
		return ""
	}
	name := filepath.Base(path)
	return udiff.Unified(fmt.Sprintf("a/%s", name), fmt.Sprintf("b/%s", name), before, after)
}
