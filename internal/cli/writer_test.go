package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownWriter_PassthroughWhenNotATerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	w := newMarkdownWriter(f)
	assert.Nil(t, w.renderer, "no renderer outside a terminal")

	n, err := w.Write([]byte("# Batch report\n"))
	require.NoError(t, err)
	assert.Equal(t, len("# Batch report\n"), n)

	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "# Batch report\n", string(data), "markdown passes through untouched")
}

func TestExitError(t *testing.T) {
	assert.Equal(t, "exit status 1", (&ExitError{Code: 1}).Error())
}
