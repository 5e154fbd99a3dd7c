package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// markdownWriter renders markdown written to it (batch reports, refine diffs)
// through glamour when stdout is a terminal. In non-TTY mode, or when the
// renderer cannot be built, writes pass through untouched.
type markdownWriter struct {
	out      io.Writer
	renderer *glamour.TermRenderer
}

func newMarkdownWriter(out *os.File) *markdownWriter {
	w := &markdownWriter{out: out}
	if term.IsTerminal(int(out.Fd())) {
		width, _, err := term.GetSize(int(out.Fd()))
		if err != nil || width <= 0 {
			width = 80
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(max(width-6, 40)),
		)
		if err == nil {
			w.renderer = r
		}
	}
	return w
}

func (w *markdownWriter) Write(p []byte) (int, error) {
	if w.renderer == nil {
		return w.out.Write(p)
	}
	rendered, err := w.renderer.Render(string(p))
	if err != nil {
		return w.out.Write(p)
	}
	if _, err := io.WriteString(w.out, rendered); err != nil {
		return 0, err
	}
	return len(p), nil
}
