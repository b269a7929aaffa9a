// Package presentation renders run reports and progress for a terminal.
package presentation

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewRenderer returns a function that renders markdown for w. On a terminal
// it styles through glamour, wrapped at the terminal width; elsewhere the
// markdown passes through unchanged.
func NewRenderer(w io.Writer) func(string) (string, error) {
	if !IsTerminal(w) {
		return func(md string) (string, error) { return md, nil }
	}
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width, _, err := term.GetSize(int(w.(*os.File).Fd())); err == nil && width > 20 {
		opts = append(opts, glamour.WithWordWrap(width-2))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(md string) (string, error) { return md, nil }
	}
	return r.Render
}
