package presentation

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the banner of the command line to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{` _                       _      `, "#818cf8"},
		{`| |__   __ _ _   _  ___ ___(_) ___ `, "#a78bfa"},
		{`| '_ \ / _' | | | |/ _ / __| |/ __|`, "#c084fc"},
		{`| |_) | (_| | |_| |  __\__ \ | (__ `, "#e879f9"},
		{`|_.__/ \__,_|\__, |\___|___/_|\___|`, "#f472b6"},
		{`             |___/  ` + strings.TrimSpace(version), "#fb7185"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
