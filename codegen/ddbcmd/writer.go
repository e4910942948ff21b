package ddbcmd

import (
	"fmt"
	"strings"
)

// writer emits indented TypeScript lines.
type writer struct {
	b      strings.Builder
	indent int
}

func (w *writer) line(format string, args ...any) {
	if format == "" {
		w.b.WriteString("\n")
		return
	}
	w.b.WriteString(strings.Repeat("  ", w.indent))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString("\n")
}

// open writes a line ending a block opener and indents the following lines.
func (w *writer) open(format string, args ...any) {
	w.line(format, args...)
	w.indent++
}

// close dedents and writes the closing line.
func (w *writer) close(format string, args ...any) {
	w.indent--
	w.line(format, args...)
}

// fields writes one "key: value," line per field.
func (w *writer) fields(fs []field) {
	for _, f := range fs {
		w.line("%s: %s,", f.key, f.value)
	}
}

func (w *writer) String() string {
	return w.b.String()
}

type field struct {
	key, value string
}
