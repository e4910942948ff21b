package vtl

import (
	"fmt"
	"strings"
)

// writer emits template lines. VTL directives stay unindented, the
// request document nests by two spaces.
type writer struct {
	b      strings.Builder
	indent int
}

func (w *writer) line(format string, args ...any) {
	w.b.WriteString(strings.Repeat("  ", w.indent))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteString("\n")
}

// qr writes a statement whose value is discarded.
func (w *writer) qr(format string, args ...any) {
	w.line("$util.qr(%s)", fmt.Sprintf(format, args...))
}

// member is one field of a JSON object in the request document. Members
// with fields render as nested objects.
type member struct {
	key    string
	value  string
	fields []member
}

func (w *writer) object(ms []member) {
	w.line("{")
	w.members(ms)
	w.line("}")
}

func (w *writer) members(ms []member) {
	w.indent++
	for i, m := range ms {
		comma := ","
		if i == len(ms)-1 {
			comma = ""
		}
		if m.fields == nil {
			w.line("%q: %s%s", m.key, m.value, comma)
			continue
		}
		w.line("%q: {", m.key)
		w.members(m.fields)
		w.line("}%s", comma)
	}
	w.indent--
}

func (w *writer) String() string {
	return w.b.String()
}
