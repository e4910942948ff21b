// Package keys records how a key value is composed from other attributes.
//
// A key expression is an ordered list of attribute references joined by a
// separator. Nothing is evaluated here; generators render the expression as
// source text for their target:
//
//	e, _ := keys.Compose([]keys.Source{{Name: "type"}, {Name: "version"}}, "#")
//	e.Pattern()                  // {type}#{version}
//	e.Render(ref, strconv.Quote) // type + "#" + version
//
// The order of sources is part of the storage format. Reordering them changes
// every stored key.
package keys

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// DefaultSeparator joins composed key sources unless another one is given.
const DefaultSeparator = "#"

// ErrNoSources is returned when a key is composed from zero attributes.
var ErrNoSources = errors.New("key has no source attributes")

// Source references an attribute taking part in a key.
type Source struct {
	// Name is the canonical attribute name.
	Name string
	// ShortName is the storage alias. Defaults to Name.
	ShortName string
}

func (s Source) storageName() string {
	if s.ShortName == "" {
		return s.Name
	}
	return s.ShortName
}

// Part is one element of an expression, either a literal or a reference.
type Part struct {
	Literal bool
	// Value is the literal text, or the attribute name for references.
	Value  string
	Source Source
}

// Expr is a composed key expression.
type Expr struct {
	sources   []Source
	separator string
}

// Compose builds the join expression for the given sources, in order.
// An empty separator means DefaultSeparator.
func Compose(sources []Source, separator string) (Expr, error) {
	if len(sources) == 0 {
		return Expr{}, ErrNoSources
	}
	if separator == "" {
		separator = DefaultSeparator
	}
	for i, s := range sources {
		if s.Name == "" {
			return Expr{}, fmt.Errorf("source %d has no attribute name", i)
		}
	}
	return Expr{
		sources:   append([]Source(nil), sources...),
		separator: separator,
	}, nil
}

// Sources returns the referenced attributes in composition order.
func (e Expr) Sources() []Source {
	return append([]Source(nil), e.sources...)
}

// Separator returns the join separator.
func (e Expr) Separator() string {
	return e.separator
}

// IsZero reports whether the expression was never composed.
func (e Expr) IsZero() bool {
	return len(e.sources) == 0
}

// IsSingle reports whether the key is a plain copy of one attribute.
func (e Expr) IsSingle() bool {
	return len(e.sources) == 1
}

// Parts expands the expression into alternating references and separators.
func (e Expr) Parts() []Part {
	parts := make([]Part, 0, len(e.sources)*2)
	for i, s := range e.sources {
		if i > 0 {
			parts = append(parts, Part{Literal: true, Value: e.separator})
		}
		parts = append(parts, Part{Value: s.Name, Source: s})
	}
	return parts
}

// Pattern returns the expression in {name} pattern syntax, e.g. "{type}#{version}".
func (e Expr) Pattern() string {
	return e.pattern(func(s Source) string { return s.Name })
}

// StoragePattern is like Pattern but uses the storage aliases, e.g. "{t}#{v}".
func (e Expr) StoragePattern() string {
	return e.pattern(Source.storageName)
}

func (e Expr) pattern(name func(Source) string) string {
	var b strings.Builder
	for _, p := range e.Parts() {
		if p.Literal {
			b.WriteString(p.Value)
			continue
		}
		b.WriteString("{" + name(p.Source) + "}")
	}
	return b.String()
}

// Render renders the expression as a concatenation in a target language.
// ref renders one attribute reference and lit renders a string literal.
// Parts are joined with " + ".
func (e Expr) Render(ref func(Source) string, lit func(string) string) string {
	parts := e.Parts()
	out := make([]string, len(parts))
	for i, p := range parts {
		if p.Literal {
			out[i] = lit(p.Value)
		} else {
			out[i] = ref(p.Source)
		}
	}
	return strings.Join(out, " + ")
}

// RenderTemplate renders the expression as an interpolated string, such as a
// TypeScript template literal. ref returns the interpolation of one reference,
// e.g. "${item.type}".
func (e Expr) RenderTemplate(ref func(Source) string) string {
	var b strings.Builder
	for _, p := range e.Parts() {
		if p.Literal {
			b.WriteString(p.Value)
			continue
		}
		b.WriteString(ref(p.Source))
	}
	return b.String()
}

// fieldRefRegex matches {name} references, including empty braces for validation.
var fieldRefRegex = regexp.MustCompile(`\{([^}]*)\}`)

// Parse reads a pattern such as "{tenant-id}#{id}" into its ordered attribute
// names and separator. All references must be joined by the same non-empty
// separator, with no literal text before the first or after the last
// reference. A single reference ("{id}") yields an empty separator.
func Parse(pattern string) (names []string, separator string, err error) {
	if pattern == "" {
		return nil, "", fmt.Errorf("pattern cannot be empty")
	}

	matches := fieldRefRegex.FindAllStringSubmatchIndex(pattern, -1)
	if len(matches) == 0 {
		return nil, "", fmt.Errorf("pattern %q has no attribute references", pattern)
	}
	if matches[0][0] != 0 {
		return nil, "", fmt.Errorf("pattern %q has literal text before the first reference", pattern)
	}
	if last := matches[len(matches)-1]; last[1] != len(pattern) {
		return nil, "", fmt.Errorf("pattern %q has literal text after the last reference", pattern)
	}

	lastEnd := 0
	for i, m := range matches {
		start, end := m[0], m[1]
		if i > 0 {
			sep := pattern[lastEnd:start]
			if sep == "" {
				return nil, "", fmt.Errorf("pattern %q: references %d and %d are not separated", pattern, i-1, i)
			}
			if separator != "" && sep != separator {
				return nil, "", fmt.Errorf("pattern %q mixes separators %q and %q", pattern, separator, sep)
			}
			separator = sep
		}

		name := strings.TrimSpace(pattern[m[2]:m[3]])
		if name == "" {
			return nil, "", fmt.Errorf("empty attribute reference at position %d", start)
		}
		names = append(names, name)
		lastEnd = end
	}
	return names, separator, nil
}
