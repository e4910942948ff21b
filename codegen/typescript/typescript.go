// Package typescript renders the TypeScript interfaces of a resource: the
// stored item, the update changes and the input and output of every
// operation.
package typescript

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/acksell/blueprint/model"
	"github.com/acksell/blueprint/naming"
)

// FileName returns the name of the generated file of r.
func FileName(r *model.Resource) string {
	return r.Name() + ".ts"
}

// DataTypeName is the interface of a stored item, e.g. "Person".
func DataTypeName(r *model.Resource) string {
	return naming.Pascal(r.Name())
}

// ChangesTypeName is the interface of the attributes an update may set.
func ChangesTypeName(r *model.Resource) string {
	return DataTypeName(r) + "Changes"
}

// TypeName is the type of a structure, e.g. "CreatePersonInput".
func TypeName(s *model.Structure) string {
	return naming.Pascal(s.Name())
}

// ItemTypeName is the element type of a list shaped structure.
func ItemTypeName(s *model.Structure) string {
	return TypeName(s) + "Item"
}

// PropertyName is the property of an attribute, e.g. "createdAt".
func PropertyName(a *model.Attribute) string {
	return naming.Camel(a.Name())
}

// IsList reports whether s is rendered as an array of items: the input of a
// batch operation, or the output of a batch or list operation.
func IsList(s *model.Structure) bool {
	op := s.Operation()
	if op == nil {
		return false
	}
	if s.Type() == model.Input {
		return op.IsBatch()
	}
	return op.ReturnsList()
}

// ChangeAttributes returns the attributes an update may set: visible,
// caller supplied and not part of a key.
func ChangeAttributes(r *model.Resource) []*model.Attribute {
	var out []*model.Attribute
	for _, a := range r.Attributes() {
		if a.IsSystem() || a.IsHidden() || isKey(a) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func isKey(a *model.Attribute) bool {
	for _, k := range a.Resource().KeyAttributes() {
		if k == a {
			return true
		}
	}
	return false
}

// Config configures the generator.
type Config struct {
	Resource *model.Resource
}

// Generator generates the TypeScript interfaces of one resource.
type Generator struct {
	config Config
}

// New creates a new Generator with the given configuration.
func New(cfg Config) *Generator {
	return &Generator{config: cfg}
}

// Generate renders the file contents.
func (g *Generator) Generate() ([]byte, error) {
	r := g.config.Resource
	if r == nil {
		return nil, fmt.Errorf("no resource configured")
	}

	var data fileData
	if r.Structure(r.Name()) == nil {
		names, err := model.Derive(r, "", model.Data)
		if err != nil {
			return nil, err
		}
		data.Interfaces = append(data.Interfaces, interfaceData{
			Name:        DataTypeName(r),
			Description: Comment(r.Description()),
			Fields:      fields(byName(r, names), OutputOptional),
		})
	}
	for _, s := range r.Structures() {
		data.Interfaces = append(data.Interfaces, structureInterface(s))
	}
	if hasUpdate(r) {
		data.Interfaces = append(data.Interfaces, interfaceData{
			Name:   ChangesTypeName(r),
			Fields: fields(ChangeAttributes(r), func(*model.Attribute) bool { return true }),
		})
	}
	for _, op := range r.Operations() {
		data.Interfaces = append(data.Interfaces, structureInterface(op.Input()), structureInterface(op.Output()))
	}

	tmpl, err := template.New("typescript").Parse(fileTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), nil
}

func hasUpdate(r *model.Resource) bool {
	for _, op := range r.Operations() {
		if op.SubType() == model.UpdateOne || op.SubType() == model.UpdateMany {
			return true
		}
	}
	return false
}

func structureInterface(s *model.Structure) interfaceData {
	optional := OutputOptional
	if s.Type() == model.Input {
		optional = InputOptional
	}
	d := interfaceData{
		Name:       TypeName(s),
		TypeParams: s.TypeParameter(),
		Fields:     fields(s.ResourceAttributes(), optional),
		List:       IsList(s),
	}
	if op := s.Operation(); op != nil {
		d.Description = Comment(op.Description())
	}
	return d
}

// OutputOptional reports whether a may be missing from a stored item.
func OutputOptional(a *model.Attribute) bool {
	return !a.Required() && a.CreateGenerator().IsNone()
}

// InputOptional reports whether the caller may leave a out. Keys never are.
func InputOptional(a *model.Attribute) bool {
	return !a.Required() && !isKey(a)
}

func byName(r *model.Resource, names []string) []*model.Attribute {
	out := make([]*model.Attribute, 0, len(names))
	for _, n := range names {
		out = append(out, r.Attribute(n))
	}
	return out
}

func fields(attrs []*model.Attribute, optional func(*model.Attribute) bool) []fieldData {
	var out []fieldData
	for _, a := range attrs {
		if a.IsHidden() {
			continue
		}
		out = append(out, fieldData{
			Name:        PropertyName(a),
			Type:        a.TypeScriptType(),
			Description: Comment(a.Description()),
			Optional:    optional(a),
		})
	}
	return out
}

// Comment collapses s to one line that is safe inside a /** */ block.
func Comment(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "*/", "* /")
}

type fileData struct {
	Interfaces []interfaceData
}

type interfaceData struct {
	Name        string
	TypeParams  string
	Description string
	Fields      []fieldData
	// List renders Name as an array of Name + "Item".
	List bool
}

type fieldData struct {
	Name        string
	Type        string
	Description string
	Optional    bool
}

const fileTemplate = `// Code generated by blueprint. DO NOT EDIT.
{{range .Interfaces}}
{{if .Description}}/** {{.Description}} */
{{end -}}
{{if .List -}}
export interface {{.Name}}Item {
{{- template "fields" .Fields}}
}

export type {{.Name}} = Array<{{.Name}}Item>;
{{else -}}
export interface {{.Name}}{{if .TypeParams}}<{{.TypeParams}}>{{end}} {
{{- template "fields" .Fields}}
}
{{end -}}
{{end -}}
{{define "fields"}}{{range .}}
  {{if .Description}}/** {{.Description}} */
  {{end}}{{.Name}}{{if .Optional}}?{{end}}: {{.Type}};{{end}}{{end}}`
