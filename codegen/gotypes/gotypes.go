// Package gotypes renders Go structs for the structures of a service, tagged
// for attributevalue and encoding/json so that Go services share the item
// shapes of the TypeScript code.
package gotypes

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/acksell/blueprint/codegen"
	"github.com/acksell/blueprint/codegen/typescript"
	"github.com/acksell/blueprint/model"
	"github.com/acksell/blueprint/naming"
	"github.com/dave/jennifer/jen"
)

// FileName returns the name of the generated file of package pkg.
func FileName(pkg string) string {
	return pkg + ".go"
}

// initialisms are words written in capitals in field names.
var initialisms = map[string]bool{
	"api": true, "guid": true, "http": true, "id": true, "ip": true,
	"json": true, "ttl": true, "url": true, "uuid": true,
}

// FieldName is the struct field of an attribute, e.g. "CreatedAt" or
// "TenantID".
func FieldName(a *model.Attribute) string {
	var b strings.Builder
	for _, w := range naming.Words(a.Name()) {
		if initialisms[w] {
			b.WriteString(strings.ToUpper(w))
			continue
		}
		b.WriteString(naming.Pascal(w))
	}
	return b.String()
}

// Config configures the generator.
type Config struct {
	// Package is the name of the generated package.
	Package   string
	Resources []*model.Resource
}

// Generator generates the Go types of a set of resources.
type Generator struct {
	config Config
}

// New creates a new Generator with the given configuration.
func New(cfg Config) *Generator {
	return &Generator{config: cfg}
}

// Generate renders the file contents.
func (g *Generator) Generate() ([]byte, error) {
	if g.config.Package == "" {
		return nil, fmt.Errorf("no package configured")
	}
	f := jen.NewFile(g.config.Package)
	f.HeaderComment(codegen.Header)

	for _, r := range g.config.Resources {
		if err := genResource(f, r); err != nil {
			return nil, fmt.Errorf("resource %q: %w", r.Name(), err)
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering package %s: %w", g.config.Package, err)
	}
	return buf.Bytes(), nil
}

func genResource(f *jen.File, r *model.Resource) error {
	if r.Structure(r.Name()) == nil {
		names, err := model.Derive(r, "", model.Data)
		if err != nil {
			return err
		}
		attrs := make([]*model.Attribute, len(names))
		for i, n := range names {
			attrs[i] = r.Attribute(n)
		}
		genStruct(f, typescript.DataTypeName(r), "", r.Description(), attrs, typescript.OutputOptional)
	}
	for _, s := range r.Structures() {
		genStructure(f, s)
	}
	if hasUpdate(r) {
		genStruct(f, typescript.ChangesTypeName(r), "", "", typescript.ChangeAttributes(r), func(*model.Attribute) bool { return true })
	}
	for _, op := range r.Operations() {
		genStructure(f, op.Input())
		genStructure(f, op.Output())
	}
	return nil
}

func hasUpdate(r *model.Resource) bool {
	for _, op := range r.Operations() {
		if op.SubType() == model.UpdateOne || op.SubType() == model.UpdateMany {
			return true
		}
	}
	return false
}

func genStructure(f *jen.File, s *model.Structure) {
	optional := typescript.OutputOptional
	if s.Type() == model.Input {
		optional = typescript.InputOptional
	}
	var description string
	if op := s.Operation(); op != nil {
		description = op.Description()
	}
	name := typescript.TypeName(s)
	if !typescript.IsList(s) {
		genStruct(f, name, s.TypeParameter(), description, s.ResourceAttributes(), optional)
		return
	}
	item := typescript.ItemTypeName(s)
	genStruct(f, item, "", "", s.ResourceAttributes(), optional)
	if description != "" {
		f.Comment(collapse(description))
	}
	f.Type().Id(name).Index().Id(item)
	f.Empty()
}

// genStruct writes a struct type. Hidden attributes are left out and
// optional ones become pointers omitted when nil.
func genStruct(f *jen.File, name, typeParam, description string, attrs []*model.Attribute, optional func(*model.Attribute) bool) {
	if description != "" {
		f.Comment(collapse(description))
	}
	s := f.Type().Id(name)
	if typeParam != "" {
		s.Types(jen.Id(typeParam).Id("any"))
	}
	s.StructFunc(func(g *jen.Group) {
		for _, a := range attrs {
			if a.IsHidden() {
				continue
			}
			if d := a.Description(); d != "" {
				g.Comment(collapse(d))
			}
			g.Id(FieldName(a)).Add(fieldType(a, optional(a))).Tag(tags(a, optional(a)))
		}
	})
	f.Empty()
}

func fieldType(a *model.Attribute, optional bool) *jen.Statement {
	switch a.Type() {
	case model.TypeArray:
		return jen.Index().Id("any")
	case model.TypeJson, model.TypeMap:
		return jen.Map(jen.String()).Id("any")
	}
	var t *jen.Statement
	switch a.Type() {
	case model.TypeInt, model.TypeTimestamp, model.TypeCount:
		t = jen.Int64()
	case model.TypeFloat, model.TypeAverage, model.TypeSum:
		t = jen.Float64()
	case model.TypeBoolean:
		t = jen.Bool()
	default:
		t = jen.String()
	}
	if optional {
		return jen.Op("*").Add(t)
	}
	return t
}

func tags(a *model.Attribute, optional bool) map[string]string {
	av, js := a.ShortName(), typescript.PropertyName(a)
	if optional {
		av += ",omitempty"
		js += ",omitempty"
	}
	return map[string]string{"dynamodbav": av, "json": js}
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
