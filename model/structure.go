package model

import (
	"fmt"

	"github.com/acksell/blueprint/naming"
)

// StructureType is the role of a structure.
type StructureType string

const (
	Input     StructureType = "Input"
	Output    StructureType = "Output"
	Data      StructureType = "Data"
	Transient StructureType = "Transient"
)

// StructureAttribute references a resource attribute by name.
type StructureAttribute struct {
	resource *Resource
	name     string
}

// Name returns the referenced attribute name.
func (sa StructureAttribute) Name() string {
	return sa.name
}

// ResourceAttribute resolves the reference through the resource's index.
func (sa StructureAttribute) ResourceAttribute() *Attribute {
	return sa.resource.Attribute(sa.name)
}

// Structure is an ordered set of attributes of one resource, such as the
// input or output of an operation.
type Structure struct {
	resource      *Resource
	operation     *Operation
	name          string
	typ           StructureType
	typeParameter string
	attributes    []StructureAttribute
}

// StructureOptions declares a standalone structure.
type StructureOptions struct {
	Name string
	// Type defaults to Data.
	Type          StructureType
	TypeParameter string
	// Attributes lists the attribute names in order. A nil list on a Data
	// structure selects every attribute.
	Attributes []string
}

// AddStructure adds a structure not owned by an operation. Adding a structure
// seals the attribute list.
func (r *Resource) AddStructure(opts StructureOptions) (*Structure, error) {
	name := naming.Param(opts.Name)
	if name == "" {
		name = r.name
	}
	if r.Structure(name) != nil {
		return nil, duplicateError(r.name, "structure", name)
	}
	typ := opts.Type
	if typ == "" {
		typ = Data
	}
	switch typ {
	case Input, Output, Data, Transient:
	default:
		return nil, fmt.Errorf("resource %q: structure %q: unknown structure type %q", r.name, name, typ)
	}

	names := opts.Attributes
	if names == nil && typ == Data {
		var err error
		if names, err = Derive(r, "", Data); err != nil {
			return nil, err
		}
	}
	for _, n := range names {
		if r.Attribute(n) == nil {
			return nil, &UnknownAttributeError{Resource: r.name, Attribute: n, Context: fmt.Sprintf("structure %q", name)}
		}
	}

	s := &Structure{
		resource:      r,
		name:          name,
		typ:           typ,
		typeParameter: opts.TypeParameter,
	}
	s.attributes = s.refs(names)
	r.structures = append(r.structures, s)
	r.sealed = true
	return s, nil
}

func (s *Structure) refs(names []string) []StructureAttribute {
	out := make([]StructureAttribute, len(names))
	for i, n := range names {
		out[i] = StructureAttribute{resource: s.resource, name: n}
	}
	return out
}

func (s *Structure) Resource() *Resource   { return s.resource }
func (s *Structure) Name() string          { return s.name }
func (s *Structure) Type() StructureType   { return s.typ }
func (s *Structure) TypeParameter() string { return s.typeParameter }

// Operation returns the owning operation, or nil for standalone structures.
func (s *Structure) Operation() *Operation { return s.operation }

// Attributes returns the structure attributes in order.
func (s *Structure) Attributes() []StructureAttribute {
	return append([]StructureAttribute(nil), s.attributes...)
}

// AttributeNames returns the referenced attribute names in order.
func (s *Structure) AttributeNames() []string {
	out := make([]string, len(s.attributes))
	for i, sa := range s.attributes {
		out[i] = sa.name
	}
	return out
}

// ResourceAttributes resolves every reference, in order.
func (s *Structure) ResourceAttributes() []*Attribute {
	out := make([]*Attribute, len(s.attributes))
	for i, sa := range s.attributes {
		out[i] = sa.ResourceAttribute()
	}
	return out
}

func (s *Structure) Len() int { return len(s.attributes) }
