package model

import (
	"fmt"

	"github.com/acksell/blueprint/model/keys"
	"github.com/acksell/blueprint/naming"
)

// Visibility controls whether an attribute is exposed in generated interfaces.
type Visibility string

const (
	UserVisible Visibility = "USER_VISIBLE"
	Hidden      Visibility = "HIDDEN"
)

// Identifier marks the identifying attribute of a resource.
type Identifier string

const (
	IdentifierNone    Identifier = "NONE"
	IdentifierPrimary Identifier = "PRIMARY"
)

// AttributeOptions declares an attribute. Only Name is required.
type AttributeOptions struct {
	// Name is normalized to dash-separated form.
	Name string
	// ShortName is the storage field name. Defaults to Name.
	ShortName string
	// Type defaults to TypeString.
	Type        AttributeType
	Required    bool
	Description string
	// Visibility defaults to UserVisible.
	Visibility Visibility
	// Identifier defaults to IdentifierNone.
	Identifier Identifier
	// Generators default to NONE at every stage.
	Generators Generators
	// Separator joins composition sources. Defaults to keys.DefaultSeparator.
	Separator string
}

// Attribute is a named, typed field owned by one resource.
type Attribute struct {
	resource    *Resource
	name        string
	shortName   string
	typ         AttributeType
	required    bool
	description string
	visibility  Visibility
	identifier  Identifier
	generators  Generators
	sources     []string
	separator   string
}

func newAttribute(r *Resource, opts AttributeOptions) (*Attribute, error) {
	name := naming.Param(opts.Name)
	if name == "" {
		return nil, fmt.Errorf("resource %q: attribute name is required", r.name)
	}
	a := &Attribute{
		resource:    r,
		name:        name,
		shortName:   opts.ShortName,
		typ:         opts.Type,
		required:    opts.Required,
		description: opts.Description,
		visibility:  opts.Visibility,
		identifier:  opts.Identifier,
		generators:  opts.Generators,
		separator:   opts.Separator,
	}
	if a.shortName == "" {
		a.shortName = name
	}
	if a.typ == "" {
		a.typ = TypeString
	}
	if a.visibility == "" {
		a.visibility = UserVisible
	}
	if a.identifier == "" {
		a.identifier = IdentifierNone
	}
	if a.separator == "" {
		a.separator = keys.DefaultSeparator
	}
	for i, g := range []*Generator{&a.generators.Create, &a.generators.Read, &a.generators.Update, &a.generators.Delete} {
		k, err := ParseGeneratorKind(string(g.Kind))
		if err != nil {
			return nil, fmt.Errorf("resource %q: attribute %q: %s generator: %w", r.name, name, Stages[i], err)
		}
		g.Kind = k
	}

	if _, err := a.typ.StorageType(); err != nil {
		return nil, &UnknownAttributeTypeError{Type: a.typ, Resource: r.name, Attribute: name}
	}
	switch a.visibility {
	case UserVisible, Hidden:
	default:
		return nil, fmt.Errorf("resource %q: attribute %q: unknown visibility %q", r.name, name, a.visibility)
	}
	switch a.identifier {
	case IdentifierNone, IdentifierPrimary:
	default:
		return nil, fmt.Errorf("resource %q: attribute %q: unknown identifier role %q", r.name, name, a.identifier)
	}
	if err := a.generators.validate(); err != nil {
		return nil, fmt.Errorf("resource %q: attribute %q: %w", r.name, name, err)
	}
	return a, nil
}

func (a *Attribute) Resource() *Resource         { return a.resource }
func (a *Attribute) Name() string                { return a.name }
func (a *Attribute) ShortName() string           { return a.shortName }
func (a *Attribute) Type() AttributeType         { return a.typ }
func (a *Attribute) Required() bool              { return a.required }
func (a *Attribute) Description() string         { return a.description }
func (a *Attribute) Visibility() Visibility      { return a.visibility }
func (a *Attribute) Identifier() Identifier      { return a.identifier }
func (a *Attribute) Generators() Generators      { return a.generators }
func (a *Attribute) Generator(s Stage) Generator { return a.generators.For(s) }
func (a *Attribute) CreateGenerator() Generator  { return a.generators.Create }
func (a *Attribute) ReadGenerator() Generator    { return a.generators.Read }
func (a *Attribute) UpdateGenerator() Generator  { return a.generators.Update }
func (a *Attribute) DeleteGenerator() Generator  { return a.generators.Delete }

// IsSystem reports whether any lifecycle stage generates the value.
func (a *Attribute) IsSystem() bool {
	return a.generators.Any()
}

func (a *Attribute) IsHidden() bool {
	return a.visibility == Hidden
}

func (a *Attribute) IsPrimary() bool {
	return a.identifier == IdentifierPrimary
}

// IsPartitionKey reports whether a is the partition key attribute of the
// resource's primary access pattern.
func (a *Attribute) IsPartitionKey() bool {
	pk := a.resource.PartitionKey()
	return pk != nil && pk == a
}

// IsComposed reports whether the create generator is COMPOSITION.
func (a *Attribute) IsComposed() bool {
	return a.generators.Create.kind() == GeneratorComposition
}

func (a *Attribute) StorageType() StorageType {
	st, _ := a.typ.StorageType()
	return st
}

func (a *Attribute) InterfaceType() InterfaceType {
	it, _ := a.typ.InterfaceType()
	return it
}

func (a *Attribute) TypeScriptType() string {
	ts, _ := a.typ.TypeScriptType()
	return ts
}

// CompositionSources returns the names of the composed attributes in order.
func (a *Attribute) CompositionSources() []string {
	return append([]string(nil), a.sources...)
}

func (a *Attribute) Separator() string {
	return a.separator
}

// AddCompositionSource appends src to the composition of a. Source order is
// the order of the parts in the stored key.
func (a *Attribute) AddCompositionSource(src *Attribute) error {
	if !a.IsComposed() {
		return &InvalidCompositionError{Resource: a.resource.name, Attribute: a.name, Generator: a.generators.Create.kind()}
	}
	if src == nil || src.resource != a.resource {
		name := "<nil>"
		if src != nil {
			name = src.name
		}
		return &UnknownAttributeError{Resource: a.resource.name, Attribute: name, Context: fmt.Sprintf("composition of %q", a.name)}
	}
	if a.resource.sealed {
		return fmt.Errorf("resource %q: attribute %q: %w", a.resource.name, a.name, ErrResourceSealed)
	}
	if src == a {
		return fmt.Errorf("resource %q: attribute %q cannot be composed from itself", a.resource.name, a.name)
	}
	a.sources = append(a.sources, src.name)
	return nil
}

// prependCompositionSource places src ahead of the existing sources.
func (a *Attribute) prependCompositionSource(src *Attribute) {
	a.sources = append([]string{src.name}, a.sources...)
}

// KeyExpr returns the key expression of the attribute: the join of its
// composition sources, or a reference to itself when not composed.
func (a *Attribute) KeyExpr() (keys.Expr, error) {
	if !a.IsComposed() {
		return keys.Compose([]keys.Source{a.keySource()}, a.separator)
	}
	sources := make([]keys.Source, 0, len(a.sources))
	for _, name := range a.sources {
		src := a.resource.Attribute(name)
		if src == nil {
			return keys.Expr{}, &UnknownAttributeError{Resource: a.resource.name, Attribute: name, Context: fmt.Sprintf("composition of %q", a.name)}
		}
		sources = append(sources, src.keySource())
	}
	return keys.Compose(sources, a.separator)
}

func (a *Attribute) keySource() keys.Source {
	return keys.Source{Name: a.name, ShortName: a.shortName}
}
