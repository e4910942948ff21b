package model

import (
	"fmt"
	"strings"

	"github.com/acksell/blueprint/naming"
)

// KeyLayout selects the system key attributes of a resource.
type KeyLayout string

const (
	// KeyLayoutSimple keys items by id alone.
	KeyLayoutSimple KeyLayout = "simple"
	// KeyLayoutComposite keys items by composed pk and sk attributes and adds
	// an idx attribute feeding the lookup index.
	KeyLayoutComposite KeyLayout = "composite"
)

func ParseKeyLayout(s string) (KeyLayout, error) {
	switch KeyLayout(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyLayoutSimple:
		return KeyLayoutSimple, nil
	case KeyLayoutComposite:
		return KeyLayoutComposite, nil
	}
	return "", fmt.Errorf("unknown key layout %q", s)
}

// Names of the system attributes.
const (
	AttrPartitionKey = "pk"
	AttrSortKey      = "sk"
	AttrIndex        = "idx"
	AttrID           = "id"
	AttrType         = "type"
	AttrVersion      = "version"
	AttrCreatedAt    = "created-at"
	AttrUpdatedAt    = "updated-at"
	AttrDeletedAt    = "deleted-at"
	AttrTenantID     = "tenant-id"
)

// ResourceOptions declares a resource.
type ResourceOptions struct {
	Name string
	// ShortName defaults to Name.
	ShortName string
	// PluralName defaults to the plural of Name.
	PluralName  string
	Description string
	// KeyLayout defaults to KeyLayoutSimple.
	KeyLayout KeyLayout
	// TenantEnabled scopes every key by a hidden tenant-id attribute.
	// It implies KeyLayoutComposite.
	TenantEnabled bool
	// Attributes are appended after the system attributes, in order.
	Attributes []AttributeOptions
}

// Resource is a modeled entity. It owns its attributes, access patterns,
// operations and structures. All collections are append-only, and the
// attribute list is sealed once a structure has been derived from it.
type Resource struct {
	name          string
	shortName     string
	pluralName    string
	description   string
	keyLayout     KeyLayout
	tenantEnabled bool

	attributes  []*Attribute
	byName      map[string]*Attribute
	byShortName map[string]*Attribute
	primary     *Attribute

	accessPatterns []*AccessPattern
	operations     []*Operation
	structures     []*Structure

	sealed bool
}

// NewResource creates a resource with its system attributes followed by the
// declared attributes.
func NewResource(opts ResourceOptions) (*Resource, error) {
	name := naming.Param(opts.Name)
	if name == "" {
		return nil, fmt.Errorf("resource name is required")
	}
	layout, err := ParseKeyLayout(string(opts.KeyLayout))
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", name, err)
	}
	if opts.TenantEnabled {
		layout = KeyLayoutComposite
	}
	r := &Resource{
		name:          name,
		shortName:     opts.ShortName,
		pluralName:    naming.Param(opts.PluralName),
		description:   opts.Description,
		keyLayout:     layout,
		tenantEnabled: opts.TenantEnabled,
		byName:        map[string]*Attribute{},
		byShortName:   map[string]*Attribute{},
	}
	if r.shortName == "" {
		r.shortName = name
	}
	if r.pluralName == "" {
		r.pluralName = naming.Plural(name)
	}

	if err := r.addSystemAttributes(); err != nil {
		return nil, err
	}
	for _, ao := range opts.Attributes {
		if _, err := r.AddAttribute(ao); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Resource) addSystemAttributes() error {
	var system []AttributeOptions
	if r.keyLayout == KeyLayoutComposite {
		system = append(system,
			AttributeOptions{Name: AttrPartitionKey, Required: true, Generators: Generators{Create: Gen(GeneratorComposition)}},
			AttributeOptions{Name: AttrSortKey, Required: true, Generators: Generators{Create: Gen(GeneratorComposition)}},
			AttributeOptions{Name: AttrIndex, Required: true, Generators: Generators{Create: Gen(GeneratorComposition)}},
		)
	}
	system = append(system,
		AttributeOptions{Name: AttrID, Type: TypeGuid, Required: true, Identifier: IdentifierPrimary,
			Generators: Generators{Create: Gen(GeneratorGUID)}},
		AttributeOptions{Name: AttrType, ShortName: "t", Required: true,
			Generators: Generators{Create: Gen(GeneratorType)}},
		AttributeOptions{Name: AttrVersion, ShortName: "v", Type: TypeTimestamp, Required: true,
			Generators: Generators{Create: Gen(GeneratorVersion), Update: Gen(GeneratorVersion)}},
		AttributeOptions{Name: AttrCreatedAt, ShortName: "ca", Type: TypeDateTime, Required: true,
			Generators: Generators{Create: Gen(GeneratorCurrentDateTimeStamp)}},
		AttributeOptions{Name: AttrUpdatedAt, ShortName: "ua", Type: TypeDateTime, Required: true,
			Generators: Generators{Create: Gen(GeneratorCurrentDateTimeStamp), Update: Gen(GeneratorCurrentDateTimeStamp)}},
		AttributeOptions{Name: AttrDeletedAt, ShortName: "da", Type: TypeDateTime,
			Generators: Generators{Delete: Gen(GeneratorCurrentDateTimeStamp)}},
	)
	if r.tenantEnabled {
		system = append(system, AttributeOptions{Name: AttrTenantID, ShortName: "tid", Required: true, Visibility: Hidden,
			Generators: Generators{Create: Gen(GeneratorTenant)}})
	}
	for _, ao := range system {
		if _, err := r.AddAttribute(ao); err != nil {
			return err
		}
	}

	if r.keyLayout == KeyLayoutSimple {
		_, err := r.AddAccessPattern(AccessPatternOptions{Name: PrimaryAccessPattern, PartitionKey: AttrID})
		return err
	}

	compose := map[string][]string{
		AttrPartitionKey: {AttrID},
		AttrSortKey:      {AttrType, AttrVersion},
		AttrIndex:        {AttrType},
	}
	for _, key := range []string{AttrPartitionKey, AttrSortKey, AttrIndex} {
		a := r.byName[key]
		for _, src := range compose[key] {
			if err := a.AddCompositionSource(r.byName[src]); err != nil {
				return err
			}
		}
		if r.tenantEnabled {
			a.prependCompositionSource(r.byName[AttrTenantID])
		}
	}
	if _, err := r.AddAccessPattern(AccessPatternOptions{Name: PrimaryAccessPattern, PartitionKey: AttrPartitionKey, SortKey: AttrSortKey}); err != nil {
		return err
	}
	_, err := r.AddAccessPattern(AccessPatternOptions{Name: LookupAccessPattern, Index: LookupAccessPattern, PartitionKey: AttrIndex, SortKey: AttrID})
	return err
}

// AddAttribute appends an attribute. Name and short name must be unique
// within the resource.
func (r *Resource) AddAttribute(opts AttributeOptions) (*Attribute, error) {
	if r.sealed {
		return nil, fmt.Errorf("resource %q: add attribute %q: %w", r.name, opts.Name, ErrResourceSealed)
	}
	a, err := newAttribute(r, opts)
	if err != nil {
		return nil, err
	}
	if _, ok := r.byName[a.name]; ok {
		return nil, &DuplicateAttributeError{Resource: r.name, Attribute: a.name, Field: "name", Value: a.name}
	}
	if _, ok := r.byShortName[a.shortName]; ok {
		return nil, &DuplicateAttributeError{Resource: r.name, Attribute: a.name, Field: "shortName", Value: a.shortName}
	}
	if a.IsPrimary() {
		if r.primary != nil {
			return nil, &DuplicateIdentifierError{Resource: r.name, Attribute: a.name, Existing: r.primary.name}
		}
		r.primary = a
	}
	r.attributes = append(r.attributes, a)
	r.byName[a.name] = a
	r.byShortName[a.shortName] = a
	return a, nil
}

// AddAccessPattern registers an access pattern over existing attributes.
func (r *Resource) AddAccessPattern(opts AccessPatternOptions) (*AccessPattern, error) {
	p, err := newAccessPattern(r, opts)
	if err != nil {
		return nil, err
	}
	for _, existing := range r.accessPatterns {
		if existing.name == p.name {
			return nil, duplicateError(r.name, "access pattern", p.name)
		}
		if existing.index == p.index {
			return nil, fmt.Errorf("resource %q: access pattern %q: index %q already used by access pattern %q",
				r.name, p.name, indexLabel(p.index), existing.name)
		}
	}
	r.accessPatterns = append(r.accessPatterns, p)
	return p, nil
}

func indexLabel(index string) string {
	if index == PrimaryIndex {
		return "primary"
	}
	return index
}

func (r *Resource) Name() string           { return r.name }
func (r *Resource) ShortName() string      { return r.shortName }
func (r *Resource) PluralName() string     { return r.pluralName }
func (r *Resource) Description() string    { return r.description }
func (r *Resource) KeyLayout() KeyLayout   { return r.keyLayout }
func (r *Resource) TenantEnabled() bool    { return r.tenantEnabled }
func (r *Resource) Identifier() *Attribute { return r.primary }

// Sealed reports whether the attribute list can no longer change.
func (r *Resource) Sealed() bool { return r.sealed }

// Attributes returns the attributes in declaration order.
func (r *Resource) Attributes() []*Attribute {
	return append([]*Attribute(nil), r.attributes...)
}

// Attribute returns the attribute with the given name, or nil.
func (r *Resource) Attribute(name string) *Attribute {
	return r.byName[name]
}

// AttributeByShortName returns the attribute stored under the given field name, or nil.
func (r *Resource) AttributeByShortName(shortName string) *Attribute {
	return r.byShortName[shortName]
}

func (r *Resource) AccessPatterns() []*AccessPattern {
	return append([]*AccessPattern(nil), r.accessPatterns...)
}

// AccessPattern returns the access pattern with the given name, or nil.
func (r *Resource) AccessPattern(name string) *AccessPattern {
	for _, p := range r.accessPatterns {
		if p.name == name {
			return p
		}
	}
	return nil
}

// PrimaryAccessPattern returns the access pattern on the table keys.
func (r *Resource) PrimaryAccessPattern() *AccessPattern {
	for _, p := range r.accessPatterns {
		if p.IsPrimary() {
			return p
		}
	}
	return nil
}

// PartitionKey returns the partition key attribute of the table.
func (r *Resource) PartitionKey() *Attribute {
	p := r.PrimaryAccessPattern()
	if p == nil {
		return nil
	}
	return p.partitionKey.Attribute()
}

// SortKey returns the sort key attribute of the table, or nil.
func (r *Resource) SortKey() *Attribute {
	p := r.PrimaryAccessPattern()
	if p == nil || p.sortKey == nil {
		return nil
	}
	return p.sortKey.Attribute()
}

// KeyAttributes returns the table key attributes, partition key first.
func (r *Resource) KeyAttributes() []*Attribute {
	out := []*Attribute{r.PartitionKey()}
	if sk := r.SortKey(); sk != nil {
		out = append(out, sk)
	}
	return out
}

func (r *Resource) Operations() []*Operation {
	return append([]*Operation(nil), r.operations...)
}

// Operation returns the operation with the given name, or nil.
func (r *Resource) Operation(name string) *Operation {
	for _, op := range r.operations {
		if op.name == name {
			return op
		}
	}
	return nil
}

func (r *Resource) Structures() []*Structure {
	return append([]*Structure(nil), r.structures...)
}

// Structure returns the standalone structure with the given name, or nil.
func (r *Resource) Structure(name string) *Structure {
	for _, s := range r.structures {
		if s.name == name {
			return s
		}
	}
	return nil
}
