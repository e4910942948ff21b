package model

import (
	"errors"
	"fmt"

	"github.com/acksell/blueprint/model/keys"
	"github.com/acksell/blueprint/naming"
)

// PrimaryIndex is the index name of access patterns on the table keys.
const PrimaryIndex = ""

// Names of the access patterns every resource registers.
const (
	PrimaryAccessPattern = "primary"
	LookupAccessPattern  = "lookup"
)

// AccessPatternOptions declares an access pattern by its key attributes.
type AccessPatternOptions struct {
	Name string
	// Index is the GSI name, or PrimaryIndex for the table itself.
	Index string
	// PartitionKey names the attribute storing the partition key.
	PartitionKey string
	// SortKey optionally names the attribute storing the sort key.
	SortKey string
}

// Key is one key of an access pattern. It references the attribute storing
// the key value. The sources of the key are the attribute's composition, or
// the attribute alone when it is not composed.
type Key struct {
	resource  *Resource
	attribute string
}

// Attribute returns the attribute storing the key value.
func (k Key) Attribute() *Attribute {
	return k.resource.Attribute(k.attribute)
}

// AttributeName returns the name of the key attribute.
func (k Key) AttributeName() string {
	return k.attribute
}

// Sources returns the attributes the key is composed from, in order.
func (k Key) Sources() []*Attribute {
	a := k.Attribute()
	if !a.IsComposed() {
		return []*Attribute{a}
	}
	out := make([]*Attribute, 0, len(a.sources))
	for _, name := range a.sources {
		out = append(out, k.resource.Attribute(name))
	}
	return out
}

// Expr returns the join expression of the key.
func (k Key) Expr() (keys.Expr, error) {
	return k.Attribute().KeyExpr()
}

// AccessPattern records which attributes form the partition key and sort key
// of one index.
type AccessPattern struct {
	resource     *Resource
	name         string
	index        string
	partitionKey Key
	sortKey      *Key
}

func (p *AccessPattern) Resource() *Resource { return p.resource }
func (p *AccessPattern) Name() string        { return p.name }

// Index returns the GSI name, or PrimaryIndex.
func (p *AccessPattern) Index() string { return p.index }

// IsPrimary reports whether the pattern uses the table's own keys.
func (p *AccessPattern) IsPrimary() bool { return p.index == PrimaryIndex }

func (p *AccessPattern) PartitionKey() Key { return p.partitionKey }

// SortKey returns nil when the pattern has no sort key.
func (p *AccessPattern) SortKey() *Key { return p.sortKey }

func newAccessPattern(r *Resource, opts AccessPatternOptions) (*AccessPattern, error) {
	name := naming.Param(opts.Name)
	if name == "" {
		return nil, fmt.Errorf("resource %q: access pattern name is required", r.name)
	}
	p := &AccessPattern{resource: r, name: name, index: opts.Index}

	pk, err := r.newKey(name, "partition", opts.PartitionKey)
	if err != nil {
		return nil, err
	}
	p.partitionKey = pk
	if opts.SortKey != "" {
		sk, err := r.newKey(name, "sort", opts.SortKey)
		if err != nil {
			return nil, err
		}
		p.sortKey = &sk
	}
	return p, nil
}

func (r *Resource) newKey(pattern, which, attribute string) (Key, error) {
	if attribute == "" {
		return Key{}, &EmptyKeyError{Resource: r.name, AccessPattern: pattern, Key: which}
	}
	a := r.Attribute(attribute)
	if a == nil {
		return Key{}, &UnknownAttributeError{Resource: r.name, Attribute: attribute, Context: fmt.Sprintf("%s key of access pattern %q", which, pattern)}
	}
	if !a.typ.IsKeyType() {
		return Key{}, fmt.Errorf("resource %q: access pattern %q: %s key attribute %q has non-key type %s", r.name, pattern, which, a.name, a.typ)
	}
	if _, err := a.KeyExpr(); err != nil {
		if errors.Is(err, keys.ErrNoSources) {
			return Key{}, &EmptyKeyError{Resource: r.name, AccessPattern: pattern, Key: which}
		}
		return Key{}, err
	}
	return Key{resource: r, attribute: a.name}, nil
}
