package model

import (
	"errors"
	"fmt"
)

// ErrResourceSealed is returned when an attribute is added to a resource that
// already has operations derived from its attribute list.
var ErrResourceSealed = errors.New("resource attributes are sealed")

// DuplicateAttributeError reports a name or short name colliding within a resource.
type DuplicateAttributeError struct {
	Resource  string
	Attribute string
	// Field is "name" or "shortName".
	Field string
	Value string
}

func (e *DuplicateAttributeError) Error() string {
	return fmt.Sprintf("resource %q: attribute %q: duplicate %s %q", e.Resource, e.Attribute, e.Field, e.Value)
}

// DuplicateIdentifierError reports a second PRIMARY identifier on a resource.
type DuplicateIdentifierError struct {
	Resource  string
	Attribute string
	Existing  string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("resource %q: attribute %q cannot be PRIMARY identifier, %q already is", e.Resource, e.Attribute, e.Existing)
}

// EmptyKeyError reports an access pattern key without source attributes.
type EmptyKeyError struct {
	Resource      string
	AccessPattern string
	// Key is "partition" or "sort".
	Key string
}

func (e *EmptyKeyError) Error() string {
	return fmt.Sprintf("resource %q: access pattern %q: %s key has no source attributes", e.Resource, e.AccessPattern, e.Key)
}

// InvalidCompositionError reports a composition source added to an attribute
// whose create generator is not COMPOSITION.
type InvalidCompositionError struct {
	Resource  string
	Attribute string
	Generator GeneratorKind
}

func (e *InvalidCompositionError) Error() string {
	return fmt.Sprintf("resource %q: attribute %q: composition sources require create generator %s, got %s",
		e.Resource, e.Attribute, GeneratorComposition, e.Generator)
}

// UnknownAttributeTypeError reports a semantic type without a storage mapping.
type UnknownAttributeTypeError struct {
	Type AttributeType
	// Resource and Attribute are set when the type was found on a declared
	// attribute.
	Resource  string
	Attribute string
}

func (e *UnknownAttributeTypeError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("resource %q: attribute %q: unknown attribute type %q", e.Resource, e.Attribute, e.Type)
	}
	return fmt.Sprintf("unknown attribute type %q", e.Type)
}

// UnsupportedOperationTypeError reports an operation subtype the derivation
// engine has no rule for.
type UnsupportedOperationTypeError struct {
	Resource  string
	Operation string
	SubType   OperationSubType
	Structure StructureType
}

func (e *UnsupportedOperationTypeError) Error() string {
	return fmt.Sprintf("resource %q: operation %q: no %s structure rule for operation type %q",
		e.Resource, e.Operation, e.Structure, e.SubType)
}

// UnknownAttributeError reports a reference to an attribute the resource does not own.
type UnknownAttributeError struct {
	Resource  string
	Attribute string
	// Context says where the reference was made, e.g. `composition of "pk"`.
	Context string
}

func (e *UnknownAttributeError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("resource %q: %s: unknown attribute %q", e.Resource, e.Context, e.Attribute)
	}
	return fmt.Sprintf("resource %q: unknown attribute %q", e.Resource, e.Attribute)
}

// UnknownAccessPatternError reports an operation bound to an undeclared access pattern.
type UnknownAccessPatternError struct {
	Resource      string
	AccessPattern string
}

func (e *UnknownAccessPatternError) Error() string {
	return fmt.Sprintf("resource %q: unknown access pattern %q", e.Resource, e.AccessPattern)
}

// DuplicateResourceError reports two resources with the same name in a service.
type DuplicateResourceError struct {
	Service  string
	Resource string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("service %q: duplicate resource %q", e.Service, e.Resource)
}

// duplicateError reports a name collision that is not an attribute, such as an
// operation, access pattern or structure name.
func duplicateError(resource, kind, name string) error {
	return fmt.Errorf("resource %q: duplicate %s %q", resource, kind, name)
}
