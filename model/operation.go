package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/acksell/blueprint/naming"
)

// OperationType is the GraphQL root an operation belongs to.
type OperationType string

const (
	Query        OperationType = "Query"
	Mutation     OperationType = "Mutation"
	Subscription OperationType = "Subscription"
)

// OperationSubType is the action an operation performs.
type OperationSubType string

const (
	CreateOne     OperationSubType = "CreateOne"
	CreateMany    OperationSubType = "CreateMany"
	ReadOne       OperationSubType = "ReadOne"
	ReadMany      OperationSubType = "ReadMany"
	UpdateOne     OperationSubType = "UpdateOne"
	UpdateMany    OperationSubType = "UpdateMany"
	DeleteOne     OperationSubType = "DeleteOne"
	DeleteMany    OperationSubType = "DeleteMany"
	ImportOne     OperationSubType = "ImportOne"
	ImportMany    OperationSubType = "ImportMany"
	List          OperationSubType = "List"
	CreateVersion OperationSubType = "CreateVersion"
	ReadVersion   OperationSubType = "ReadVersion"
)

var operationSubTypes = []OperationSubType{
	CreateOne, CreateMany, ReadOne, ReadMany, UpdateOne, UpdateMany, DeleteOne,
	DeleteMany, ImportOne, ImportMany, List, CreateVersion, ReadVersion,
}

// ParseOperationSubType parses a subtype name case-insensitively.
func ParseOperationSubType(s string) (OperationSubType, error) {
	for _, st := range operationSubTypes {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown operation type %q", s)
}

// IsMany reports whether the subtype acts on a batch of items.
func (s OperationSubType) IsMany() bool {
	switch s {
	case CreateMany, ReadMany, UpdateMany, DeleteMany, ImportMany:
		return true
	}
	return false
}

// Verb returns the name prefix of operations of this subtype.
func (s OperationSubType) Verb() string {
	switch s {
	case CreateOne, CreateMany, CreateVersion:
		return "create"
	case ReadOne, ReadMany, ReadVersion:
		return "get"
	case UpdateOne, UpdateMany:
		return "update"
	case DeleteOne, DeleteMany:
		return "delete"
	case ImportOne, ImportMany:
		return "import"
	case List:
		return "list"
	}
	return naming.Param(string(s))
}

// DefaultType returns the operation type of the subtype.
func (s OperationSubType) DefaultType() OperationType {
	switch s {
	case ReadOne, ReadMany, List, ReadVersion:
		return Query
	}
	return Mutation
}

// OperationOptions declares an operation. Only SubType is required.
type OperationOptions struct {
	SubType OperationSubType
	// Name defaults to verb-resource, using the plural resource name for
	// batch and list operations.
	Name string
	// Type defaults to SubType.DefaultType().
	Type        OperationType
	Description string
	// AccessPattern defaults to the primary access pattern, or to the lookup
	// access pattern for List when the resource has one.
	AccessPattern string
}

// Operation is one action against a resource through one access pattern.
type Operation struct {
	resource      *Resource
	accessPattern *AccessPattern
	name          string
	typ           OperationType
	subType       OperationSubType
	description   string
	input         *Structure
	output        *Structure
}

// AddOperation creates an operation and derives its input and output
// structures. The attribute list of the resource is sealed afterwards.
func (r *Resource) AddOperation(opts OperationOptions) (*Operation, error) {
	op := &Operation{
		resource:    r,
		name:        naming.Param(opts.Name),
		typ:         opts.Type,
		subType:     opts.SubType,
		description: opts.Description,
	}
	if op.subType == "" {
		return nil, fmt.Errorf("resource %q: operation type is required", r.name)
	}
	if op.name == "" {
		op.name = defaultOperationName(r, op.subType)
	}
	if op.typ == "" {
		op.typ = op.subType.DefaultType()
	}
	switch op.typ {
	case Query, Mutation, Subscription:
	default:
		return nil, fmt.Errorf("resource %q: operation %q: unknown operation type %q", r.name, op.name, op.typ)
	}
	if r.Operation(op.name) != nil {
		return nil, duplicateError(r.name, "operation", op.name)
	}

	pattern := opts.AccessPattern
	if pattern == "" {
		pattern = PrimaryAccessPattern
		if op.subType == List && r.AccessPattern(LookupAccessPattern) != nil {
			pattern = LookupAccessPattern
		}
	}
	op.accessPattern = r.AccessPattern(naming.Param(pattern))
	if op.accessPattern == nil {
		return nil, &UnknownAccessPatternError{Resource: r.name, AccessPattern: pattern}
	}

	var err error
	if op.input, err = op.deriveStructure(Input); err != nil {
		return nil, err
	}
	if op.output, err = op.deriveStructure(Output); err != nil {
		return nil, err
	}
	r.operations = append(r.operations, op)
	r.sealed = true
	return op, nil
}

func defaultOperationName(r *Resource, st OperationSubType) string {
	noun := r.name
	if st.IsMany() || st == List {
		noun = r.pluralName
	}
	name := st.Verb() + "-" + noun
	if st == CreateVersion || st == ReadVersion {
		name += "-version"
	}
	return name
}

func (op *Operation) deriveStructure(st StructureType) (*Structure, error) {
	names, err := Derive(op.resource, op.subType, st)
	if err != nil {
		var unsupported *UnsupportedOperationTypeError
		if errors.As(err, &unsupported) {
			unsupported.Operation = op.name
		}
		return nil, err
	}
	s := &Structure{
		resource:  op.resource,
		operation: op,
		name:      op.name + "-" + strings.ToLower(string(st)),
		typ:       st,
	}
	s.attributes = s.refs(names)
	return s, nil
}

func (op *Operation) Resource() *Resource           { return op.resource }
func (op *Operation) AccessPattern() *AccessPattern { return op.accessPattern }
func (op *Operation) Name() string                  { return op.name }
func (op *Operation) Type() OperationType           { return op.typ }
func (op *Operation) SubType() OperationSubType     { return op.subType }
func (op *Operation) Description() string           { return op.description }
func (op *Operation) Input() *Structure             { return op.input }
func (op *Operation) Output() *Structure            { return op.output }

// IsBatch reports whether the operation acts on many items at once.
func (op *Operation) IsBatch() bool {
	return op.subType.IsMany()
}

// ReturnsList reports whether the output is list shaped.
func (op *Operation) ReturnsList() bool {
	return op.IsBatch() || op.subType == List
}
