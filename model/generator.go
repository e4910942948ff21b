package model

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// GeneratorKind says how an attribute value is produced at one lifecycle stage.
type GeneratorKind string

const (
	GeneratorNone                 GeneratorKind = "NONE"
	GeneratorGUID                 GeneratorKind = "GUID"
	GeneratorCurrentDateTimeStamp GeneratorKind = "CURRENT_DATE_TIME_STAMP"
	GeneratorType                 GeneratorKind = "TYPE"
	GeneratorVersion              GeneratorKind = "VERSION"
	GeneratorComposition          GeneratorKind = "COMPOSITION"
	GeneratorAutoIncrement        GeneratorKind = "AUTO_INCREMENT"
	GeneratorTenant               GeneratorKind = "TENANT"
)

var generatorKinds = []GeneratorKind{
	GeneratorNone, GeneratorGUID, GeneratorCurrentDateTimeStamp, GeneratorType,
	GeneratorVersion, GeneratorComposition, GeneratorAutoIncrement, GeneratorTenant,
}

// ParseGeneratorKind parses a generator kind case-insensitively.
// The empty string is NONE.
func ParseGeneratorKind(s string) (GeneratorKind, error) {
	if s == "" {
		return GeneratorNone, nil
	}
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, k := range generatorKinds {
		if string(k) == want {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown generator kind %q", s)
}

// Stage is a CRUD lifecycle stage.
type Stage string

const (
	StageCreate Stage = "create"
	StageRead   Stage = "read"
	StageUpdate Stage = "update"
	StageDelete Stage = "delete"
)

// Stages lists the lifecycle stages in order.
var Stages = []Stage{StageCreate, StageRead, StageUpdate, StageDelete}

// DefaultValue is a literal substituted when the caller omits a value.
type DefaultValue struct {
	value   any
	storage StorageType
}

func StringDefault(s string) *DefaultValue {
	return &DefaultValue{value: s, storage: StorageString}
}

func NumberDefault[T constraints.Integer | constraints.Float](n T) *DefaultValue {
	return &DefaultValue{value: n, storage: StorageNumber}
}

func BoolDefault(b bool) *DefaultValue {
	return &DefaultValue{value: b, storage: StorageBoolean}
}

// Value returns the Go value of the default.
func (d *DefaultValue) Value() any {
	return d.value
}

// StorageType is the storage type the default marshals to.
func (d *DefaultValue) StorageType() StorageType {
	return d.storage
}

func (d *DefaultValue) String() string {
	return fmt.Sprint(d.value)
}

// Generator is the value production rule for one stage. The zero value is NONE.
type Generator struct {
	Kind GeneratorKind
	// Default is used when Kind is NONE and the caller leaves the value out.
	Default *DefaultValue
}

// Gen returns a generator of the given kind.
func Gen(kind GeneratorKind) Generator {
	return Generator{Kind: kind}
}

// WithDefault returns a copy of g with a default value.
func (g Generator) WithDefault(d *DefaultValue) Generator {
	g.Default = d
	return g
}

// IsNone reports whether the caller supplies the value at this stage.
func (g Generator) IsNone() bool {
	return g.Kind == "" || g.Kind == GeneratorNone
}

func (g Generator) kind() GeneratorKind {
	if g.Kind == "" {
		return GeneratorNone
	}
	return g.Kind
}

func (g Generator) String() string {
	if g.Default != nil {
		return fmt.Sprintf("%s(default=%v)", g.kind(), g.Default)
	}
	return string(g.kind())
}

// Generators assigns a generator to every lifecycle stage.
type Generators struct {
	Create Generator
	Read   Generator
	Update Generator
	Delete Generator
}

// For returns the generator of a stage.
func (g Generators) For(s Stage) Generator {
	switch s {
	case StageCreate:
		return g.Create
	case StageRead:
		return g.Read
	case StageUpdate:
		return g.Update
	case StageDelete:
		return g.Delete
	}
	panic(fmt.Sprintf("unknown stage %q", s))
}

// Any reports whether some stage generates a value.
func (g Generators) Any() bool {
	for _, s := range Stages {
		if !g.For(s).IsNone() {
			return true
		}
	}
	return false
}

func (g Generators) validate() error {
	for _, s := range Stages {
		gen := g.For(s)
		if gen.Default != nil && !gen.IsNone() {
			return fmt.Errorf("%s generator: default value requires generator %s, got %s", s, GeneratorNone, gen.Kind)
		}
	}
	if g.Create.kind() != GeneratorComposition {
		for _, s := range Stages[1:] {
			if g.For(s).kind() == GeneratorComposition {
				return fmt.Errorf("%s generator %s requires create generator %s", s, GeneratorComposition, GeneratorComposition)
			}
		}
	}
	return nil
}
