// Package config reads blueprint.yaml model definitions and builds the
// model they describe.
//
//	version: 1
//	service: people
//	resources:
//	  - name: person
//	    attributes:
//	      - name: my-name
//	        required: true
//	      - name: search-key
//	        compose: "{my-name}#{id}"
//	    operations:
//	      - subType: CreateOne
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/acksell/blueprint/model"
	"github.com/acksell/blueprint/model/keys"
	"github.com/acksell/blueprint/naming"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// FileName is the model definition file looked up by default.
const FileName = "blueprint.yaml"

// Version is the file format version this package reads.
const Version = 1

// File maps directly to the structure of blueprint.yaml files.
type File struct {
	Version     int    `yaml:"version"`
	Service     string `yaml:"service"`
	Description string `yaml:"description,omitempty"`
	// Table defaults to the service name.
	Table string `yaml:"table,omitempty"`
	// Output is the directory artifacts are written to.
	Output string `yaml:"output,omitempty"`
	// Targets selects the artifacts to render. Empty renders all of them.
	Targets []string `yaml:"targets,omitempty"`
	// GoPackage names the package of the Go types. The go target is skipped
	// without one.
	GoPackage string     `yaml:"goPackage,omitempty"`
	Resources []Resource `yaml:"resources"`
}

type Resource struct {
	Name           string          `yaml:"name"`
	ShortName      string          `yaml:"shortName,omitempty"`
	PluralName     string          `yaml:"pluralName,omitempty"`
	Description    string          `yaml:"description,omitempty"`
	KeyLayout      string          `yaml:"keyLayout,omitempty"`
	TenantEnabled  bool            `yaml:"tenantEnabled,omitempty"`
	Attributes     []Attribute     `yaml:"attributes,omitempty"`
	AccessPatterns []AccessPattern `yaml:"accessPatterns,omitempty"`
	Structures     []Structure     `yaml:"structures,omitempty"`
	Operations     []Operation     `yaml:"operations,omitempty"`
}

type Attribute struct {
	Name        string     `yaml:"name"`
	ShortName   string     `yaml:"shortName,omitempty"`
	Type        string     `yaml:"type,omitempty"`
	Required    bool       `yaml:"required,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Hidden      bool       `yaml:"hidden,omitempty"`
	Primary     bool       `yaml:"primary,omitempty"`
	Generators  Generators `yaml:"generators,omitempty"`
	// Default applies on create when the caller leaves the value out.
	Default any `yaml:"default,omitempty"`
	// Compose is a key pattern such as "{type}#{id}". It implies a
	// COMPOSITION create generator.
	Compose string `yaml:"compose,omitempty"`
}

// Generators names the generator kind of each stage.
type Generators struct {
	Create string `yaml:"create,omitempty"`
	Read   string `yaml:"read,omitempty"`
	Update string `yaml:"update,omitempty"`
	Delete string `yaml:"delete,omitempty"`
}

type AccessPattern struct {
	Name         string `yaml:"name"`
	Index        string `yaml:"index,omitempty"`
	PartitionKey string `yaml:"partitionKey"`
	SortKey      string `yaml:"sortKey,omitempty"`
}

type Structure struct {
	Name          string   `yaml:"name"`
	Type          string   `yaml:"type,omitempty"`
	TypeParameter string   `yaml:"typeParameter,omitempty"`
	Attributes    []string `yaml:"attributes,omitempty"`
}

type Operation struct {
	SubType       string `yaml:"subType"`
	Name          string `yaml:"name,omitempty"`
	Type          string `yaml:"type,omitempty"`
	Description   string `yaml:"description,omitempty"`
	AccessPattern string `yaml:"accessPattern,omitempty"`
}

// Read loads and validates the file at path.
func Read(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a model definition. Unknown fields are errors.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if f.Version == 0 {
		f.Version = Version
	}
	if f.Version != Version {
		return nil, fmt.Errorf("unsupported version %d, want %d", f.Version, Version)
	}
	if f.Service == "" {
		return nil, fmt.Errorf("service is required")
	}
	return &f, nil
}

// Build turns the file into a service. Attributes are added first and
// composed in a second pass, so compositions may reference attributes
// declared later and system attributes alike.
func Build(f *File) (*model.Service, error) {
	svc, err := model.NewService(model.ServiceOptions{
		Name:        f.Service,
		Description: f.Description,
		Table:       f.Table,
	})
	if err != nil {
		return nil, err
	}
	for _, rc := range f.Resources {
		if err := buildResource(svc, rc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

func buildResource(svc *model.Service, rc Resource) error {
	layout, err := model.ParseKeyLayout(rc.KeyLayout)
	if err != nil {
		return fmt.Errorf("resource %q: %w", rc.Name, err)
	}
	opts := model.ResourceOptions{
		Name:          rc.Name,
		ShortName:     rc.ShortName,
		PluralName:    rc.PluralName,
		Description:   rc.Description,
		KeyLayout:     layout,
		TenantEnabled: rc.TenantEnabled,
	}
	compose := map[string][]string{}
	for _, ac := range rc.Attributes {
		ao, sources, err := attributeOptions(ac)
		if err != nil {
			return fmt.Errorf("resource %q: attribute %q: %w", rc.Name, ac.Name, err)
		}
		opts.Attributes = append(opts.Attributes, ao)
		if len(sources) > 0 {
			compose[naming.Param(ac.Name)] = sources
		}
	}
	r, err := svc.AddResource(opts)
	if err != nil {
		return err
	}

	for _, ac := range rc.Attributes {
		name := naming.Param(ac.Name)
		for _, src := range compose[name] {
			if err := r.Attribute(name).AddCompositionSource(r.Attribute(naming.Param(src))); err != nil {
				return err
			}
		}
	}
	for _, pc := range rc.AccessPatterns {
		_, err := r.AddAccessPattern(model.AccessPatternOptions{
			Name:         pc.Name,
			Index:        pc.Index,
			PartitionKey: naming.Param(pc.PartitionKey),
			SortKey:      naming.Param(pc.SortKey),
		})
		if err != nil {
			return err
		}
	}
	for _, sc := range rc.Structures {
		typ, err := structureType(sc.Type)
		if err != nil {
			return fmt.Errorf("resource %q: structure %q: %w", rc.Name, sc.Name, err)
		}
		so := model.StructureOptions{Name: sc.Name, Type: typ, TypeParameter: sc.TypeParameter}
		for _, n := range sc.Attributes {
			so.Attributes = append(so.Attributes, naming.Param(n))
		}
		if _, err := r.AddStructure(so); err != nil {
			return err
		}
	}
	for _, oc := range rc.Operations {
		st, err := model.ParseOperationSubType(oc.SubType)
		if err != nil {
			return fmt.Errorf("resource %q: %w", rc.Name, err)
		}
		typ, err := operationType(oc.Type)
		if err != nil {
			return fmt.Errorf("resource %q: operation %q: %w", rc.Name, oc.Name, err)
		}
		_, err = r.AddOperation(model.OperationOptions{
			SubType:       st,
			Name:          oc.Name,
			Type:          typ,
			Description:   oc.Description,
			AccessPattern: oc.AccessPattern,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// attributeOptions converts ac and returns the sources of its composition.
func attributeOptions(ac Attribute) (model.AttributeOptions, []string, error) {
	ao := model.AttributeOptions{
		Name:        ac.Name,
		ShortName:   ac.ShortName,
		Type:        attributeType(ac.Type),
		Required:    ac.Required,
		Description: ac.Description,
		Generators: model.Generators{
			Create: model.Gen(model.GeneratorKind(ac.Generators.Create)),
			Read:   model.Gen(model.GeneratorKind(ac.Generators.Read)),
			Update: model.Gen(model.GeneratorKind(ac.Generators.Update)),
			Delete: model.Gen(model.GeneratorKind(ac.Generators.Delete)),
		},
	}
	if ac.Hidden {
		ao.Visibility = model.Hidden
	}
	if ac.Primary {
		ao.Identifier = model.IdentifierPrimary
	}
	if ac.Default != nil {
		d, err := defaultValue(ac.Default)
		if err != nil {
			return ao, nil, err
		}
		ao.Generators.Create = ao.Generators.Create.WithDefault(d)
	}

	var sources []string
	if ac.Compose != "" {
		create, err := model.ParseGeneratorKind(ac.Generators.Create)
		if err != nil {
			return ao, nil, err
		}
		switch create {
		case model.GeneratorNone:
			// A default stays attached for the model to reject.
			ao.Generators.Create.Kind = model.GeneratorComposition
		case model.GeneratorComposition:
		default:
			return ao, nil, fmt.Errorf("compose requires create generator %s, got %s", model.GeneratorComposition, create)
		}
		names, sep, err := keys.Parse(ac.Compose)
		if err != nil {
			return ao, nil, fmt.Errorf("compose: %w", err)
		}
		ao.Separator = sep
		sources = names
	}
	return ao, sources, nil
}

// attributeType matches a type name case-insensitively. Unknown names pass
// through for the model to reject.
func attributeType(s string) model.AttributeType {
	for _, t := range model.AttributeTypes {
		if strings.EqualFold(string(t), s) {
			return t
		}
	}
	return model.AttributeType(s)
}

func defaultValue(v any) (*model.DefaultValue, error) {
	switch v := v.(type) {
	case string:
		return model.StringDefault(v), nil
	case int:
		return model.NumberDefault(int64(v)), nil
	case float64:
		return model.NumberDefault(v), nil
	case bool:
		return model.BoolDefault(v), nil
	}
	return nil, fmt.Errorf("default %v: unsupported type %T", v, v)
}

func structureType(s string) (model.StructureType, error) {
	if s == "" {
		return "", nil
	}
	for _, t := range []model.StructureType{model.Input, model.Output, model.Data, model.Transient} {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown structure type %q", s)
}

func operationType(s string) (model.OperationType, error) {
	if s == "" {
		return "", nil
	}
	for _, t := range []model.OperationType{model.Query, model.Mutation, model.Subscription} {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown operation type %q", s)
}
